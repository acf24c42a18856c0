package data

// SmsSettings are the per organization SMS alert settings
type SmsSettings struct {
	Enabled                   bool    `json:"enabled"`
	DailyLimit                int     `json:"dailyLimit"`
	MonthlyBudget             float64 `json:"monthlyBudget"`
	CurrentMonthCount         int     `json:"currentMonthCount"`
	CurrentMonthCost          float64 `json:"currentMonthCost"`
	AlertOnBudgetThreshold    bool    `json:"alertOnBudgetThreshold"`
	BudgetThresholdPercentage int     `json:"budgetThresholdPercentage"`
}

// SmsSettingsUpdate carries the editable SMS settings
type SmsSettingsUpdate struct {
	Enabled                   bool    `json:"enabled"`
	DailyLimit                int     `json:"dailyLimit"`
	MonthlyBudget             float64 `json:"monthlyBudget"`
	AlertOnBudgetThreshold    bool    `json:"alertOnBudgetThreshold"`
	BudgetThresholdPercentage int     `json:"budgetThresholdPercentage"`
}

// DefaultSmsSettings are the settings the backend creates for a new organization
func DefaultSmsSettings() SmsSettings {
	return SmsSettings{
		DailyLimit:                100,
		MonthlyBudget:             50,
		AlertOnBudgetThreshold:    true,
		BudgetThresholdPercentage: 80,
	}
}

// Update returns the editable part of the settings
func (s SmsSettings) Update() SmsSettingsUpdate {
	return SmsSettingsUpdate{
		Enabled:                   s.Enabled,
		DailyLimit:                s.DailyLimit,
		MonthlyBudget:             s.MonthlyBudget,
		AlertOnBudgetThreshold:    s.AlertOnBudgetThreshold,
		BudgetThresholdPercentage: s.BudgetThresholdPercentage,
	}
}

// BudgetUsed returns the fraction of the monthly budget spent, 0..1+
func (s SmsSettings) BudgetUsed() float64 {
	if s.MonthlyBudget <= 0 {
		return 0
	}
	return s.CurrentMonthCost / s.MonthlyBudget
}

// OverThreshold is true when budget alerts are on and spend reached the threshold
func (s SmsSettings) OverThreshold() bool {
	if !s.AlertOnBudgetThreshold {
		return false
	}
	return s.BudgetUsed()*100 >= float64(s.BudgetThresholdPercentage)
}
