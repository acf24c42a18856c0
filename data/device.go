package data

import "strconv"

// Device is a device record as returned by the admin devices API
type Device struct {
	ID               string `json:"id"`
	ExternalID       string `json:"externalId"`
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Active           bool   `json:"active"`
	Location         string `json:"location,omitempty"`
	SensorType       string `json:"sensorType,omitempty"`
	FirmwareVersion  string `json:"firmwareVersion,omitempty"`
	Status           string `json:"status"`
	LastSeenAt       *Time  `json:"lastSeenAt,omitempty"`
	HealthScore      *int   `json:"healthScore,omitempty"`
	OrganizationID   int64  `json:"organizationId,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
	HasAPIToken      bool   `json:"hasApiToken"`
	CreatedAt        *Time  `json:"createdAt,omitempty"`
	UpdatedAt        *Time  `json:"updatedAt,omitempty"`
}

// DeviceUpdate carries the editable fields of a device
type DeviceUpdate struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	SensorType      string `json:"sensorType"`
	FirmwareVersion string `json:"firmwareVersion"`
}

// Update returns the editable fields of the device
func (d Device) Update() DeviceUpdate {
	return DeviceUpdate{
		Name:            d.Name,
		Description:     d.Description,
		Location:        d.Location,
		SensorType:      d.SensorType,
		FirmwareVersion: d.FirmwareVersion,
	}
}

// Label returns the best human readable name for the device
func (d Device) Label() string {
	if d.Name != "" {
		return d.Name
	}
	if d.ExternalID != "" {
		return d.ExternalID
	}
	return d.ID
}

// Health formats the health score, or a placeholder when unknown
func (d Device) Health() string {
	if d.HealthScore == nil {
		return NotAvailable
	}
	return strconv.Itoa(*d.HealthScore) + "%"
}
