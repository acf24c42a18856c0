package data

// Organization is a tenant of the platform
type Organization struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
	DeviceCount int    `json:"deviceCount"`
	UserCount   int    `json:"userCount"`
	CreatedAt   *Time  `json:"createdAt,omitempty"`
}

// OrganizationUpdate carries the editable fields of an organization
type OrganizationUpdate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
