package data

import "time"

// entity types used by the trash API
const (
	EntityDevice       = "DEVICE"
	EntityOrganization = "ORGANIZATION"
)

// SoftDeleteResponse is returned when a record is moved to the trash. It
// carries what is needed to offer an undo.
type SoftDeleteResponse struct {
	TrashID       int64  `json:"trashId"`
	EntityType    string `json:"entityType"`
	EntityName    string `json:"entityName"`
	ExpiresAt     string `json:"expiresAt"`
	DaysRemaining int64  `json:"daysRemaining"`
}

// Deadline parses ExpiresAt. When the server value is malformed the restore
// window is derived from DaysRemaining.
func (r SoftDeleteResponse) Deadline() time.Time {
	if t, ok := ParseTimestamp(r.ExpiresAt); ok {
		return t
	}
	return time.Now().Add(time.Duration(r.DaysRemaining) * 24 * time.Hour)
}

// TrashItem is an entry in the trash listing
type TrashItem struct {
	ID             int64  `json:"id"`
	EntityType     string `json:"entityType"`
	EntityID       string `json:"entityId"`
	EntityName     string `json:"entityName"`
	DeletedAt      *Time  `json:"deletedAt,omitempty"`
	DeletedBy      string `json:"deletedBy,omitempty"`
	DeletionReason string `json:"deletionReason,omitempty"`
	ExpiresAt      *Time  `json:"expiresAt,omitempty"`
	DaysRemaining  int64  `json:"daysRemaining"`
}
