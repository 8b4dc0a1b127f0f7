package models

import "time"

// AuditAction enumerates event mutations recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
	AuditActionDelete AuditAction = "DELETE"
)

// AuditEntry is an immutable record of one change to an event. Title, gym and date are
// denormalized so the history renders after the event is gone.
type AuditEntry struct {
	ID           string      `db:"id" json:"id"`
	EventID      string      `db:"event_id" json:"event_id"`
	Action       AuditAction `db:"action" json:"action"`
	FieldChanged *string     `db:"field_changed" json:"field_changed,omitempty"`
	OldValue     *string     `db:"old_value" json:"old_value,omitempty"`
	NewValue     *string     `db:"new_value" json:"new_value,omitempty"`
	ChangedAt    time.Time   `db:"changed_at" json:"changed_at"`
	ChangedBy    string      `db:"changed_by" json:"changed_by"`
	EventTitle   string      `db:"event_title" json:"event_title"`
	GymID        string      `db:"gym_id" json:"gym_id"`
	EventDate    time.Time   `db:"event_date" json:"event_date"`
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	EventID string
	GymID   string
	Limit   int
}
