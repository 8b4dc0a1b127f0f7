package dto

import (
	"time"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// ComplianceOverview is the month view across every gym.
type ComplianceOverview struct {
	Month             string                    `json:"month"`
	AsOf              string                    `json:"as_of"`
	CompliantCount    int                       `json:"compliant_count"`
	NonCompliantCount int                       `json:"non_compliant_count"`
	Reports           []models.ComplianceReport `json:"reports"`
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// CollectionRunRequest triggers an asynchronous collection.
type CollectionRunRequest struct {
	Reconcile *bool `json:"reconcile,omitempty"`
}

// UnlockRequest carries the admin PIN.
type UnlockRequest struct {
	PIN string `json:"pin" validate:"required,min=4,max=64"`
}

// UnlockResponse returns the admin session token.
type UnlockResponse struct {
	Token     string    `json:"token"`
	Mode      string    `json:"mode"`
	ExpiresAt time.Time `json:"expires_at"`
}
