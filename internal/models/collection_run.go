package models

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// CollectionRunStatus tracks an asynchronous collection lifecycle.
type CollectionRunStatus string

const (
	CollectionRunQueued   CollectionRunStatus = "queued"
	CollectionRunRunning  CollectionRunStatus = "running"
	CollectionRunFinished CollectionRunStatus = "finished"
	CollectionRunFailed   CollectionRunStatus = "failed"
)

// CollectionRun is the persisted record of one collector execution.
type CollectionRun struct {
	ID             string              `db:"id" json:"id"`
	Status         CollectionRunStatus `db:"status" json:"status"`
	Reconcile      bool                `db:"reconcile" json:"reconcile"`
	SourceCounts   types.JSONText      `db:"source_counts" json:"source_counts,omitempty"`
	CollectedCount int                 `db:"collected_count" json:"collected_count"`
	InsertedCount  int                 `db:"inserted_count" json:"inserted_count"`
	DroppedCount   int                 `db:"dropped_count" json:"dropped_count"`
	ErrorMessage   *string             `db:"error_message" json:"error_message,omitempty"`
	RequestedBy    string              `db:"requested_by" json:"requested_by"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	StartedAt      *time.Time          `db:"started_at" json:"started_at,omitempty"`
	FinishedAt     *time.Time          `db:"finished_at" json:"finished_at,omitempty"`
}

// Counts decodes the per-source counts.
func (r CollectionRun) Counts() map[string]int {
	counts := map[string]int{}
	if len(r.SourceCounts) == 0 {
		return counts
	}
	_ = json.Unmarshal([]byte(r.SourceCounts), &counts)
	return counts
}
