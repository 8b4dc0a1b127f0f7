package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

const collectionRunColumns = `id, status, reconcile, source_counts, collected_count, inserted_count, dropped_count, error_message, requested_by, created_at, started_at, finished_at`

// CollectionRunRepository persists collector run records.
type CollectionRunRepository struct {
	db *sqlx.DB
}

// NewCollectionRunRepository constructs a CollectionRunRepository.
func NewCollectionRunRepository(db *sqlx.DB) *CollectionRunRepository {
	return &CollectionRunRepository{db: db}
}

// Create inserts a queued run.
func (r *CollectionRunRepository) Create(ctx context.Context, run *models.CollectionRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.CollectionRunQueued
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if len(run.SourceCounts) == 0 {
		run.SourceCounts = types.JSONText("{}")
	}
	const query = `INSERT INTO collection_runs (id, status, reconcile, source_counts, collected_count, inserted_count, dropped_count, error_message, requested_by, created_at)
VALUES (:id, :status, :reconcile, :source_counts, :collected_count, :inserted_count, :dropped_count, :error_message, :requested_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("create collection run: %w", err)
	}
	return nil
}

// MarkRunning flags a run as started.
func (r *CollectionRunRepository) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	const query = `UPDATE collection_runs SET status = $2, started_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.CollectionRunRunning, startedAt)
	if err != nil {
		return fmt.Errorf("mark collection run running: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Finish stores the terminal state and counts of a run.
func (r *CollectionRunRepository) Finish(ctx context.Context, run *models.CollectionRun) error {
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}
	const query = `UPDATE collection_runs SET status = :status, source_counts = :source_counts, collected_count = :collected_count,
inserted_count = :inserted_count, dropped_count = :dropped_count, error_message = :error_message, finished_at = :finished_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("finish collection run: %w", err)
	}
	return nil
}

// FindByID fetches a run.
func (r *CollectionRunRepository) FindByID(ctx context.Context, id string) (*models.CollectionRun, error) {
	query := fmt.Sprintf("SELECT %s FROM collection_runs WHERE id = $1", collectionRunColumns)
	var run models.CollectionRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRecent returns the latest runs, newest first.
func (r *CollectionRunRepository) ListRecent(ctx context.Context, limit int) ([]models.CollectionRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM collection_runs ORDER BY created_at DESC LIMIT %d", collectionRunColumns, limit)
	var runs []models.CollectionRun
	if err := r.db.SelectContext(ctx, &runs, query); err != nil {
		return nil, fmt.Errorf("list collection runs: %w", err)
	}
	return runs, nil
}
