package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// AuditRepository reads the append-only event audit log.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// List returns audit entries newest first.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditEntry, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.EventID != "" {
		args = append(args, filter.EventID)
		conditions = append(conditions, fmt.Sprintf("event_id = $%d", len(args)))
	}
	if filter.GymID != "" {
		args = append(args, filter.GymID)
		conditions = append(conditions, fmt.Sprintf("gym_id = $%d", len(args)))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT id, event_id, action, field_changed, old_value, new_value, changed_at, changed_by, event_title, gym_id, event_date
FROM event_audit_log WHERE %s ORDER BY changed_at DESC, id DESC LIMIT %d`, strings.Join(conditions, " AND "), limit)
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}

func insertAuditEntries(ctx context.Context, exec sqlx.ExtContext, entries []models.AuditEntry) error {
	const query = `INSERT INTO event_audit_log (id, event_id, action, field_changed, old_value, new_value, changed_at, changed_by, event_title, gym_id, event_date)
VALUES (:id, :event_id, :action, :field_changed, :old_value, :new_value, :changed_at, :changed_by, :event_title, :gym_id, :event_date)`
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].ChangedAt.IsZero() {
			entries[i].ChangedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, exec, query, entries[i]); err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
	}
	return nil
}

func newAuditEntry(event models.Event, action models.AuditAction, actor string) models.AuditEntry {
	return models.AuditEntry{
		EventID:    event.ID,
		Action:     action,
		ChangedBy:  actor,
		EventTitle: event.Title,
		GymID:      event.GymID,
		EventDate:  event.Date,
	}
}
