package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

const eventColumns = `id, gym_id, type, title, date, time, price, source_url, external_id, sold_out, created_at, updated_at`

// EventRepository persists scheduled events. Every mutation writes its audit entries in the
// same transaction.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns a page of events matching the filter ordered by date and time.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	where, args := eventConditions(filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s FROM events WHERE %s ORDER BY date ASC, time ASC, id ASC LIMIT %d OFFSET %d", eventColumns, where, size, offset)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM events WHERE %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// ListInRange returns every event of a month, optionally limited to one gym.
func (r *EventRepository) ListInRange(ctx context.Context, gymID string, month models.MonthRange) ([]models.Event, error) {
	where, args := eventConditions(models.EventFilter{GymID: gymID, Range: &month})
	query := fmt.Sprintf("SELECT %s FROM events WHERE %s ORDER BY gym_id ASC, date ASC, time ASC, id ASC", eventColumns, where)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list events in range: %w", err)
	}
	return events, nil
}

// FindByID fetches a single event.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	query := fmt.Sprintf("SELECT %s FROM events WHERE id = $1", eventColumns)
	var event models.Event
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts an event and its CREATE audit entry.
func (r *EventRepository) Create(ctx context.Context, event *models.Event, actor string) error {
	prepareEvent(event, time.Now().UTC())

	return r.withTx(ctx, "create event", func(tx *sqlx.Tx) error {
		const query = `INSERT INTO events (id, gym_id, type, title, date, time, price, source_url, external_id, sold_out, created_at, updated_at)
VALUES (:id, :gym_id, :type, :title, :date, :time, :price, :source_url, :external_id, :sold_out, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
			return err
		}
		return insertAuditEntries(ctx, tx, []models.AuditEntry{newAuditEntry(*event, models.AuditActionCreate, actor)})
	})
}

// Update stores the event and one audit entry per changed field.
func (r *EventRepository) Update(ctx context.Context, event *models.Event, changes []models.AuditEntry) error {
	event.UpdatedAt = time.Now().UTC()

	return r.withTx(ctx, "update event", func(tx *sqlx.Tx) error {
		const query = `UPDATE events SET gym_id = :gym_id, type = :type, title = :title, date = :date, time = :time, price = :price,
source_url = :source_url, sold_out = :sold_out, updated_at = :updated_at WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, query, event)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return sql.ErrNoRows
		}
		return insertAuditEntries(ctx, tx, changes)
	})
}

// Delete removes the event after recording a DELETE audit entry.
func (r *EventRepository) Delete(ctx context.Context, event models.Event, actor string) error {
	return r.withTx(ctx, "delete event", func(tx *sqlx.Tx) error {
		if err := insertAuditEntries(ctx, tx, []models.AuditEntry{newAuditEntry(event, models.AuditActionDelete, actor)}); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, event.ID)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// InsertIfAbsent inserts events that do not collide with an existing source_url or
// (gym_id, external_id) and returns only the inserted rows. Existing rows are left untouched.
func (r *EventRepository) InsertIfAbsent(ctx context.Context, events []models.Event, actor string) ([]models.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert events: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO events (id, gym_id, type, title, date, time, price, source_url, external_id, sold_out, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT DO NOTHING RETURNING id`
	now := time.Now().UTC()
	inserted := make([]models.Event, 0, len(events))
	audit := make([]models.AuditEntry, 0, len(events))
	for i := range events {
		event := events[i]
		event.ID = ""
		prepareEvent(&event, now)
		var insertedID string
		err := tx.QueryRowxContext(ctx, query,
			event.ID, event.GymID, event.Type, event.Title, event.Date, event.Time, event.Price,
			event.SourceURL, event.ExternalID, event.SoldOut, event.CreatedAt, event.UpdatedAt,
		).Scan(&insertedID)
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("insert event %s: %w", event.SourceURL, err)
		}
		inserted = append(inserted, event)
		audit = append(audit, newAuditEntry(event, models.AuditActionCreate, actor))
	}
	if err := insertAuditEntries(ctx, tx, audit); err != nil {
		return nil, fmt.Errorf("insert event audit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert events: %w", err)
	}
	commit = true
	return inserted, nil
}

func (r *EventRepository) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}

func eventConditions(filter models.EventFilter) (string, []interface{}) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	if filter.GymID != "" {
		args = append(args, filter.GymID)
		conditions = append(conditions, fmt.Sprintf("gym_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, models.NormalizeProgram(filter.Type))
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Range != nil {
		args = append(args, filter.Range.Start, filter.Range.End)
		conditions = append(conditions, fmt.Sprintf("date >= $%d AND date < $%d", len(args)-1, len(args)))
	}
	return strings.Join(conditions, " AND "), args
}

func prepareEvent(event *models.Event, now time.Time) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Type = models.NormalizeProgram(event.Type)
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now
}
