package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

const ruleColumns = `id, rule_type, gym_ids, program, scope, keyword, event_id, value, value_kid2, value_kid3, is_permanent, end_date, label, note, created_at, updated_at`

// RuleRepository persists validation rules.
type RuleRepository struct {
	db *sqlx.DB
}

// NewRuleRepository constructs a RuleRepository.
func NewRuleRepository(db *sqlx.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

// List returns every rule, newest first. Expiry is evaluated by callers.
func (r *RuleRepository) List(ctx context.Context) ([]models.Rule, error) {
	query := fmt.Sprintf("SELECT %s FROM rules ORDER BY created_at DESC, id DESC", ruleColumns)
	var rules []models.Rule
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return rules, nil
}

// FindByID fetches a rule.
func (r *RuleRepository) FindByID(ctx context.Context, id string) (*models.Rule, error) {
	query := fmt.Sprintf("SELECT %s FROM rules WHERE id = $1", ruleColumns)
	var rule models.Rule
	if err := r.db.GetContext(ctx, &rule, query, id); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Create inserts a rule.
func (r *RuleRepository) Create(ctx context.Context, rule *models.Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	const query = `INSERT INTO rules (id, rule_type, gym_ids, program, scope, keyword, event_id, value, value_kid2, value_kid3, is_permanent, end_date, label, note, created_at, updated_at)
VALUES (:id, :rule_type, :gym_ids, :program, :scope, :keyword, :event_id, :value, :value_kid2, :value_kid3, :is_permanent, :end_date, :label, :note, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

// Update overwrites a rule's mutable fields.
func (r *RuleRepository) Update(ctx context.Context, rule *models.Rule) error {
	rule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rules SET rule_type = :rule_type, gym_ids = :gym_ids, program = :program, scope = :scope, keyword = :keyword,
event_id = :event_id, value = :value, value_kid2 = :value_kid2, value_kid3 = :value_kid3, is_permanent = :is_permanent,
end_date = :end_date, label = :label, note = :note, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, rule)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a rule.
func (r *RuleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
