package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// ReferenceRepository serves the slowly changing reference tables: gyms, portal accounts,
// monthly requirements and base prices.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository constructs a ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListGyms returns all gyms ordered by id.
func (r *ReferenceRepository) ListGyms(ctx context.Context) ([]models.Gym, error) {
	var gyms []models.Gym
	if err := r.db.SelectContext(ctx, &gyms, `SELECT id, name FROM gyms ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list gyms: %w", err)
	}
	return gyms, nil
}

// ListSourceAccounts returns the portal account to gym mapping.
func (r *ReferenceRepository) ListSourceAccounts(ctx context.Context) ([]models.SourceAccount, error) {
	var accounts []models.SourceAccount
	if err := r.db.SelectContext(ctx, &accounts, `SELECT source_id, location_id, gym_id FROM source_accounts ORDER BY source_id ASC, location_id ASC`); err != nil {
		return nil, fmt.Errorf("list source accounts: %w", err)
	}
	return accounts, nil
}

// Requirements returns the monthly minimum per event type.
func (r *ReferenceRepository) Requirements(ctx context.Context) (models.Requirements, error) {
	rows, err := r.ListRequirements(ctx)
	if err != nil {
		return nil, err
	}
	reqs := make(models.Requirements, len(rows))
	for _, row := range rows {
		reqs[models.NormalizeProgram(row.EventType)] = row.RequiredCount
	}
	return reqs, nil
}

// ListRequirements returns the raw requirement rows.
func (r *ReferenceRepository) ListRequirements(ctx context.Context) ([]models.Requirement, error) {
	var rows []models.Requirement
	if err := r.db.SelectContext(ctx, &rows, `SELECT event_type, required_count FROM monthly_requirements ORDER BY event_type ASC`); err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return rows, nil
}

// UpsertRequirement sets the monthly minimum for an event type.
func (r *ReferenceRepository) UpsertRequirement(ctx context.Context, req models.Requirement) error {
	const query = `INSERT INTO monthly_requirements (event_type, required_count) VALUES (:event_type, :required_count)
ON CONFLICT (event_type) DO UPDATE SET required_count = EXCLUDED.required_count`
	req.EventType = models.NormalizeProgram(req.EventType)
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("upsert requirement: %w", err)
	}
	return nil
}

// PriceTable returns base prices keyed by gym and program.
func (r *ReferenceRepository) PriceTable(ctx context.Context) (models.PriceTable, error) {
	var rows []models.ProgramPrice
	if err := r.db.SelectContext(ctx, &rows, `SELECT gym_id, program, price FROM program_prices`); err != nil {
		return nil, fmt.Errorf("list program prices: %w", err)
	}
	table := make(models.PriceTable, len(rows))
	for _, row := range rows {
		table[models.PriceKey{GymID: row.GymID, Program: models.NormalizeProgram(row.Program)}] = row.Price
	}
	return table, nil
}
