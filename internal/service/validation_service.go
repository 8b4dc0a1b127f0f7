package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/models"
	"github.com/noah-isme/gym-ops-api/internal/rules"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

// EventRangeReader loads a gym's events for one month.
type EventRangeReader interface {
	ListInRange(ctx context.Context, gymID string, month models.MonthRange) ([]models.Event, error)
}

// RuleLister loads every stored rule.
type RuleLister interface {
	List(ctx context.Context) ([]models.Rule, error)
}

// PriceTableReader loads the base pricing table.
type PriceTableReader interface {
	PriceTable(ctx context.Context) (models.PriceTable, error)
}

// ValidationService reports rule violations for a gym's month.
type ValidationService struct {
	events  EventRangeReader
	rules   RuleLister
	prices  PriceTableReader
	metrics *MetricsService
	logger  *zap.Logger
	now     func() time.Time
}

// NewValidationService constructs a validation service.
func NewValidationService(events EventRangeReader, ruleRepo RuleLister, prices PriceTableReader, metrics *MetricsService, logger *zap.Logger, now func() time.Time) *ValidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &ValidationService{events: events, rules: ruleRepo, prices: prices, metrics: metrics, logger: logger, now: now}
}

// Report validates every event of the gym in the month, including duplicate detection.
func (s *ValidationService) Report(ctx context.Context, gymID, month string) (*models.ValidationReport, error) {
	if gymID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gymId is required")
	}
	period, err := parseMonthOrCurrent(month, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	start := time.Now()
	events, err := s.events.ListInRange(ctx, gymID, period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}
	s.metrics.ObserveDBQuery("validation_events", time.Since(start))
	ruleSet, err := s.rules.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rules")
	}
	prices, err := s.prices.PriceTable(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prices")
	}

	report := rules.NewValidator(ruleSet, prices, s.now()).Report(gymID, period.Key(), events)
	return &report, nil
}

// parseMonthOrCurrent defaults an empty month to the month containing now.
func parseMonthOrCurrent(raw string, now time.Time) (models.MonthRange, error) {
	if raw == "" {
		current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return models.MonthOf(current), nil
	}
	return models.ParseMonth(raw)
}
