package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	"github.com/noah-isme/gym-ops-api/internal/rules"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

// ReferenceRepository exposes gyms, requirements and their administration.
type ReferenceRepository interface {
	ListGyms(ctx context.Context) ([]models.Gym, error)
	Requirements(ctx context.Context) (models.Requirements, error)
	ListRequirements(ctx context.Context) ([]models.Requirement, error)
	UpsertRequirement(ctx context.Context, req models.Requirement) error
}

// ComplianceService evaluates monthly requirements per gym with result caching.
type ComplianceService struct {
	events    EventRangeReader
	rules     RuleLister
	reference ReferenceRepository
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// ComplianceConfig tunes compliance caching.
type ComplianceConfig struct {
	CacheTTL time.Duration
}

// NewComplianceService constructs a compliance service.
func NewComplianceService(events EventRangeReader, ruleRepo RuleLister, reference ReferenceRepository, cache *CacheService, cfg ComplianceConfig, logger *zap.Logger, now func() time.Time) *ComplianceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &ComplianceService{events: events, rules: ruleRepo, reference: reference, cache: cache, cacheTTL: cfg.CacheTTL, logger: logger, now: now}
}

// Overview evaluates every gym for the month.
func (s *ComplianceService) Overview(ctx context.Context, month string) (*dto.ComplianceOverview, error) {
	asOf := s.now()
	period, err := parseMonthOrCurrent(month, asOf)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	gyms, err := s.reference.ListGyms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gyms")
	}
	inputs, err := s.loadInputs(ctx)
	if err != nil {
		return nil, err
	}

	overview := &dto.ComplianceOverview{
		Month:   period.Key(),
		AsOf:    asOf.Format(models.DateLayout),
		Reports: make([]models.ComplianceReport, 0, len(gyms)),
	}
	for _, gym := range gyms {
		report, _, err := s.evaluate(ctx, gym.ID, period, asOf, inputs)
		if err != nil {
			return nil, err
		}
		if report.Compliant {
			overview.CompliantCount++
		} else {
			overview.NonCompliantCount++
		}
		overview.Reports = append(overview.Reports, *report)
	}
	return overview, nil
}

// Gym evaluates one gym for the month. The boolean indicates whether the result came from cache.
func (s *ComplianceService) Gym(ctx context.Context, gymID, month string) (*models.ComplianceReport, bool, error) {
	asOf := s.now()
	period, err := parseMonthOrCurrent(month, asOf)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	gyms, err := s.reference.ListGyms(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gyms")
	}
	if !containsGym(gyms, gymID) {
		return nil, false, appErrors.Clone(appErrors.ErrNotFound, "gym not found")
	}
	inputs, err := s.loadInputs(ctx)
	if err != nil {
		return nil, false, err
	}
	return s.evaluate(ctx, gymID, period, asOf, inputs)
}

// Gyms lists every franchise location.
func (s *ComplianceService) Gyms(ctx context.Context) ([]models.Gym, error) {
	gyms, err := s.reference.ListGyms(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list gyms")
	}
	return gyms, nil
}

// Requirements lists the configured monthly minimums.
func (s *ComplianceService) Requirements(ctx context.Context) ([]models.Requirement, error) {
	items, err := s.reference.ListRequirements(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requirements")
	}
	return items, nil
}

// UpsertRequirement sets the monthly minimum of an event type.
func (s *ComplianceService) UpsertRequirement(ctx context.Context, eventType string, req dto.RequirementRequest) (*models.Requirement, error) {
	normalized := models.NormalizeProgram(eventType)
	if normalized == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event type is required")
	}
	if req.RequiredCount < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "required_count must not be negative")
	}
	item := models.Requirement{EventType: normalized, RequiredCount: req.RequiredCount}
	if err := s.reference.UpsertRequirement(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save requirement")
	}
	s.cache.InvalidateCompliance(ctx)
	return &item, nil
}

type complianceInputs struct {
	rules        []models.Rule
	requirements models.Requirements
}

func (s *ComplianceService) loadInputs(ctx context.Context) (complianceInputs, error) {
	ruleSet, err := s.rules.List(ctx)
	if err != nil {
		return complianceInputs{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rules")
	}
	reqs, err := s.reference.Requirements(ctx)
	if err != nil {
		return complianceInputs{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requirements")
	}
	return complianceInputs{rules: ruleSet, requirements: reqs}, nil
}

func (s *ComplianceService) evaluate(ctx context.Context, gymID string, period models.MonthRange, asOf time.Time, inputs complianceInputs) (*models.ComplianceReport, bool, error) {
	key := complianceCacheKey(gymID, period.Key(), asOf)
	var cached models.ComplianceReport
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	events, err := s.events.ListInRange(ctx, gymID, period)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load events")
	}
	report := rules.Evaluate(gymID, events, inputs.requirements, inputs.rules, period, asOf)
	// set failures are logged by the cache service
	_ = s.cache.Set(ctx, key, report, s.cacheTTL)
	return &report, false, nil
}

func containsGym(gyms []models.Gym, gymID string) bool {
	for _, gym := range gyms {
		if gym.ID == gymID {
			return true
		}
	}
	return false
}
