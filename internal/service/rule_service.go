package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	"github.com/noah-isme/gym-ops-api/internal/rules"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

// RuleRepository abstracts rule persistence.
type RuleRepository interface {
	List(ctx context.Context) ([]models.Rule, error)
	FindByID(ctx context.Context, id string) (*models.Rule, error)
	Create(ctx context.Context, rule *models.Rule) error
	Update(ctx context.Context, rule *models.Rule) error
	Delete(ctx context.Context, id string) error
}

// RuleService administers validation rules.
type RuleService struct {
	repo      RuleRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRuleService constructs a rule service. now supplies the evaluation clock for expiry.
func NewRuleService(repo RuleRepository, cache *CacheService, v *validator.Validate, logger *zap.Logger, now func() time.Time) *RuleService {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &RuleService{repo: repo, cache: cache, validator: v, logger: logger, now: now}
}

// List returns rules decorated with their expiry as of today. Expired rules are omitted unless
// includeExpired is set.
func (s *RuleService) List(ctx context.Context, includeExpired bool) ([]models.RuleView, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	asOf := s.now()
	views := make([]models.RuleView, 0, len(items))
	for _, rule := range items {
		expired := !rules.Active(rule, asOf)
		if expired && !includeExpired {
			continue
		}
		views = append(views, models.RuleView{Rule: rule, Expired: expired})
	}
	return views, nil
}

// Active returns the rules in force today.
func (s *RuleService) Active(ctx context.Context) ([]models.Rule, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rules")
	}
	asOf := s.now()
	active := make([]models.Rule, 0, len(items))
	for _, rule := range items {
		if rules.Active(rule, asOf) {
			active = append(active, rule)
		}
	}
	return active, nil
}

// Create validates and stores a rule.
func (s *RuleService) Create(ctx context.Context, req dto.RuleRequest) (*models.Rule, error) {
	rule, err := s.ruleFromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &rule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rule")
	}
	s.cache.InvalidateCompliance(ctx)
	s.logger.Info("rule created", zap.String("rule_id", rule.ID), zap.String("rule_type", string(rule.RuleType)))
	return &rule, nil
}

// Update replaces a rule.
func (s *RuleService) Update(ctx context.Context, id string, req dto.RuleRequest) (*models.Rule, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rule")
	}
	rule, err := s.ruleFromRequest(req)
	if err != nil {
		return nil, err
	}
	rule.ID = existing.ID
	rule.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, &rule); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rule")
	}
	s.cache.InvalidateCompliance(ctx)
	return &rule, nil
}

// Delete removes a rule.
func (s *RuleService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "rule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete rule")
	}
	s.cache.InvalidateCompliance(ctx)
	return nil
}

func (s *RuleService) ruleFromRequest(req dto.RuleRequest) (models.Rule, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Rule{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rule payload")
	}
	rule := models.Rule{
		RuleType:    models.RuleType(req.RuleType),
		GymIDs:      normalizeGymIDs(req.GymIDs),
		Program:     normalizeRuleProgram(req.Program),
		Scope:       models.RuleScope(req.Scope),
		Keyword:     trimmedOrNil(req.Keyword),
		EventID:     trimmedOrNil(req.EventID),
		Value:       strings.TrimSpace(req.Value),
		ValueKid2:   trimmedOrNil(req.ValueKid2),
		ValueKid3:   trimmedOrNil(req.ValueKid3),
		IsPermanent: req.IsPermanent,
		Label:       strings.TrimSpace(req.Label),
		Note:        trimmedOrNil(req.Note),
	}
	switch rule.Scope {
	case models.ScopeKeyword:
		if rule.Keyword == nil {
			return models.Rule{}, appErrors.Clone(appErrors.ErrValidation, "keyword is required for keyword scope")
		}
	case models.ScopeSingleEvent:
		if rule.EventID == nil {
			return models.Rule{}, appErrors.Clone(appErrors.ErrValidation, "event_id is required for single_event scope")
		}
	}
	if !rule.IsPermanent {
		if req.EndDate == nil {
			return models.Rule{}, appErrors.Clone(appErrors.ErrValidation, "end_date is required unless the rule is permanent")
		}
		end, err := time.Parse(models.DateLayout, *req.EndDate)
		if err != nil {
			return models.Rule{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
		}
		rule.EndDate = &end
	}
	if err := checkRuleValue(rule); err != nil {
		return models.Rule{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	return rule, nil
}

func checkRuleValue(rule models.Rule) error {
	switch rule.RuleType {
	case models.RuleTypeValidPrice, models.RuleTypeSiblingPrice, models.RuleTypeValidTime, models.RuleTypeProgramSynonym:
		if rule.Value == "" {
			return fmt.Errorf("value is required for %s rules", rule.RuleType)
		}
	case models.RuleTypeRequirementException:
		// Requirements are counted per event type, so there is no title to match a season or
		// keyword against.
		if strings.Contains(rule.Program, ":") {
			return errors.New("requirement_exception rules cannot target a program season")
		}
		if rule.Scope != models.ScopeAllEvents {
			return errors.New("requirement_exception rules must use all_events scope")
		}
		if rule.Value != "" && !strings.EqualFold(rule.Value, models.AllSentinel) {
			if _, err := time.Parse(models.MonthLayout, rule.Value); err != nil {
				return errors.New("requirement_exception value must be YYYY-MM or ALL")
			}
		}
	}
	return nil
}

func normalizeGymIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if strings.EqualFold(id, models.AllSentinel) {
			return []string{models.AllSentinel}
		}
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func normalizeRuleProgram(program string) string {
	program = strings.TrimSpace(program)
	if strings.EqualFold(program, models.AllSentinel) {
		return models.AllSentinel
	}
	return program
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
