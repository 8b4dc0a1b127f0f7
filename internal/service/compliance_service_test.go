package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-ops-api/internal/dto"
	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

func complianceFixture() (*eventStoreStub, *ruleRepoStub, *referenceStub) {
	store := newEventStore(
		fixtureEvent("e1", "CCP", models.ProgramKidsNightOut, 14, pricePtr(35)),
		fixtureEvent("e2", "CCP", models.ProgramClinic, 8, pricePtr(25)),
		fixtureEvent("e3", "EST", models.ProgramClinic, 9, pricePtr(25)),
		fixtureEvent("e4", "EST", models.ProgramKidsNightOut, 2, pricePtr(35)),
	)
	// e4 falls in February
	e4 := store.events["e4"]
	e4.Date = time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	store.events["e4"] = e4

	reference := &referenceStub{
		gyms: []models.Gym{{ID: "CCP", Name: "Capital Gymnastics Cedar Park"}, {ID: "EST", Name: "Estrella"}},
		requirements: models.Requirements{
			models.ProgramKidsNightOut: 1,
			models.ProgramClinic:       1,
		},
	}
	return store, &ruleRepoStub{}, reference
}

func TestComplianceServiceOverview(t *testing.T) {
	store, rules, reference := complianceFixture()
	svc := NewComplianceService(store, rules, reference, nil, ComplianceConfig{}, nil, fixedClock)

	overview, err := svc.Overview(context.Background(), "2025-03")
	require.NoError(t, err)
	assert.Equal(t, "2025-03", overview.Month)
	assert.Equal(t, "2025-03-15", overview.AsOf)
	assert.Equal(t, 1, overview.CompliantCount)
	assert.Equal(t, 1, overview.NonCompliantCount)
	require.Len(t, overview.Reports, 2)

	est := overview.Reports[1]
	assert.Equal(t, "EST", est.GymID)
	assert.False(t, est.Compliant)
	assert.Equal(t, models.TypeCompliance{Required: 1, Actual: 0, Missing: 1}, est.PerType[models.ProgramKidsNightOut])
}

func TestComplianceServiceExcusedRequirement(t *testing.T) {
	store, rules, reference := complianceFixture()
	exception := fixtureRule("rx", models.RuleTypeRequirementException, []string{"EST"}, models.ProgramKidsNightOut, "2025-03")
	rules.rules = []models.Rule{exception}
	svc := NewComplianceService(store, rules, reference, nil, ComplianceConfig{}, nil, fixedClock)

	report, _, err := svc.Gym(context.Background(), "EST", "2025-03")
	require.NoError(t, err)
	assert.True(t, report.Compliant)
	assert.True(t, report.PerType[models.ProgramKidsNightOut].Excused)

	april, _, err := svc.Gym(context.Background(), "EST", "2025-04")
	require.NoError(t, err)
	assert.False(t, april.Compliant)
}

func TestComplianceServiceServesFromCache(t *testing.T) {
	store, rules, reference := complianceFixture()
	cache := newMemoryCache()
	svc := NewComplianceService(store, rules, reference, NewCacheService(cache, nil, time.Minute, nil, true), ComplianceConfig{CacheTTL: time.Minute}, nil, fixedClock)

	first, hit, err := svc.Gym(context.Background(), "CCP", "2025-03")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"compliance:CCP:2025-03:2025-03-15"}, cache.keys())

	store.err = errors.New("db down")
	second, hit, err := svc.Gym(context.Background(), "CCP", "2025-03")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
}

func TestComplianceServiceUnknownGym(t *testing.T) {
	store, rules, reference := complianceFixture()
	svc := NewComplianceService(store, rules, reference, nil, ComplianceConfig{}, nil, fixedClock)

	_, _, err := svc.Gym(context.Background(), "NOPE", "2025-03")
	assert.Equal(t, appErrors.ErrNotFound.Code, errorCode(err))
}

func TestComplianceServiceRejectsBadMonth(t *testing.T) {
	store, rules, reference := complianceFixture()
	svc := NewComplianceService(store, rules, reference, nil, ComplianceConfig{}, nil, fixedClock)

	_, err := svc.Overview(context.Background(), "March")
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}

func TestComplianceServiceDefaultsToCurrentMonth(t *testing.T) {
	store, rules, reference := complianceFixture()
	svc := NewComplianceService(store, rules, reference, nil, ComplianceConfig{}, nil, fixedClock)

	overview, err := svc.Overview(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "2025-03", overview.Month)
}

func TestComplianceServiceUpsertRequirement(t *testing.T) {
	store, rules, reference := complianceFixture()
	cache := newMemoryCache()
	_ = cache.Set(context.Background(), "compliance:CCP:2025-03:2025-03-15", "cached", time.Minute)
	svc := NewComplianceService(store, rules, reference, NewCacheService(cache, nil, time.Minute, nil, true), ComplianceConfig{}, nil, fixedClock)

	item, err := svc.UpsertRequirement(context.Background(), "open  gym", dto.RequirementRequest{RequiredCount: 2})
	require.NoError(t, err)
	assert.Equal(t, models.ProgramOpenGym, item.EventType)
	assert.Equal(t, 2, reference.requirements[models.ProgramOpenGym])
	assert.Empty(t, cache.keys())

	items, err := svc.Requirements(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)

	_, err = svc.UpsertRequirement(context.Background(), " ", dto.RequirementRequest{RequiredCount: 1})
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}
