package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-ops-api/internal/models"
	appErrors "github.com/noah-isme/gym-ops-api/pkg/errors"
)

func TestValidationServiceReport(t *testing.T) {
	mismatch := fixtureEvent("e1", "CCP", models.ProgramKidsNightOut, 14, pricePtr(30))
	clean := fixtureEvent("e2", "CCP", models.ProgramClinic, 8, pricePtr(25))
	soldOut := fixtureEvent("e3", "CCP", models.ProgramClinic, 22, pricePtr(25))
	soldOut.SoldOut = true
	store := newEventStore(mismatch, clean, soldOut)
	reference := &referenceStub{prices: models.PriceTable{
		{GymID: "CCP", Program: models.ProgramClinic}: 25,
	}}
	rules := &ruleRepoStub{rules: []models.Rule{
		fixtureRule("r1", models.RuleTypeValidPrice, []string{"ALL"}, models.ProgramKidsNightOut, "35,40"),
	}}
	svc := NewValidationService(store, rules, reference, nil, nil, fixedClock)

	report, err := svc.Report(context.Background(), "CCP", "2025-03")
	require.NoError(t, err)
	assert.Equal(t, "2025-03", report.Month)
	require.Len(t, report.Events, 3)
	assert.Equal(t, 1, report.DataErrorCount)
	assert.Equal(t, 1, report.FormattingCount)

	byID := map[string][]models.Violation{}
	for _, item := range report.Events {
		byID[item.Event.ID] = item.Violations
	}
	require.Len(t, byID["e1"], 1)
	assert.Equal(t, models.ViolationPriceMismatch, byID["e1"][0].Type)
	assert.Contains(t, byID["e1"][0].Message, "$35.00, $40.00")
	assert.Empty(t, byID["e2"])
	require.Len(t, byID["e3"], 1)
	assert.Equal(t, models.ViolationSoldOut, byID["e3"][0].Type)
}

func TestValidationServiceRequiresGym(t *testing.T) {
	svc := NewValidationService(newEventStore(), &ruleRepoStub{}, &referenceStub{}, nil, nil, fixedClock)
	_, err := svc.Report(context.Background(), "", "2025-03")
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))

	_, err = svc.Report(context.Background(), "CCP", "2025/03")
	assert.Equal(t, appErrors.ErrValidation.Code, errorCode(err))
}
