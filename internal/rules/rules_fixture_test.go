package rules

import (
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

var (
	fixtureAsOf = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	fixtureBase = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func strPtr(v string) *string { return &v }

func pricePtr(v float64) *float64 { return &v }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func newRule(id string, ruleType models.RuleType, gymIDs []string, program string, scope models.RuleScope, value string) models.Rule {
	return models.Rule{
		ID:          id,
		RuleType:    ruleType,
		GymIDs:      pq.StringArray(gymIDs),
		Program:     program,
		Scope:       scope,
		Value:       value,
		IsPermanent: true,
		Label:       id,
		CreatedAt:   fixtureBase,
		UpdatedAt:   fixtureBase,
	}
}

func keywordRule(id string, ruleType models.RuleType, gymIDs []string, program, keyword, value string) models.Rule {
	r := newRule(id, ruleType, gymIDs, program, models.ScopeKeyword, value)
	r.Keyword = strPtr(keyword)
	return r
}

func singleEventRule(id string, ruleType models.RuleType, gymIDs []string, program, eventID, value string) models.Rule {
	r := newRule(id, ruleType, gymIDs, program, models.ScopeSingleEvent, value)
	r.EventID = strPtr(eventID)
	return r
}

func newEvent(id, gymID, program, title string, day int, clock string, price *float64) models.Event {
	return models.Event{
		ID:        id,
		GymID:     gymID,
		Type:      program,
		Title:     title,
		Date:      time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		Time:      clock,
		Price:     price,
		SourceURL: "https://portal.example.com/e/" + id,
	}
}
