package rules

import (
	"strings"
	"time"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// Evaluate counts a gym's events per tracked type within month and compares them to the
// requirements. Only requirement keys are tracked; other event types are ignored. The
// result depends on nothing but the arguments.
func Evaluate(gymID string, events []models.Event, reqs models.Requirements, rs []models.Rule, month models.MonthRange, asOf time.Time) models.ComplianceReport {
	active := make([]models.Rule, 0, len(rs))
	for _, r := range rs {
		if Active(r, asOf) {
			active = append(active, r)
		}
	}

	actual := make(map[string]int, len(reqs))
	for _, e := range events {
		if e.GymID != gymID || !month.Contains(e.Date) {
			continue
		}
		actual[effectiveProgram(active, e, asOf)]++
	}

	report := models.ComplianceReport{
		GymID:     gymID,
		Month:     month.Key(),
		PerType:   make(map[string]models.TypeCompliance, len(reqs)),
		Compliant: true,
		AsOf:      asOf.Format(models.DateLayout),
	}
	for eventType, required := range reqs {
		key := models.NormalizeProgram(eventType)
		entry := models.TypeCompliance{Required: required, Actual: actual[key]}
		if excused(active, gymID, key, month, asOf) {
			entry.Required = 0
			entry.Excused = true
		}
		if entry.Required < 0 {
			entry.Required = 0
		}
		if missing := entry.Required - entry.Actual; missing > 0 {
			entry.Missing = missing
			report.Compliant = false
		}
		report.PerType[key] = entry
	}
	return report
}

// excused reports whether a requirement_exception zeroes the requirement. A rule value of
// YYYY-MM limits the exception to that month; empty or ALL applies to every month.
func excused(rs []models.Rule, gymID, eventType string, month models.MonthRange, asOf time.Time) bool {
	target := Target{GymID: gymID, Program: eventType}
	for _, r := range Applicable(rs, target, asOf, models.RuleTypeRequirementException) {
		if r.Scope != models.ScopeAllEvents && r.Scope != "" {
			continue
		}
		value := strings.TrimSpace(r.Value)
		if value == "" || strings.EqualFold(value, models.AllSentinel) || value == month.Key() {
			return true
		}
	}
	return false
}
