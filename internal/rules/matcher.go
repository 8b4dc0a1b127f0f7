// Package rules holds the pure compliance core: rule matching, event validation and
// monthly compliance evaluation. Nothing here performs I/O or keeps state between calls.
package rules

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

// Target is what a rule is matched against. Program is the effective program after
// synonym rewriting.
type Target struct {
	EventID string
	GymID   string
	Program string
	Title   string
}

// TargetOf builds a target from an event using its stored type.
func TargetOf(e models.Event) Target {
	return Target{EventID: e.ID, GymID: e.GymID, Program: e.Type, Title: e.Title}
}

// Specificity ranks a scope. Higher wins when rules of the same type collide.
func Specificity(scope models.RuleScope) int {
	switch scope {
	case models.ScopeSingleEvent:
		return 3
	case models.ScopeKeyword:
		return 2
	case models.ScopeAllEvents:
		return 1
	default:
		return 0
	}
}

// Active reports whether the rule is in force on asOf's calendar day. A non-permanent rule
// without an end date cannot be shown to be unexpired and is never active.
func Active(r models.Rule, asOf time.Time) bool {
	if r.IsPermanent {
		return true
	}
	if r.EndDate == nil {
		return false
	}
	return dayNumber(asOf) <= dayNumber(*r.EndDate)
}

// Matches decides whether rule applies to event on asOf.
func Matches(r models.Rule, e models.Event, asOf time.Time) bool {
	return MatchTarget(r, TargetOf(e), asOf)
}

// MatchTarget applies the location, program, scope and temporal filters.
func MatchTarget(r models.Rule, t Target, asOf time.Time) bool {
	if !Active(r, asOf) {
		return false
	}
	if !matchesLocation(r.GymIDs, t.GymID) {
		return false
	}
	if r.RuleType == models.RuleTypeProgramSynonym {
		if !containsFold(t.Title, r.Value) {
			return false
		}
	} else if !matchesProgram(r.Program, t) {
		return false
	}
	return matchesScope(r, t)
}

// Rank returns a copy of rs ordered most specific first. Equal scopes put the most recently
// created rule first; the id settles exact timestamp ties so ordering is total.
func Rank(rs []models.Rule) []models.Rule {
	ranked := make([]models.Rule, len(rs))
	copy(ranked, rs)
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := Specificity(ranked[i].Scope), Specificity(ranked[j].Scope)
		if si != sj {
			return si > sj
		}
		if !ranked[i].CreatedAt.Equal(ranked[j].CreatedAt) {
			return ranked[i].CreatedAt.After(ranked[j].CreatedAt)
		}
		return ranked[i].ID > ranked[j].ID
	})
	return ranked
}

// Applicable returns the rules of the given types matching t, ranked.
func Applicable(rs []models.Rule, t Target, asOf time.Time, types ...models.RuleType) []models.Rule {
	matched := make([]models.Rule, 0, len(rs))
	for _, r := range rs {
		if !hasType(types, r.RuleType) {
			continue
		}
		if MatchTarget(r, t, asOf) {
			matched = append(matched, r)
		}
	}
	return Rank(matched)
}

// Winner picks the single governing rule of the given types, if any.
func Winner(rs []models.Rule, t Target, asOf time.Time, types ...models.RuleType) (models.Rule, bool) {
	ranked := Applicable(rs, t, asOf, types...)
	if len(ranked) == 0 {
		return models.Rule{}, false
	}
	return ranked[0], true
}

func matchesLocation(gymIDs []string, gymID string) bool {
	for _, id := range gymIDs {
		if strings.EqualFold(id, models.AllSentinel) || id == gymID {
			return true
		}
	}
	return false
}

// matchesProgram accepts "ALL", a plain program, or "PROGRAM:season" where the season must
// appear in the title (camp seasons share the CAMP type).
func matchesProgram(program string, t Target) bool {
	program = strings.TrimSpace(program)
	if program == "" || strings.EqualFold(program, models.AllSentinel) {
		return true
	}
	base, season, hasSeason := strings.Cut(program, ":")
	if models.NormalizeProgram(base) != models.NormalizeProgram(t.Program) {
		return false
	}
	if hasSeason {
		return containsFold(t.Title, season)
	}
	return true
}

func matchesScope(r models.Rule, t Target) bool {
	switch r.Scope {
	case models.ScopeAllEvents, "":
		return true
	case models.ScopeKeyword:
		return r.Keyword != nil && containsFold(t.Title, *r.Keyword)
	case models.ScopeSingleEvent:
		return r.EventID != nil && t.EventID != "" && *r.EventID == t.EventID
	default:
		return false
	}
}

func containsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func hasType(types []models.RuleType, t models.RuleType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
