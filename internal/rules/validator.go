package rules

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/gym-ops-api/internal/models"
)

const priceTolerance = 0.005

// Validator checks events against a snapshot of rules and base prices. It is safe for
// concurrent use once built because it never mutates its inputs.
type Validator struct {
	rules  []models.Rule
	prices models.PriceTable
	asOf   time.Time
}

// NewValidator snapshots the rules active on asOf.
func NewValidator(rs []models.Rule, prices models.PriceTable, asOf time.Time) *Validator {
	active := make([]models.Rule, 0, len(rs))
	for _, r := range rs {
		if Active(r, asOf) {
			active = append(active, r)
		}
	}
	if prices == nil {
		prices = models.PriceTable{}
	}
	return &Validator{rules: active, prices: prices, asOf: asOf}
}

// Validate is the functional form of Validator.Validate.
func Validate(e models.Event, rs []models.Rule, prices models.PriceTable, asOf time.Time) []models.Violation {
	return NewValidator(rs, prices, asOf).Validate(e)
}

// EffectiveProgram resolves the program an event counts as after synonym rewriting.
func (v *Validator) EffectiveProgram(e models.Event) string {
	return effectiveProgram(v.rules, e, v.asOf)
}

// Validate returns the violations left after exception suppression.
func (v *Validator) Validate(e models.Event) []models.Violation {
	return v.Suppress(e, v.Detect(e))
}

// Detect runs the raw checks without applying exception rules.
func (v *Validator) Detect(e models.Event) []models.Violation {
	target := v.target(e)
	violations := make([]models.Violation, 0, 2)

	if violation, ok := v.checkPrice(e, target); !ok {
		violations = append(violations, violation)
	}
	if violation, ok := v.checkTime(e, target); !ok {
		violations = append(violations, violation)
	}
	if e.SoldOut {
		violations = append(violations, models.Violation{
			Type:     models.ViolationSoldOut,
			Category: models.CategoryFormatting,
			Message:  "event is marked sold out",
		})
	}
	return violations
}

// Suppress drops violations covered by a matching exception rule. An exception whose value
// is empty or ALL silences every violation; otherwise the value lists violation types.
func (v *Validator) Suppress(e models.Event, violations []models.Violation) []models.Violation {
	if len(violations) == 0 {
		return violations
	}
	exceptions := Applicable(v.rules, v.target(e), v.asOf, models.RuleTypeException)
	if len(exceptions) == 0 {
		return violations
	}

	suppressAll := false
	suppressed := map[models.ViolationType]struct{}{}
	for _, r := range exceptions {
		value := strings.TrimSpace(r.Value)
		if value == "" || strings.EqualFold(value, models.AllSentinel) {
			suppressAll = true
			break
		}
		for _, part := range strings.Split(value, ",") {
			suppressed[models.ViolationType(strings.ToLower(strings.TrimSpace(part)))] = struct{}{}
		}
	}
	if suppressAll {
		return []models.Violation{}
	}

	kept := make([]models.Violation, 0, len(violations))
	for _, violation := range violations {
		if _, ok := suppressed[violation.Type]; ok {
			continue
		}
		kept = append(kept, violation)
	}
	return kept
}

// ValidateAll validates every event and flags repeats of the same gym, date, time and
// effective program. The first occurrence in input order is kept clean.
func (v *Validator) ValidateAll(events []models.Event) []models.EventValidation {
	results := make([]models.EventValidation, 0, len(events))
	seen := make(map[string]string, len(events))
	for _, e := range events {
		violations := v.Detect(e)
		key := strings.Join([]string{
			e.GymID,
			e.DateKey(),
			normalizeTime(e.Time),
			models.NormalizeProgram(v.EffectiveProgram(e)),
		}, "|")
		if firstID, dup := seen[key]; dup {
			violations = append(violations, models.Violation{
				Type:     models.ViolationDuplicate,
				Category: models.CategoryDataError,
				Message:  fmt.Sprintf("duplicates event %s on the same date and time", firstID),
			})
		} else {
			seen[key] = e.ID
		}
		results = append(results, models.EventValidation{Event: e, Violations: v.Suppress(e, violations)})
	}
	return results
}

// Report validates events and tallies data errors separately from formatting notices.
func (v *Validator) Report(gymID, month string, events []models.Event) models.ValidationReport {
	report := models.ValidationReport{GymID: gymID, Month: month, Events: v.ValidateAll(events)}
	for _, item := range report.Events {
		for _, violation := range item.Violations {
			if violation.Category == models.CategoryDataError {
				report.DataErrorCount++
			} else {
				report.FormattingCount++
			}
		}
	}
	return report
}

// ApprovedPrices lists the prices an event may carry, sorted ascending.
func (v *Validator) ApprovedPrices(e models.Event) []float64 {
	return v.approvedPrices(e, v.target(e))
}

func (v *Validator) target(e models.Event) Target {
	t := TargetOf(e)
	t.Program = v.EffectiveProgram(e)
	return t
}

func (v *Validator) checkPrice(e models.Event, t Target) (models.Violation, bool) {
	if e.Price == nil {
		return models.Violation{}, true
	}
	approved := v.approvedPrices(e, t)
	for _, price := range approved {
		if math.Abs(price-*e.Price) < priceTolerance {
			return models.Violation{}, true
		}
	}

	message := fmt.Sprintf("price %s has no approved price configured for %s at %s", formatPrice(*e.Price), t.Program, e.GymID)
	if len(approved) > 0 {
		labels := make([]string, 0, len(approved))
		for _, price := range approved {
			labels = append(labels, formatPrice(price))
		}
		message = fmt.Sprintf("price %s does not match approved prices %s", formatPrice(*e.Price), strings.Join(labels, ", "))
	}
	return models.Violation{
		Type:     models.ViolationPriceMismatch,
		Category: models.CategoryDataError,
		Message:  message,
	}, false
}

func (v *Validator) approvedPrices(e models.Event, t Target) []float64 {
	set := map[float64]struct{}{}
	// Each price rule type resolves to its own winner; the approved set is their union.
	for _, ruleType := range []models.RuleType{models.RuleTypeValidPrice, models.RuleTypeSiblingPrice} {
		winner, ok := Winner(v.rules, t, v.asOf, ruleType)
		if !ok {
			continue
		}
		for _, raw := range ruleValues(winner) {
			if price, ok := parsePrice(raw); ok {
				set[price] = struct{}{}
			}
		}
	}
	if base, ok := v.prices[models.PriceKey{GymID: e.GymID, Program: models.NormalizeProgram(t.Program)}]; ok {
		set[base] = struct{}{}
	}

	prices := make([]float64, 0, len(set))
	for price := range set {
		prices = append(prices, price)
	}
	sort.Float64s(prices)
	return prices
}

func (v *Validator) checkTime(e models.Event, t Target) (models.Violation, bool) {
	winner, ok := Winner(v.rules, t, v.asOf, models.RuleTypeValidTime)
	if !ok {
		return models.Violation{}, true
	}
	actual := normalizeTime(e.Time)
	if actual != "" && normalizeTime(winner.Value) == actual {
		return models.Violation{}, true
	}
	return models.Violation{
		Type:     models.ViolationTimeMismatch,
		Category: models.CategoryDataError,
		Message:  fmt.Sprintf("time %q does not match approved time %s", e.Time, strings.TrimSpace(winner.Value)),
	}, false
}

// effectiveProgram applies the most specific matching synonym rule to the stored type.
func effectiveProgram(rs []models.Rule, e models.Event, asOf time.Time) string {
	target := TargetOf(e)
	if winner, ok := Winner(rs, target, asOf, models.RuleTypeProgramSynonym); ok && strings.TrimSpace(winner.Program) != "" {
		return models.NormalizeProgram(winner.Program)
	}
	return models.NormalizeProgram(e.Type)
}

func ruleValues(r models.Rule) []string {
	values := strings.Split(r.Value, ",")
	if r.ValueKid2 != nil {
		values = append(values, *r.ValueKid2)
	}
	if r.ValueKid3 != nil {
		values = append(values, *r.ValueKid3)
	}
	return values
}

func parsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "$"))
	if raw == "" {
		return 0, false
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}

func formatPrice(price float64) string {
	return "$" + strconv.FormatFloat(price, 'f', 2, 64)
}

// normalizeTime folds case, whitespace and dash variants so "9:00 AM – 12:00 PM" equals "9:00am-12:00pm".
func normalizeTime(raw string) string {
	replacer := strings.NewReplacer("–", "-", "—", "-", " ", "", "\t", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(raw)))
}
