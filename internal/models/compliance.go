package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for event dates.
const DateLayout = "2006-01-02"

// MonthLayout is the wire format for compliance periods.
const MonthLayout = "2006-01"

// MonthRange is a half-open [Start, End) calendar month.
type MonthRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthOf returns the calendar month containing t, in t's location.
func MonthOf(t time.Time) MonthRange {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return MonthRange{Start: start, End: start.AddDate(0, 1, 0)}
}

// ParseMonth parses YYYY-MM into a month range in UTC.
func ParseMonth(raw string) (MonthRange, error) {
	t, err := time.Parse(MonthLayout, raw)
	if err != nil {
		return MonthRange{}, fmt.Errorf("invalid month %q, expected YYYY-MM", raw)
	}
	return MonthOf(t), nil
}

// Contains reports whether t falls inside the range.
func (m MonthRange) Contains(t time.Time) bool {
	return !t.Before(m.Start) && t.Before(m.End)
}

// Key renders the range as YYYY-MM.
func (m MonthRange) Key() string {
	return m.Start.Format(MonthLayout)
}

// Requirements maps event type to the minimum count required per calendar month.
type Requirements map[string]int

// Requirement is one persisted row of the requirements table.
type Requirement struct {
	EventType     string `db:"event_type" json:"event_type"`
	RequiredCount int    `db:"required_count" json:"required_count"`
}

// TypeCompliance is the evaluation of one tracked type.
type TypeCompliance struct {
	Required int  `json:"required"`
	Actual   int  `json:"actual"`
	Missing  int  `json:"missing"`
	Excused  bool `json:"excused,omitempty"`
}

// ComplianceReport is the evaluation of one gym for one month.
type ComplianceReport struct {
	GymID     string                    `json:"gym_id"`
	Month     string                    `json:"month"`
	PerType   map[string]TypeCompliance `json:"per_type"`
	Compliant bool                      `json:"compliant"`
	AsOf      string                    `json:"as_of"`
}

// PriceKey identifies a base price entry.
type PriceKey struct {
	GymID   string
	Program string
}

// PriceTable holds base prices per gym and program.
type PriceTable map[PriceKey]float64

// ProgramPrice is one persisted row of the base pricing table.
type ProgramPrice struct {
	GymID   string  `db:"gym_id" json:"gym_id"`
	Program string  `db:"program" json:"program"`
	Price   float64 `db:"price" json:"price"`
}
