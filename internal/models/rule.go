package models

import (
	"time"

	"github.com/lib/pq"
)

// RuleType selects what a rule validates or excuses.
type RuleType string

const (
	RuleTypeValidPrice           RuleType = "valid_price"
	RuleTypeSiblingPrice         RuleType = "sibling_price"
	RuleTypeValidTime            RuleType = "valid_time"
	RuleTypeProgramSynonym       RuleType = "program_synonym"
	RuleTypeRequirementException RuleType = "requirement_exception"
	RuleTypeException            RuleType = "exception"
)

// RuleScope is the breadth of a rule's applicability.
type RuleScope string

const (
	ScopeAllEvents   RuleScope = "all_events"
	ScopeKeyword     RuleScope = "keyword"
	ScopeSingleEvent RuleScope = "single_event"
)

// AllSentinel matches every gym or program.
const AllSentinel = "ALL"

// Rule is a configurable validation constraint. Expiry is derived from EndDate, never stored.
type Rule struct {
	ID          string         `db:"id" json:"id"`
	RuleType    RuleType       `db:"rule_type" json:"rule_type"`
	GymIDs      pq.StringArray `db:"gym_ids" json:"gym_ids"`
	Program     string         `db:"program" json:"program"`
	Scope       RuleScope      `db:"scope" json:"scope"`
	Keyword     *string        `db:"keyword" json:"keyword,omitempty"`
	EventID     *string        `db:"event_id" json:"event_id,omitempty"`
	Value       string         `db:"value" json:"value"`
	ValueKid2   *string        `db:"value_kid2" json:"value_kid2,omitempty"`
	ValueKid3   *string        `db:"value_kid3" json:"value_kid3,omitempty"`
	IsPermanent bool           `db:"is_permanent" json:"is_permanent"`
	EndDate     *time.Time     `db:"end_date" json:"end_date,omitempty"`
	Label       string         `db:"label" json:"label"`
	Note        *string        `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// RuleView decorates a rule with its derived expiry for listings.
type RuleView struct {
	Rule
	Expired bool `json:"expired"`
}
