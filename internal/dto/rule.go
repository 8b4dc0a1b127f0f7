package dto

// RuleRequest is the payload for creating or replacing a validation rule.
type RuleRequest struct {
	RuleType    string   `json:"rule_type" validate:"required,oneof=valid_price sibling_price valid_time program_synonym requirement_exception exception"`
	GymIDs      []string `json:"gym_ids" validate:"required,min=1,dive,required"`
	Program     string   `json:"program" validate:"required"`
	Scope       string   `json:"scope" validate:"required,oneof=all_events keyword single_event"`
	Keyword     *string  `json:"keyword,omitempty"`
	EventID     *string  `json:"event_id,omitempty"`
	Value       string   `json:"value" validate:"max=255"`
	ValueKid2   *string  `json:"value_kid2,omitempty"`
	ValueKid3   *string  `json:"value_kid3,omitempty"`
	IsPermanent bool     `json:"is_permanent"`
	EndDate     *string  `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Label       string   `json:"label" validate:"required,max=255"`
	Note        *string  `json:"note,omitempty"`
}

// RequirementRequest sets the monthly minimum for an event type.
type RequirementRequest struct {
	RequiredCount int `json:"required_count" validate:"gte=0,lte=100"`
}
