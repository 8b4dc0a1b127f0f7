package models

// ViolationType names a detected invariant breach.
type ViolationType string

const (
	ViolationPriceMismatch ViolationType = "event_price_mismatch"
	ViolationTimeMismatch  ViolationType = "event_time_mismatch"
	ViolationDuplicate     ViolationType = "duplicate_event"
	ViolationSoldOut       ViolationType = "sold_out"
)

// ViolationCategory groups violations for reporting. Only data errors count toward admin alerts.
type ViolationCategory string

const (
	CategoryDataError  ViolationCategory = "data_error"
	CategoryFormatting ViolationCategory = "formatting"
)

// Violation is one problem found on an event.
type Violation struct {
	Type     ViolationType     `json:"type"`
	Category ViolationCategory `json:"category"`
	Message  string            `json:"message"`
}

// EventValidation pairs an event with its surviving violations.
type EventValidation struct {
	Event      Event       `json:"event"`
	Violations []Violation `json:"violations"`
}

// ValidationReport summarises one gym's month.
type ValidationReport struct {
	GymID           string            `json:"gym_id"`
	Month           string            `json:"month"`
	Events          []EventValidation `json:"events"`
	DataErrorCount  int               `json:"data_error_count"`
	FormattingCount int               `json:"formatting_count"`
}
