package models

import (
	"strings"
	"time"
)

// Well-known program types tracked for compliance.
const (
	ProgramClinic       = "CLINIC"
	ProgramKidsNightOut = "KIDS NIGHT OUT"
	ProgramOpenGym      = "OPEN GYM"
	ProgramCamp         = "CAMP"
)

// Event is one scheduled occurrence at a gym.
type Event struct {
	ID         string    `db:"id" json:"id"`
	GymID      string    `db:"gym_id" json:"gym_id"`
	Type       string    `db:"type" json:"type"`
	Title      string    `db:"title" json:"title"`
	Date       time.Time `db:"date" json:"date"`
	Time       string    `db:"time" json:"time"`
	Price      *float64  `db:"price" json:"price,omitempty"`
	SourceURL  string    `db:"source_url" json:"source_url"`
	ExternalID *string   `db:"external_id" json:"external_id,omitempty"`
	SoldOut    bool      `db:"sold_out" json:"sold_out"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// DateKey renders the event date as YYYY-MM-DD.
func (e Event) DateKey() string {
	return e.Date.Format(DateLayout)
}

// NormalizeProgram upper-cases and trims a program label for comparisons and storage.
func NormalizeProgram(program string) string {
	return strings.ToUpper(strings.Join(strings.Fields(program), " "))
}

// EventFilter narrows event listings.
type EventFilter struct {
	GymID    string
	Type     string
	Range    *MonthRange
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
