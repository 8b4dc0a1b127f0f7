package dto

import "github.com/noah-isme/gym-ops-api/internal/models"

// EventRequest is the payload for creating an event and one record of a batch import.
type EventRequest struct {
	GymID     string   `json:"gym_id" validate:"required"`
	Type      string   `json:"type" validate:"required"`
	Title     string   `json:"title" validate:"required,max=255"`
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string   `json:"time" validate:"max=64"`
	Price     *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	SourceURL string   `json:"source_url" validate:"required,url"`
	SoldOut   bool     `json:"sold_out"`
}

// UpdateEventRequest patches an event. Nil fields are left unchanged.
type UpdateEventRequest struct {
	GymID      *string  `json:"gym_id,omitempty" validate:"omitempty,min=1"`
	Type       *string  `json:"type,omitempty" validate:"omitempty,min=1"`
	Title      *string  `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Date       *string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time       *string  `json:"time,omitempty" validate:"omitempty,max=64"`
	Price      *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	ClearPrice bool     `json:"clear_price,omitempty"`
	SourceURL  *string  `json:"source_url,omitempty" validate:"omitempty,url"`
	SoldOut    *bool    `json:"sold_out,omitempty"`
}

// ImportEventsRequest carries a batch of events to import atomically.
type ImportEventsRequest struct {
	Events []EventRequest `json:"events"`
}

// ImportError locates one invalid field in a batch import.
type ImportError struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult summarises a committed batch import.
type ImportResult struct {
	Received int            `json:"received"`
	Inserted int            `json:"inserted"`
	Existing int            `json:"existing"`
	Events   []models.Event `json:"events"`
}
