// Package collector pulls candidate events from remote booking portals, pages each source to
// exhaustion and reconciles the merged result into the event store.
package collector

import "context"

// Location is a franchise account exposed by a portal.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Program is a bookable program offered at a location.
type Program struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Item is one remote event as returned by a portal page.
type Item struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Date    string   `json:"date"`
	Time    string   `json:"time"`
	Price   *float64 `json:"price"`
	URL     string   `json:"url"`
	SoldOut bool     `json:"sold_out"`
}

// Portal is the read-only surface of one remote source.
type Portal interface {
	ID() string
	Locations(ctx context.Context) ([]Location, error)
	Programs(ctx context.Context, locationID string) ([]Program, error)
	Items(ctx context.Context, locationID, programID string, page, pageSize int) ([]Item, error)
}
