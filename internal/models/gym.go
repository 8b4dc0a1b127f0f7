package models

// Gym is one franchise location.
type Gym struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// SourceAccount maps a remote portal account to an internal gym.
type SourceAccount struct {
	SourceID   string `db:"source_id" json:"source_id"`
	LocationID string `db:"location_id" json:"location_id"`
	GymID      string `db:"gym_id" json:"gym_id"`
}
