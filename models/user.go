package models

import "time"

// User is created the first time a DID shows up on the firehose. The team is
// assigned once at creation and never recomputed.
type User struct {
	DID           string    `json:"did" db:"did"`
	Handle        *string   `json:"handle,omitempty" db:"handle"`
	DisplayName   *string   `json:"display_name,omitempty" db:"display_name"`
	FirstSeen     time.Time `json:"first_seen" db:"first_seen"`
	Team          int       `json:"team" db:"team"`
	CurrentGameID *int      `json:"current_game_id,omitempty" db:"current_game_id"`
}

// TeamCount is a per-team member tally used both for the public team listing
// and for game readiness checks.
type TeamCount struct {
	Team  int `json:"team"`
	Count int `json:"count"`
}
