package models

import "time"

// Elimination is the append-only audit row written once per eliminated
// participant per round.
type Elimination struct {
	RoundID      int       `json:"round_id" db:"round_id"`
	UserID       string    `json:"user_id" db:"user_id"`
	Team         int       `json:"team" db:"team"`
	LikeCount    int       `json:"like_count" db:"like_count"`
	EliminatedAt time.Time `json:"eliminated_at" db:"eliminated_at"`
}

// TeamCutoff is the per-team max eliminated like count for one round, served
// by GET /api/rounds/{roundID}/cutoffs.
type TeamCutoff struct {
	Team        int `json:"team"`
	CutoffLikes int `json:"cutoff_likes"`
}
