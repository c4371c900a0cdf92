package models

import "time"

type RoundStatus string

const (
	RoundStatusActive    RoundStatus = "active"
	RoundStatusCompleted RoundStatus = "completed"
)

// Round is one elimination cycle within a game. CutoffLikes is only set when
// the round completes: the highest like total among the players eliminated in
// it, i.e. the score you needed to beat to survive.
type Round struct {
	ID          int         `json:"id" db:"id"`
	GameID      int         `json:"game_id" db:"game_id"`
	StartTime   time.Time   `json:"start_time" db:"start_time"`
	EndTime     time.Time   `json:"end_time" db:"end_time"`
	Status      RoundStatus `json:"status" db:"status"`
	CutoffLikes *int        `json:"cutoff_likes,omitempty" db:"cutoff_likes"`
}

// RoundParticipant carries a user's accumulated like total for a single
// round. TotalLikes is recomputed from posts right before elimination so the
// ranking always reflects the freshest observed counts.
type RoundParticipant struct {
	RoundID    int               `json:"round_id" db:"round_id"`
	UserID     string            `json:"user_id" db:"user_id"`
	Team       int               `json:"team" db:"team"`
	TotalLikes int               `json:"total_likes" db:"total_likes"`
	Status     ParticipantStatus `json:"status" db:"status"`
}

// RoundStatusReport is the live view served by GET /api/rounds/status.
type RoundStatusReport struct {
	RoundID       int             `json:"round_id"`
	Status        RoundStatus     `json:"status"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	TimeRemaining int64           `json:"time_remaining_ms"`
	Progress      float64         `json:"progress"`
	Stats         RoundAggregates `json:"stats"`
}

// RoundAggregates are the live counters behind a status report.
type RoundAggregates struct {
	TotalTeams int `json:"total_teams"`
	TotalUsers int `json:"total_users"`
	TotalPosts int `json:"total_posts"`
	TotalLikes int `json:"total_likes"`
}

// ParticipantBucket is a (team, status) tally used by round stats.
type ParticipantBucket struct {
	Team   int               `json:"team"`
	Status ParticipantStatus `json:"status"`
	Count  int               `json:"count"`
}

// RoundStats is the historical view of a single round.
type RoundStats struct {
	Round            *Round              `json:"round"`
	ParticipantStats []ParticipantBucket `json:"participant_stats"`
	PostCount        int                 `json:"post_count"`
	TotalLikes       int                 `json:"total_likes"`
}

// RoundSummary is one row of a game's round history, with how many players
// the round eliminated.
type RoundSummary struct {
	Round
	EliminationCount int `json:"elimination_count"`
}
