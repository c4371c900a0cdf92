package models

import "time"

// GameStatus matches the textual status column in the DB.
type GameStatus string

const (
	GameStatusRegistration GameStatus = "registration"
	GameStatusActive       GameStatus = "active"
	GameStatusCompleted    GameStatus = "completed"
)

// Game is one full tournament instance. At most one game may be in
// registration or active at a time; GameService enforces that.
type Game struct {
	ID                int        `json:"id" db:"id"`
	StartTime         time.Time  `json:"start_time" db:"start_time"`
	EndTime           time.Time  `json:"end_time" db:"end_time"`
	Status            GameStatus `json:"status" db:"status"`
	MaxPlayersPerTeam int        `json:"max_players_per_team" db:"max_players_per_team"`
	CurrentRoundID    *int       `json:"current_round_id,omitempty" db:"current_round_id"`
	Winner            *int       `json:"winner,omitempty" db:"winner"`
}

type ParticipantStatus string

const (
	ParticipantActive     ParticipantStatus = "active"
	ParticipantEliminated ParticipantStatus = "eliminated"
)

// GameParticipant is the (game, user) enrollment row. Status only ever moves
// active -> eliminated.
type GameParticipant struct {
	GameID   int               `json:"game_id" db:"game_id"`
	UserID   string            `json:"user_id" db:"user_id"`
	Team     int               `json:"team" db:"team"`
	JoinedAt time.Time         `json:"joined_at" db:"joined_at"`
	Status   ParticipantStatus `json:"status" db:"status"`
}

// TeamPlayerStat is the per-team enrollment breakdown of one game.
type TeamPlayerStat struct {
	Team          int `json:"team"`
	TotalPlayers  int `json:"total_players"`
	ActivePlayers int `json:"active_players"`
}

// TeamScore is the aggregate used to pick a winner when a game completes.
type TeamScore struct {
	Team        int `json:"team"`
	PlayerCount int `json:"player_count"`
	TotalLikes  int `json:"total_likes"`
}
