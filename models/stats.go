package models

// StatsOverview is the combined tournament dashboard payload: the running
// game, its current round, the projected elimination threshold and per-team
// breakdowns.
type StatsOverview struct {
	Game               *Game            `json:"game,omitempty"`
	CurrentRound       *Round           `json:"current_round,omitempty"`
	ProjectedThreshold int              `json:"projected_threshold"`
	Teams              []TeamPlayerStat `json:"teams"`
	Rounds             []RoundSummary   `json:"rounds"`
}
