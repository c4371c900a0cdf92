package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/lib/pq"
)

var ErrGameParticipantNotFound = errors.New("game participant not found")

type GameParticipantRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, participants []models.GameParticipant) error
	ListActive(ctx context.Context, exec SQLExecutor, gameID int) ([]models.GameParticipant, error)
	CountActiveByTeam(ctx context.Context, exec SQLExecutor, gameID, minPerTeam int) ([]models.TeamCount, error)
	EliminateBatch(ctx context.Context, exec SQLExecutor, gameID int, userIDs []string) error
	ActiveTeamScores(ctx context.Context, exec SQLExecutor, gameID int) ([]models.TeamScore, error)
	TeamPlayerStats(ctx context.Context, gameID int) ([]models.TeamPlayerStat, error)
}

type postgresGameParticipantRepository struct {
	db *sql.DB
}

func NewPostgresGameParticipantRepository(db *sql.DB) GameParticipantRepository {
	return &postgresGameParticipantRepository{db: db}
}

func (r *postgresGameParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresGameParticipantRepository) CreateBatch(ctx context.Context, exec SQLExecutor, participants []models.GameParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	var sb strings.Builder
	sb.WriteString(`INSERT INTO game_participants (game_id, user_id, team, joined_at, status) VALUES `)
	args := make([]interface{}, 0, len(participants)*5)
	for i, p := range participants {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, p.GameID, p.UserID, p.Team, p.JoinedAt, p.Status)
	}

	if _, err := executor.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to create %d game participants: %w", len(participants), err)
	}
	return nil
}

func (r *postgresGameParticipantRepository) ListActive(ctx context.Context, exec SQLExecutor, gameID int) ([]models.GameParticipant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT game_id, user_id, team, joined_at, status
		FROM game_participants
		WHERE game_id = $1 AND status = $2
		ORDER BY user_id`

	rows, err := executor.QueryContext(ctx, query, gameID, models.ParticipantActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active participants of game %d: %w", gameID, err)
	}
	defer rows.Close()

	participants := make([]models.GameParticipant, 0)
	for rows.Next() {
		var p models.GameParticipant
		if err := rows.Scan(&p.GameID, &p.UserID, &p.Team, &p.JoinedAt, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan game participant row: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// CountActiveByTeam is the in-game variant of the readiness query: teams with
// at least minPerTeam active participants of the given game.
func (r *postgresGameParticipantRepository) CountActiveByTeam(ctx context.Context, exec SQLExecutor, gameID, minPerTeam int) ([]models.TeamCount, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT team, COUNT(user_id)
		FROM game_participants
		WHERE game_id = $1 AND status = $2
		GROUP BY team
		HAVING COUNT(user_id) >= $3`

	rows, err := executor.QueryContext(ctx, query, gameID, models.ParticipantActive, minPerTeam)
	if err != nil {
		return nil, fmt.Errorf("failed to count active participants by team for game %d: %w", gameID, err)
	}
	defer rows.Close()

	return scanTeamCounts(rows)
}

func (r *postgresGameParticipantRepository) EliminateBatch(ctx context.Context, exec SQLExecutor, gameID int, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `UPDATE game_participants SET status = $1 WHERE game_id = $2 AND user_id = ANY($3)`

	if _, err := executor.ExecContext(ctx, query, models.ParticipantEliminated, gameID, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("failed to eliminate %d participants of game %d: %w", len(userIDs), gameID, err)
	}
	return nil
}

// ActiveTeamScores sums the round like totals of every still-active
// participant, grouped by team and ordered best first. Only rounds belonging
// to the game count.
func (r *postgresGameParticipantRepository) ActiveTeamScores(ctx context.Context, exec SQLExecutor, gameID int) ([]models.TeamScore, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT gp.team, COUNT(DISTINCT gp.user_id), COALESCE(SUM(rp.total_likes), 0)
		FROM game_participants gp
		JOIN round_participants rp ON rp.user_id = gp.user_id
		JOIN rounds r ON r.id = rp.round_id AND r.game_id = gp.game_id
		WHERE gp.game_id = $1 AND gp.status = $2
		GROUP BY gp.team
		ORDER BY COALESCE(SUM(rp.total_likes), 0) DESC, gp.team ASC`

	rows, err := executor.QueryContext(ctx, query, gameID, models.ParticipantActive)
	if err != nil {
		return nil, fmt.Errorf("failed to compute team scores for game %d: %w", gameID, err)
	}
	defer rows.Close()

	scores := make([]models.TeamScore, 0)
	for rows.Next() {
		var s models.TeamScore
		if err := rows.Scan(&s.Team, &s.PlayerCount, &s.TotalLikes); err != nil {
			return nil, fmt.Errorf("failed to scan team score row: %w", err)
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *postgresGameParticipantRepository) TeamPlayerStats(ctx context.Context, gameID int) ([]models.TeamPlayerStat, error) {
	query := `
		SELECT team,
		       COUNT(user_id),
		       SUM(CASE WHEN status = $2 THEN 1 ELSE 0 END)
		FROM game_participants
		WHERE game_id = $1
		GROUP BY team
		ORDER BY team`

	rows, err := r.db.QueryContext(ctx, query, gameID, models.ParticipantActive)
	if err != nil {
		return nil, fmt.Errorf("failed to load team player stats for game %d: %w", gameID, err)
	}
	defer rows.Close()

	stats := make([]models.TeamPlayerStat, 0)
	for rows.Next() {
		var s models.TeamPlayerStat
		if err := rows.Scan(&s.Team, &s.TotalPlayers, &s.ActivePlayers); err != nil {
			return nil, fmt.Errorf("failed to scan team player stat row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
