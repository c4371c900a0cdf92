package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/austinlparker/bsky-bracket/models"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, id int) (*models.Round, error)
	GetActiveByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error)
	Complete(ctx context.Context, exec SQLExecutor, id, cutoffLikes int) error
	ListSummariesByGame(ctx context.Context, gameID int) ([]models.RoundSummary, error)
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const roundColumns = `id, game_id, start_time, end_time, status, cutoff_likes`

func (r *postgresRoundRepository) scanRound(row *sql.Row) (*models.Round, error) {
	rd := &models.Round{}
	err := row.Scan(&rd.ID, &rd.GameID, &rd.StartTime, &rd.EndTime, &rd.Status, &rd.CutoffLikes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to scan round: %w", err)
	}
	return rd, nil
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, rd *models.Round) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO rounds (game_id, start_time, end_time, status, cutoff_likes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		rd.GameID, rd.StartTime, rd.EndTime, rd.Status, rd.CutoffLikes,
	).Scan(&rd.ID)
	if err != nil {
		return fmt.Errorf("failed to create round for game %d: %w", rd.GameID, err)
	}
	return nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, id int) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`
	return r.scanRound(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresRoundRepository) GetActiveByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1 AND status = $2`
	return r.scanRound(executor.QueryRowContext(ctx, query, id, models.RoundStatusActive))
}

func (r *postgresRoundRepository) Complete(ctx context.Context, exec SQLExecutor, id, cutoffLikes int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE rounds SET status = $1, cutoff_likes = $2 WHERE id = $3`

	result, err := executor.ExecContext(ctx, query, models.RoundStatusCompleted, cutoffLikes, id)
	if err != nil {
		return fmt.Errorf("failed to complete round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

// ListSummariesByGame returns a game's rounds in start order, each with the
// number of players it eliminated.
func (r *postgresRoundRepository) ListSummariesByGame(ctx context.Context, gameID int) ([]models.RoundSummary, error) {
	query := `
		SELECT r.id, r.game_id, r.start_time, r.end_time, r.status, r.cutoff_likes,
		       COUNT(e.user_id)
		FROM rounds r
		LEFT JOIN eliminations e ON e.round_id = r.id
		WHERE r.game_id = $1
		GROUP BY r.id, r.game_id, r.start_time, r.end_time, r.status, r.cutoff_likes
		ORDER BY r.start_time ASC`

	rows, err := r.db.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds of game %d: %w", gameID, err)
	}
	defer rows.Close()

	summaries := make([]models.RoundSummary, 0)
	for rows.Next() {
		var s models.RoundSummary
		if err := rows.Scan(&s.ID, &s.GameID, &s.StartTime, &s.EndTime, &s.Status, &s.CutoffLikes, &s.EliminationCount); err != nil {
			return nil, fmt.Errorf("failed to scan round summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
