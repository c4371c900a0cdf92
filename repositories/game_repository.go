package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/austinlparker/bsky-bracket/models"
)

var (
	ErrGameNotFound = errors.New("game not found")
	// ErrGameWrongStatus is returned when a status-conditional lookup or
	// update finds the game in some other state.
	ErrGameWrongStatus = errors.New("game is not in the required status")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetCurrent(ctx context.Context, exec SQLExecutor) (*models.Game, error)
	GetByID(ctx context.Context, id int) (*models.Game, error)
	GetByIDInStatus(ctx context.Context, exec SQLExecutor, id int, status models.GameStatus) (*models.Game, error)
	Activate(ctx context.Context, exec SQLExecutor, gameID, roundID int) error
	SetCurrentRound(ctx context.Context, exec SQLExecutor, gameID, roundID int) error
	Complete(ctx context.Context, exec SQLExecutor, gameID int, winner *int) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `id, start_time, end_time, status, max_players_per_team, current_round_id, winner`

func (r *postgresGameRepository) scanGame(row *sql.Row) (*models.Game, error) {
	g := &models.Game{}
	err := row.Scan(&g.ID, &g.StartTime, &g.EndTime, &g.Status, &g.MaxPlayersPerTeam, &g.CurrentRoundID, &g.Winner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	return g, nil
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, g *models.Game) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO games (start_time, end_time, status, max_players_per_team, current_round_id, winner)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		g.StartTime, g.EndTime, g.Status, g.MaxPlayersPerTeam, g.CurrentRoundID, g.Winner,
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	return nil
}

// GetCurrent returns the single game in registration or active status. If the
// single-current-game invariant ever breaks, the most recently started one
// wins.
func (r *postgresGameRepository) GetCurrent(ctx context.Context, exec SQLExecutor) (*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT ` + gameColumns + `
		FROM games
		WHERE status IN ($1, $2)
		ORDER BY start_time DESC
		LIMIT 1`

	return r.scanGame(executor.QueryRowContext(ctx, query, models.GameStatusRegistration, models.GameStatusActive))
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	return r.scanGame(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) GetByIDInStatus(ctx context.Context, exec SQLExecutor, id int, status models.GameStatus) (*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1 AND status = $2`

	g, err := r.scanGame(executor.QueryRowContext(ctx, query, id, status))
	if errors.Is(err, ErrGameNotFound) {
		return nil, ErrGameWrongStatus
	}
	return g, err
}

func (r *postgresGameRepository) Activate(ctx context.Context, exec SQLExecutor, gameID, roundID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE games SET status = $1, current_round_id = $2 WHERE id = $3`

	result, err := executor.ExecContext(ctx, query, models.GameStatusActive, roundID, gameID)
	if err != nil {
		return fmt.Errorf("failed to activate game %d: %w", gameID, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) SetCurrentRound(ctx context.Context, exec SQLExecutor, gameID, roundID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE games SET current_round_id = $1 WHERE id = $2`

	result, err := executor.ExecContext(ctx, query, roundID, gameID)
	if err != nil {
		return fmt.Errorf("failed to set current round %d on game %d: %w", roundID, gameID, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) Complete(ctx context.Context, exec SQLExecutor, gameID int, winner *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE games SET status = $1, winner = $2 WHERE id = $3`

	result, err := executor.ExecContext(ctx, query, models.GameStatusCompleted, winner, gameID)
	if err != nil {
		return fmt.Errorf("failed to complete game %d: %w", gameID, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}
