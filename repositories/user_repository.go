package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/lib/pq"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Upsert(ctx context.Context, exec SQLExecutor, user *models.User) error
	GetByDID(ctx context.Context, did string) (*models.User, error)
	ListUnassigned(ctx context.Context, exec SQLExecutor) ([]*models.User, error)
	CountUnassignedByTeam(ctx context.Context, exec SQLExecutor, minPerTeam int) ([]models.TeamCount, error)
	AssignCurrentGame(ctx context.Context, exec SQLExecutor, dids []string, gameID int) error
	ClearCurrentGame(ctx context.Context, exec SQLExecutor, gameID int) error
	TeamMemberCounts(ctx context.Context) ([]models.TeamCount, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Upsert inserts a user on first sight and leaves existing rows untouched, so
// the team assigned at creation can never change.
func (r *postgresUserRepository) Upsert(ctx context.Context, exec SQLExecutor, u *models.User) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO users (did, handle, display_name, first_seen, team, current_game_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (did) DO NOTHING`

	_, err := executor.ExecContext(ctx, query,
		u.DID, u.Handle, u.DisplayName, u.FirstSeen, u.Team, u.CurrentGameID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user %s: %w", u.DID, err)
	}
	return nil
}

func (r *postgresUserRepository) GetByDID(ctx context.Context, did string) (*models.User, error) {
	query := `
		SELECT did, handle, display_name, first_seen, team, current_game_id
		FROM users
		WHERE did = $1`

	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, did).Scan(
		&u.DID, &u.Handle, &u.DisplayName, &u.FirstSeen, &u.Team, &u.CurrentGameID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", did, err)
	}
	return u, nil
}

func (r *postgresUserRepository) ListUnassigned(ctx context.Context, exec SQLExecutor) ([]*models.User, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT did, handle, display_name, first_seen, team, current_game_id
		FROM users
		WHERE current_game_id IS NULL
		ORDER BY did`

	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.DID, &u.Handle, &u.DisplayName, &u.FirstSeen, &u.Team, &u.CurrentGameID); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUnassignedByTeam returns, for teams that meet the minimum, how many
// users are currently not enrolled in any game.
func (r *postgresUserRepository) CountUnassignedByTeam(ctx context.Context, exec SQLExecutor, minPerTeam int) ([]models.TeamCount, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT team, COUNT(did)
		FROM users
		WHERE current_game_id IS NULL
		GROUP BY team
		HAVING COUNT(did) >= $1`

	rows, err := executor.QueryContext(ctx, query, minPerTeam)
	if err != nil {
		return nil, fmt.Errorf("failed to count unassigned users by team: %w", err)
	}
	defer rows.Close()

	return scanTeamCounts(rows)
}

func (r *postgresUserRepository) AssignCurrentGame(ctx context.Context, exec SQLExecutor, dids []string, gameID int) error {
	if len(dids) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `UPDATE users SET current_game_id = $1 WHERE did = ANY($2)`

	_, err := executor.ExecContext(ctx, query, gameID, pq.Array(dids))
	if err != nil {
		return fmt.Errorf("failed to assign users to game %d: %w", gameID, err)
	}
	return nil
}

func (r *postgresUserRepository) ClearCurrentGame(ctx context.Context, exec SQLExecutor, gameID int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE users SET current_game_id = NULL WHERE current_game_id = $1`

	if _, err := executor.ExecContext(ctx, query, gameID); err != nil {
		return fmt.Errorf("failed to clear current game %d from users: %w", gameID, err)
	}
	return nil
}

func (r *postgresUserRepository) TeamMemberCounts(ctx context.Context) ([]models.TeamCount, error) {
	query := `SELECT team, COUNT(did) FROM users GROUP BY team ORDER BY team`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count team members: %w", err)
	}
	defer rows.Close()

	return scanTeamCounts(rows)
}

func scanTeamCounts(rows *sql.Rows) ([]models.TeamCount, error) {
	counts := make([]models.TeamCount, 0)
	for rows.Next() {
		var tc models.TeamCount
		if err := rows.Scan(&tc.Team, &tc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan team count row: %w", err)
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}
