package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/austinlparker/bsky-bracket/models"
)

type EliminationRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, eliminations []models.Elimination) error
	ListByTeam(ctx context.Context, team int) ([]models.Elimination, error)
	TeamCutoffs(ctx context.Context, roundID int) ([]models.TeamCutoff, error)
}

type postgresEliminationRepository struct {
	db *sql.DB
}

func NewPostgresEliminationRepository(db *sql.DB) EliminationRepository {
	return &postgresEliminationRepository{db: db}
}

func (r *postgresEliminationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// CreateBatch appends audit rows; the table is append-only by convention.
func (r *postgresEliminationRepository) CreateBatch(ctx context.Context, exec SQLExecutor, eliminations []models.Elimination) error {
	if len(eliminations) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	var sb strings.Builder
	sb.WriteString(`INSERT INTO eliminations (round_id, user_id, team, like_count, eliminated_at) VALUES `)
	args := make([]interface{}, 0, len(eliminations)*5)
	for i, e := range eliminations {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, e.RoundID, e.UserID, e.Team, e.LikeCount, e.EliminatedAt)
	}

	if _, err := executor.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to record %d eliminations: %w", len(eliminations), err)
	}
	return nil
}

func (r *postgresEliminationRepository) ListByTeam(ctx context.Context, team int) ([]models.Elimination, error) {
	query := `
		SELECT round_id, user_id, team, like_count, eliminated_at
		FROM eliminations
		WHERE team = $1
		ORDER BY round_id DESC`

	rows, err := r.db.QueryContext(ctx, query, team)
	if err != nil {
		return nil, fmt.Errorf("failed to list eliminations of team %d: %w", team, err)
	}
	defer rows.Close()

	eliminations := make([]models.Elimination, 0)
	for rows.Next() {
		var e models.Elimination
		if err := rows.Scan(&e.RoundID, &e.UserID, &e.Team, &e.LikeCount, &e.EliminatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan elimination row: %w", err)
		}
		eliminations = append(eliminations, e)
	}
	return eliminations, rows.Err()
}

func (r *postgresEliminationRepository) TeamCutoffs(ctx context.Context, roundID int) ([]models.TeamCutoff, error) {
	query := `
		SELECT team, MAX(like_count)
		FROM eliminations
		WHERE round_id = $1
		GROUP BY team
		ORDER BY team`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cutoffs of round %d: %w", roundID, err)
	}
	defer rows.Close()

	cutoffs := make([]models.TeamCutoff, 0)
	for rows.Next() {
		var c models.TeamCutoff
		if err := rows.Scan(&c.Team, &c.CutoffLikes); err != nil {
			return nil, fmt.Errorf("failed to scan cutoff row: %w", err)
		}
		cutoffs = append(cutoffs, c)
	}
	return cutoffs, rows.Err()
}
