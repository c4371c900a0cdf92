package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/lib/pq"
)

type RoundParticipantRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, participants []models.RoundParticipant) error
	ListActive(ctx context.Context, exec SQLExecutor, roundID int) ([]models.RoundParticipant, error)
	ListActiveByTeam(ctx context.Context, exec SQLExecutor, roundID, team int) ([]models.RoundParticipant, error)
	DistinctActiveTeams(ctx context.Context, exec SQLExecutor, roundID int) ([]int, error)
	RecomputeTotalLikes(ctx context.Context, exec SQLExecutor, roundID, team int) error
	EliminateBatch(ctx context.Context, exec SQLExecutor, roundID int, userIDs []string) error
	MaxEliminatedTotal(ctx context.Context, exec SQLExecutor, roundID int) (int, error)
	CountActiveTeams(ctx context.Context, roundID int) (int, error)
	CountActiveUsers(ctx context.Context, roundID int) (int, error)
	MinActiveTotal(ctx context.Context, roundID int) (int, error)
	StatusBuckets(ctx context.Context, roundID int) ([]models.ParticipantBucket, error)
}

type postgresRoundParticipantRepository struct {
	db *sql.DB
}

func NewPostgresRoundParticipantRepository(db *sql.DB) RoundParticipantRepository {
	return &postgresRoundParticipantRepository{db: db}
}

func (r *postgresRoundParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRoundParticipantRepository) CreateBatch(ctx context.Context, exec SQLExecutor, participants []models.RoundParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	var sb strings.Builder
	sb.WriteString(`INSERT INTO round_participants (round_id, user_id, team, total_likes, status) VALUES `)
	args := make([]interface{}, 0, len(participants)*5)
	for i, p := range participants {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		sb.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5))
		args = append(args, p.RoundID, p.UserID, p.Team, p.TotalLikes, p.Status)
	}

	if _, err := executor.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to create %d round participants: %w", len(participants), err)
	}
	return nil
}

func (r *postgresRoundParticipantRepository) scanParticipants(rows *sql.Rows) ([]models.RoundParticipant, error) {
	participants := make([]models.RoundParticipant, 0)
	for rows.Next() {
		var p models.RoundParticipant
		if err := rows.Scan(&p.RoundID, &p.UserID, &p.Team, &p.TotalLikes, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan round participant row: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresRoundParticipantRepository) ListActive(ctx context.Context, exec SQLExecutor, roundID int) ([]models.RoundParticipant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT round_id, user_id, team, total_likes, status
		FROM round_participants
		WHERE round_id = $1 AND status = $2
		ORDER BY user_id`

	rows, err := executor.QueryContext(ctx, query, roundID, models.ParticipantActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active participants of round %d: %w", roundID, err)
	}
	defer rows.Close()

	return r.scanParticipants(rows)
}

// ListActiveByTeam orders lowest score first; ties break by user id so the
// elimination order is deterministic.
func (r *postgresRoundParticipantRepository) ListActiveByTeam(ctx context.Context, exec SQLExecutor, roundID, team int) ([]models.RoundParticipant, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT round_id, user_id, team, total_likes, status
		FROM round_participants
		WHERE round_id = $1 AND team = $2 AND status = $3
		ORDER BY total_likes ASC, user_id ASC`

	rows, err := executor.QueryContext(ctx, query, roundID, team, models.ParticipantActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active participants of round %d team %d: %w", roundID, team, err)
	}
	defer rows.Close()

	return r.scanParticipants(rows)
}

func (r *postgresRoundParticipantRepository) DistinctActiveTeams(ctx context.Context, exec SQLExecutor, roundID int) ([]int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT DISTINCT team
		FROM round_participants
		WHERE round_id = $1 AND status = $2
		ORDER BY team`

	rows, err := executor.QueryContext(ctx, query, roundID, models.ParticipantActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active teams of round %d: %w", roundID, err)
	}
	defer rows.Close()

	teams := make([]int, 0)
	for rows.Next() {
		var team int
		if err := rows.Scan(&team); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// RecomputeTotalLikes re-derives each participant's total from the posts
// table inside the elimination transaction, so the ranking reflects the
// freshest observed like counts.
func (r *postgresRoundParticipantRepository) RecomputeTotalLikes(ctx context.Context, exec SQLExecutor, roundID, team int) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE round_participants rp
		SET total_likes = COALESCE((
			SELECT SUM(p.like_count)
			FROM posts p
			WHERE p.user_id = rp.user_id AND p.round_id = $1 AND p.active = TRUE
		), 0)
		WHERE rp.round_id = $1 AND rp.team = $2`

	if _, err := executor.ExecContext(ctx, query, roundID, team); err != nil {
		return fmt.Errorf("failed to recompute like totals for round %d team %d: %w", roundID, team, err)
	}
	return nil
}

func (r *postgresRoundParticipantRepository) EliminateBatch(ctx context.Context, exec SQLExecutor, roundID int, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `UPDATE round_participants SET status = $1 WHERE round_id = $2 AND user_id = ANY($3)`

	if _, err := executor.ExecContext(ctx, query, models.ParticipantEliminated, roundID, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("failed to eliminate %d participants of round %d: %w", len(userIDs), roundID, err)
	}
	return nil
}

// MaxEliminatedTotal is the round's cutoff: the best score among everyone the
// round eliminated, zero when no one was.
func (r *postgresRoundParticipantRepository) MaxEliminatedTotal(ctx context.Context, exec SQLExecutor, roundID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COALESCE(MAX(total_likes), 0)
		FROM round_participants
		WHERE round_id = $1 AND status = $2`

	var max int
	err := executor.QueryRowContext(ctx, query, roundID, models.ParticipantEliminated).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to compute cutoff likes for round %d: %w", roundID, err)
	}
	return max, nil
}

func (r *postgresRoundParticipantRepository) CountActiveTeams(ctx context.Context, roundID int) (int, error) {
	query := `
		SELECT COUNT(DISTINCT team)
		FROM round_participants
		WHERE round_id = $1 AND status = $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, roundID, models.ParticipantActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active teams of round %d: %w", roundID, err)
	}
	return count, nil
}

func (r *postgresRoundParticipantRepository) CountActiveUsers(ctx context.Context, roundID int) (int, error) {
	query := `
		SELECT COUNT(user_id)
		FROM round_participants
		WHERE round_id = $1 AND status = $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, roundID, models.ParticipantActive).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users of round %d: %w", roundID, err)
	}
	return count, nil
}

// MinActiveTotal is the projected elimination threshold: the lowest score
// currently surviving.
func (r *postgresRoundParticipantRepository) MinActiveTotal(ctx context.Context, roundID int) (int, error) {
	query := `
		SELECT COALESCE(MIN(total_likes), 0)
		FROM round_participants
		WHERE round_id = $1 AND status = $2`

	var min int
	err := r.db.QueryRowContext(ctx, query, roundID, models.ParticipantActive).Scan(&min)
	if err != nil {
		return 0, fmt.Errorf("failed to compute projected threshold for round %d: %w", roundID, err)
	}
	return min, nil
}

func (r *postgresRoundParticipantRepository) StatusBuckets(ctx context.Context, roundID int) ([]models.ParticipantBucket, error) {
	query := `
		SELECT team, status, COUNT(user_id)
		FROM round_participants
		WHERE round_id = $1
		GROUP BY team, status
		ORDER BY team, status`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participant buckets of round %d: %w", roundID, err)
	}
	defer rows.Close()

	buckets := make([]models.ParticipantBucket, 0)
	for rows.Next() {
		var b models.ParticipantBucket
		if err := rows.Scan(&b.Team, &b.Status, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan participant bucket row: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
