package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/lib/pq"
)

var ErrPostNotFound = errors.New("post not found")

// FeedQuery describes one page of the ranked team feed. CurrentGameID is set
// when the requesting user is enrolled in a running game, which switches the
// ranking to game-aware mode.
type FeedQuery struct {
	Team          int
	Before        time.Time
	Limit         int
	CurrentGameID *int
}

type PostRepository interface {
	Insert(ctx context.Context, exec SQLExecutor, post *models.Post) error
	IncrementLikeCount(ctx context.Context, exec SQLExecutor, uri string, delta int) error
	Deactivate(ctx context.Context, exec SQLExecutor, uri string) error
	BackfillGameRound(ctx context.Context, exec SQLExecutor, gameID, roundID int, userIDs []string, from, to time.Time) error
	CountByGameRound(ctx context.Context, exec SQLExecutor, gameID, roundID int) (int, error)
	RoundAggregates(ctx context.Context, roundID int) (postCount, likeSum int, err error)
	ListFeed(ctx context.Context, q FeedQuery) ([]models.Post, error)
}

type postgresPostRepository struct {
	db *sql.DB
}

func NewPostgresPostRepository(db *sql.DB) PostRepository {
	return &postgresPostRepository{db: db}
}

func (r *postgresPostRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Insert is conflict-tolerant on uri: the firehose can replay events.
func (r *postgresPostRepository) Insert(ctx context.Context, exec SQLExecutor, p *models.Post) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO posts (uri, cid, indexed_at, team, user_id, game_id, round_id, like_count, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (uri) DO NOTHING`

	_, err := executor.ExecContext(ctx, query,
		p.URI, p.CID, p.IndexedAt, p.Team, p.UserID, p.GameID, p.RoundID, p.LikeCount, p.Active,
	)
	if err != nil {
		return fmt.Errorf("failed to insert post %s: %w", p.URI, err)
	}
	return nil
}

func (r *postgresPostRepository) IncrementLikeCount(ctx context.Context, exec SQLExecutor, uri string, delta int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE posts SET like_count = GREATEST(like_count + $1, 0) WHERE uri = $2`

	result, err := executor.ExecContext(ctx, query, delta, uri)
	if err != nil {
		return fmt.Errorf("failed to update like count of post %s: %w", uri, err)
	}
	return checkAffectedRows(result, ErrPostNotFound)
}

func (r *postgresPostRepository) Deactivate(ctx context.Context, exec SQLExecutor, uri string) error {
	executor := r.getExecutor(exec)
	query := `UPDATE posts SET active = FALSE WHERE uri = $1`

	result, err := executor.ExecContext(ctx, query, uri)
	if err != nil {
		return fmt.Errorf("failed to deactivate post %s: %w", uri, err)
	}
	return checkAffectedRows(result, ErrPostNotFound)
}

// BackfillGameRound retroactively tags the given authors' posts inside the
// window with the game and round. Posts already belonging to another game are
// left alone.
func (r *postgresPostRepository) BackfillGameRound(ctx context.Context, exec SQLExecutor, gameID, roundID int, userIDs []string, from, to time.Time) error {
	if len(userIDs) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `
		UPDATE posts
		SET game_id = $1, round_id = $2
		WHERE user_id = ANY($3)
		  AND active = TRUE
		  AND (game_id IS NULL OR game_id = $1)
		  AND indexed_at >= $4
		  AND indexed_at <= $5`

	_, err := executor.ExecContext(ctx, query, gameID, roundID, pq.Array(userIDs), from, to)
	if err != nil {
		return fmt.Errorf("failed to backfill posts for game %d round %d: %w", gameID, roundID, err)
	}
	return nil
}

func (r *postgresPostRepository) CountByGameRound(ctx context.Context, exec SQLExecutor, gameID, roundID int) (int, error) {
	executor := r.getExecutor(exec)
	query := `SELECT COUNT(uri) FROM posts WHERE game_id = $1 AND round_id = $2`

	var count int
	if err := executor.QueryRowContext(ctx, query, gameID, roundID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count posts of game %d round %d: %w", gameID, roundID, err)
	}
	return count, nil
}

func (r *postgresPostRepository) RoundAggregates(ctx context.Context, roundID int) (int, int, error) {
	query := `
		SELECT COUNT(uri), COALESCE(SUM(like_count), 0)
		FROM posts
		WHERE round_id = $1 AND active = TRUE`

	var postCount, likeSum int
	if err := r.db.QueryRowContext(ctx, query, roundID).Scan(&postCount, &likeSum); err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate posts of round %d: %w", roundID, err)
	}
	return postCount, likeSum, nil
}

// ListFeed composes the team feed as an explicit predicate list plus ordering
// keys. In game-aware mode posts tagged with the requester's game rank first,
// and in-round posts from already-eliminated authors are filtered out;
// game-wide posts without a round stay visible.
func (r *postgresPostRepository) ListFeed(ctx context.Context, q FeedQuery) ([]models.Post, error) {
	conditions := []string{"p.team = $1", "p.indexed_at < $2", "p.active = TRUE"}
	args := []interface{}{q.Team, q.Before}
	var orderings []string

	if q.CurrentGameID != nil {
		args = append(args, *q.CurrentGameID, models.ParticipantActive)
		conditions = append(conditions, `
			(p.game_id IS NULL OR (
				p.game_id = $3 AND (
					p.round_id IS NULL OR EXISTS (
						SELECT 1 FROM round_participants rp
						WHERE rp.round_id = p.round_id
						  AND rp.user_id = p.user_id
						  AND rp.status = $4
					)
				)
			))`)
		orderings = []string{
			"CASE WHEN p.game_id = $3 THEN 1 ELSE 0 END DESC",
			"p.like_count DESC",
			"p.indexed_at DESC",
		}
	} else {
		orderings = []string{"p.like_count DESC", "p.indexed_at DESC"}
	}

	args = append(args, q.Limit)
	query := fmt.Sprintf(`
		SELECT p.uri, p.cid, p.indexed_at, p.team, p.user_id, p.game_id, p.round_id, p.like_count, p.active
		FROM posts p
		WHERE %s
		ORDER BY %s
		LIMIT $%d`,
		strings.Join(conditions, " AND "),
		strings.Join(orderings, ", "),
		len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed for team %d: %w", q.Team, err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0, q.Limit)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.URI, &p.CID, &p.IndexedAt, &p.Team, &p.UserID, &p.GameID, &p.RoundID, &p.LikeCount, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
