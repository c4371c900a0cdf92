package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/austinlparker/bsky-bracket/repositories"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

// FeedService serves each user their team's ranked feed. When the user is
// enrolled in a running game the ranking becomes game-aware: game posts first,
// posts from eliminated round participants hidden.
type FeedService struct {
	userRepo repositories.UserRepository
	postRepo repositories.PostRepository
	logger   *slog.Logger
}

func NewFeedService(userRepo repositories.UserRepository, postRepo repositories.PostRepository, logger *slog.Logger) *FeedService {
	return &FeedService{
		userRepo: userRepo,
		postRepo: postRepo,
		logger:   logger.With(slog.String("component", "feed")),
	}
}

// RankedFeed returns one page of the requester's team feed. The cursor is the
// indexed_at of the last returned post in unix milliseconds; an empty cursor
// starts from now.
func (s *FeedService) RankedFeed(ctx context.Context, did, cursor string, limit int) (*models.FeedPage, error) {
	user, err := s.userRepo.GetByDID(ctx, did)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	before := time.Now().UTC()
	if cursor != "" {
		ms, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil || ms <= 0 {
			return nil, ErrInvalidCursor
		}
		before = time.UnixMilli(ms).UTC()
	}

	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}

	posts, err := s.postRepo.ListFeed(ctx, repositories.FeedQuery{
		Team:          user.Team,
		Before:        before,
		Limit:         limit,
		CurrentGameID: user.CurrentGameID,
	})
	if err != nil {
		return nil, err
	}

	page := &models.FeedPage{Feed: make([]models.FeedItem, 0, len(posts))}
	for _, p := range posts {
		page.Feed = append(page.Feed, models.FeedItem{Post: p.URI})
	}
	if len(posts) > 0 {
		last := posts[len(posts)-1]
		page.Cursor = strconv.FormatInt(last.IndexedAt.UnixMilli(), 10)
	}

	s.logger.Debug("feed page served",
		slog.String("did", did),
		slog.Int("team", user.Team),
		slog.Int("posts", len(posts)),
		slog.Bool("game_aware", user.CurrentGameID != nil),
	)
	return page, nil
}
