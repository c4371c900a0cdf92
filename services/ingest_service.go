package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/austinlparker/bsky-bracket/repositories"
	"github.com/austinlparker/bsky-bracket/teams"
)

// IngestService applies firehose events to storage. Every post is kept
// regardless of game state; the game/round tags are only attached while a
// round is running, which is what makes a post count toward elimination.
type IngestService struct {
	userRepo    repositories.UserRepository
	postRepo    repositories.PostRepository
	gameService *GameService
	assigner    *teams.Assigner
	logger      *slog.Logger
}

func NewIngestService(
	userRepo repositories.UserRepository,
	postRepo repositories.PostRepository,
	gameService *GameService,
	assigner *teams.Assigner,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		userRepo:    userRepo,
		postRepo:    postRepo,
		gameService: gameService,
		assigner:    assigner,
		logger:      logger.With(slog.String("component", "ingest")),
	}
}

// HandlePost registers the author on first sight and stores the post. The
// author's team comes from the DID hash, never from the stored row, so the
// two always agree.
func (s *IngestService) HandlePost(ctx context.Context, uri, cid, authorDID string, indexedAt time.Time) error {
	team := s.assigner.Assign(authorDID)

	user := &models.User{
		DID:       authorDID,
		FirstSeen: time.Now().UTC(),
		Team:      team,
	}
	if err := s.userRepo.Upsert(ctx, nil, user); err != nil {
		return err
	}

	post := &models.Post{
		URI:       uri,
		CID:       cid,
		IndexedAt: indexedAt,
		Team:      team,
		UserID:    authorDID,
		Active:    true,
	}

	game, err := s.gameService.CurrentGame(ctx)
	if err != nil {
		return err
	}
	if game != nil && game.Status == models.GameStatusActive && game.CurrentRoundID != nil {
		post.GameID = &game.ID
		post.RoundID = game.CurrentRoundID
	}

	return s.postRepo.Insert(ctx, nil, post)
}

// HandleLike adjusts a post's like count. Likes for posts we never indexed
// are expected and dropped silently.
func (s *IngestService) HandleLike(ctx context.Context, subjectURI string, delta int) error {
	err := s.postRepo.IncrementLikeCount(ctx, nil, subjectURI, delta)
	if errors.Is(err, repositories.ErrPostNotFound) {
		return nil
	}
	return err
}

// HandlePostDelete soft-deletes a post so it drops out of feeds and future
// like totals. Deletes for unknown posts are dropped.
func (s *IngestService) HandlePostDelete(ctx context.Context, uri string) error {
	err := s.postRepo.Deactivate(ctx, nil, uri)
	if errors.Is(err, repositories.ErrPostNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.logger.Debug("post deactivated", slog.String("uri", uri))
	return nil
}
