package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/austinlparker/bsky-bracket/repositories"
	"golang.org/x/sync/errgroup"
)

// RoundService owns Round, RoundParticipant and Elimination transitions. The
// whole elimination pass for one round is one transaction: either every team
// is processed and the round closed, or nothing is persisted.
type RoundService struct {
	txRunner         repositories.TxRunner
	gameService      *GameService
	gameRepo         repositories.GameRepository
	roundRepo        repositories.RoundRepository
	participantRepo  repositories.RoundParticipantRepository
	gameParticipants repositories.GameParticipantRepository
	postRepo         repositories.PostRepository
	eliminationRepo  repositories.EliminationRepository
	roundDuration    time.Duration
	logger           *slog.Logger

	// processing guards against a slow elimination pass overlapping the
	// next scheduler tick for the same round. Process-local only: running
	// several instances against one database needs a store-backed lease
	// instead.
	mu         sync.Mutex
	processing map[int]struct{}
}

func NewRoundService(
	txRunner repositories.TxRunner,
	gameService *GameService,
	gameRepo repositories.GameRepository,
	roundRepo repositories.RoundRepository,
	participantRepo repositories.RoundParticipantRepository,
	gameParticipants repositories.GameParticipantRepository,
	postRepo repositories.PostRepository,
	eliminationRepo repositories.EliminationRepository,
	roundDuration time.Duration,
	logger *slog.Logger,
) *RoundService {
	return &RoundService{
		txRunner:         txRunner,
		gameService:      gameService,
		gameRepo:         gameRepo,
		roundRepo:        roundRepo,
		participantRepo:  participantRepo,
		gameParticipants: gameParticipants,
		postRepo:         postRepo,
		eliminationRepo:  eliminationRepo,
		roundDuration:    roundDuration,
		logger:           logger.With(slog.String("component", "rounds")),
		processing:       make(map[int]struct{}),
	}
}

// CurrentRound returns the active round of the current game, or nil.
func (s *RoundService) CurrentRound(ctx context.Context) (*models.Round, error) {
	game, err := s.gameService.CurrentGame(ctx)
	if err != nil {
		return nil, err
	}
	if game == nil || game.CurrentRoundID == nil {
		return nil, nil
	}

	round, err := s.roundRepo.GetActiveByID(ctx, nil, *game.CurrentRoundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return round, nil
}

// CreateNextRound opens a fresh round for the game and carries over everyone
// still active in the previous round, like totals reset to zero. A previous
// round with no survivors yields an empty round; rounds keep turning until
// the game's clock runs out.
func (s *RoundService) CreateNextRound(ctx context.Context, gameID int) (*models.Round, error) {
	now := time.Now().UTC()

	var round *models.Round
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		game, err := s.gameRepo.GetByIDInStatus(ctx, exec, gameID, models.GameStatusActive)
		if err != nil {
			if errors.Is(err, repositories.ErrGameWrongStatus) {
				s.logger.Warn("no active game found when creating next round", slog.Int("game_id", gameID))
				return nil
			}
			return err
		}

		r := &models.Round{
			GameID:    gameID,
			StartTime: now,
			EndTime:   now.Add(s.roundDuration),
			Status:    models.RoundStatusActive,
		}
		if err := s.roundRepo.Create(ctx, exec, r); err != nil {
			return err
		}

		if game.CurrentRoundID != nil {
			survivors, err := s.participantRepo.ListActive(ctx, exec, *game.CurrentRoundID)
			if err != nil {
				return err
			}
			for i := 0; i < len(survivors); i += batchSize {
				end := i + batchSize
				if end > len(survivors) {
					end = len(survivors)
				}
				carry := make([]models.RoundParticipant, 0, end-i)
				for _, p := range survivors[i:end] {
					carry = append(carry, models.RoundParticipant{
						RoundID: r.ID,
						UserID:  p.UserID,
						Team:    p.Team,
						Status:  models.ParticipantActive,
					})
				}
				if err := s.participantRepo.CreateBatch(ctx, exec, carry); err != nil {
					return err
				}
			}
		}

		if err := s.gameRepo.SetCurrentRound(ctx, exec, gameID, r.ID); err != nil {
			return err
		}

		s.logger.Info("created new round", slog.Int("round_id", r.ID), slog.Int("game_id", gameID))
		round = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

// ProcessRoundEliminations closes a round: per team, recompute like totals
// from posts, rank ascending and eliminate the lowest half (rounded up), then
// record the round-wide cutoff. Returns the cutoff. A round that is no longer
// active is a warning and a no-op, so a replayed tick cannot double-process.
func (s *RoundService) ProcessRoundEliminations(ctx context.Context, roundID int) (int, error) {
	started := time.Now()
	s.logger.Info("starting round elimination", slog.Int("round_id", roundID))

	var cutoff int
	var processed int
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		round, err := s.roundRepo.GetActiveByID(ctx, exec, roundID)
		if err != nil {
			if errors.Is(err, repositories.ErrRoundNotFound) {
				s.logger.Warn("no active round found for elimination processing", slog.Int("round_id", roundID))
				return nil
			}
			return err
		}

		teams, err := s.participantRepo.DistinctActiveTeams(ctx, exec, roundID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, team := range teams {
			// Totals are re-derived from posts inside this transaction so
			// the ranking reflects every like observed up to now.
			if err := s.participantRepo.RecomputeTotalLikes(ctx, exec, roundID, team); err != nil {
				return err
			}
			participants, err := s.participantRepo.ListActiveByTeam(ctx, exec, roundID, team)
			if err != nil {
				return err
			}
			if len(participants) == 0 {
				continue
			}

			// ceil(n/2): a one-player team loses its last player here.
			elimCount := (len(participants) + 1) / 2
			eliminated := participants[:elimCount]

			for i := 0; i < len(eliminated); i += batchSize {
				end := i + batchSize
				if end > len(eliminated) {
					end = len(eliminated)
				}
				batch := eliminated[i:end]

				dids := make([]string, 0, len(batch))
				records := make([]models.Elimination, 0, len(batch))
				for _, p := range batch {
					dids = append(dids, p.UserID)
					records = append(records, models.Elimination{
						RoundID:      roundID,
						UserID:       p.UserID,
						Team:         p.Team,
						LikeCount:    p.TotalLikes,
						EliminatedAt: now,
					})
				}

				if err := s.participantRepo.EliminateBatch(ctx, exec, roundID, dids); err != nil {
					return err
				}
				if err := s.gameParticipants.EliminateBatch(ctx, exec, round.GameID, dids); err != nil {
					return err
				}
				if err := s.eliminationRepo.CreateBatch(ctx, exec, records); err != nil {
					return err
				}
				processed += len(batch)
			}

			s.logger.Debug("team eliminations processed",
				slog.Int("round_id", roundID),
				slog.Int("team", team),
				slog.Int("eliminated", len(eliminated)),
				slog.Int("remaining", len(participants)-len(eliminated)),
			)
		}

		cutoff, err = s.participantRepo.MaxEliminatedTotal(ctx, exec, roundID)
		if err != nil {
			return err
		}
		return s.roundRepo.Complete(ctx, exec, roundID, cutoff)
	})
	if err != nil {
		s.logger.Error("error processing eliminations",
			slog.Int("round_id", roundID),
			slog.Any("error", err),
			slog.Duration("elapsed", time.Since(started)),
		)
		return 0, err
	}

	s.logger.Info("round elimination completed",
		slog.Int("round_id", roundID),
		slog.Int("eliminated", processed),
		slog.Int("cutoff_likes", cutoff),
		slog.Duration("elapsed", time.Since(started)),
	)
	return cutoff, nil
}

// CheckAndProgressRound is the periodic round tick: when the current round
// has expired, run its eliminations and open the next round. A single-flight
// marker per round id keeps two overlapping ticks from double-eliminating;
// the marker is released on every exit path.
func (s *RoundService) CheckAndProgressRound(ctx context.Context) error {
	current, err := s.CurrentRound(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		s.logger.Debug("no active round")
		return nil
	}

	if time.Now().UTC().Before(current.EndTime) {
		return nil
	}

	if !s.tryAcquire(current.ID) {
		s.logger.Debug("round already processing", slog.Int("round_id", current.ID))
		return nil
	}
	defer s.release(current.ID)

	s.logger.Info("round ending", slog.Int("round_id", current.ID))
	if _, err := s.ProcessRoundEliminations(ctx, current.ID); err != nil {
		return err
	}

	next, err := s.CreateNextRound(ctx, current.GameID)
	if err != nil {
		return err
	}

	attrs := []any{slog.Int("previous_round_id", current.ID)}
	if next != nil {
		attrs = append(attrs, slog.Int("new_round_id", next.ID))
	}
	s.logger.Info("round transition completed", attrs...)
	return nil
}

func (s *RoundService) tryAcquire(roundID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.processing[roundID]; busy {
		return false
	}
	s.processing[roundID] = struct{}{}
	return true
}

func (s *RoundService) release(roundID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processing, roundID)
}

// RoundStatus reports the current round with live aggregates, or nil when no
// round is running. The four counters are independent reads and fan out in
// parallel.
func (s *RoundService) RoundStatus(ctx context.Context) (*models.RoundStatusReport, error) {
	current, err := s.CurrentRound(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	now := time.Now().UTC()
	report := &models.RoundStatusReport{
		RoundID:       current.ID,
		Status:        current.Status,
		StartTime:     current.StartTime,
		EndTime:       current.EndTime,
		TimeRemaining: current.EndTime.Sub(now).Milliseconds(),
	}
	if total := current.EndTime.Sub(current.StartTime); total > 0 {
		report.Progress = float64(now.Sub(current.StartTime)) / float64(total) * 100
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.participantRepo.CountActiveTeams(gctx, current.ID)
		report.Stats.TotalTeams = n
		return err
	})
	g.Go(func() error {
		n, err := s.participantRepo.CountActiveUsers(gctx, current.ID)
		report.Stats.TotalUsers = n
		return err
	})
	g.Go(func() error {
		posts, likes, err := s.postRepo.RoundAggregates(gctx, current.ID)
		report.Stats.TotalPosts = posts
		report.Stats.TotalLikes = likes
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// RoundStats is the historical view of any round, active or completed.
func (s *RoundService) RoundStats(ctx context.Context, roundID int) (*models.RoundStats, error) {
	round, err := s.roundRepo.GetByID(ctx, roundID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}

	stats := &models.RoundStats{Round: round}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		buckets, err := s.participantRepo.StatusBuckets(gctx, roundID)
		stats.ParticipantStats = buckets
		return err
	})
	g.Go(func() error {
		posts, likes, err := s.postRepo.RoundAggregates(gctx, roundID)
		stats.PostCount = posts
		stats.TotalLikes = likes
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// TeamCutoffs returns, per team, the like count of that team's strongest
// eliminated player for the round.
func (s *RoundService) TeamCutoffs(ctx context.Context, roundID int) ([]models.TeamCutoff, error) {
	return s.eliminationRepo.TeamCutoffs(ctx, roundID)
}

// TeamEliminations is a team's full elimination history, newest round first.
func (s *RoundService) TeamEliminations(ctx context.Context, team int) ([]models.Elimination, error) {
	if team < 0 {
		return nil, ErrInvalidTeam
	}
	return s.eliminationRepo.ListByTeam(ctx, team)
}
