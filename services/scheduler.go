package services

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives the two periodic lifecycle checks. Errors from a tick are
// logged and swallowed so one bad pass never stops the loops; the next tick
// retries from current state.
type Scheduler struct {
	gameService  *GameService
	roundService *RoundService

	gameInterval  time.Duration
	roundInterval time.Duration
	logger        *slog.Logger
}

func NewScheduler(gameService *GameService, roundService *RoundService, gameInterval, roundInterval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		gameService:   gameService,
		roundService:  roundService,
		gameInterval:  gameInterval,
		roundInterval: roundInterval,
		logger:        logger.With(slog.String("component", "scheduler")),
	}
}

// Run blocks until ctx is cancelled. Both checks fire once immediately so a
// restart picks up expired games and rounds without waiting a full interval.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started",
		slog.Duration("game_interval", s.gameInterval),
		slog.Duration("round_interval", s.roundInterval),
	)

	s.tickGames(ctx)
	s.tickRounds(ctx)

	gameTicker := time.NewTicker(s.gameInterval)
	defer gameTicker.Stop()
	roundTicker := time.NewTicker(s.roundInterval)
	defer roundTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-gameTicker.C:
			s.tickGames(ctx)
		case <-roundTicker.C:
			s.tickRounds(ctx)
		}
	}
}

func (s *Scheduler) tickGames(ctx context.Context) {
	if err := s.gameService.CheckGameStatus(ctx); err != nil {
		s.logger.Error("game status check failed", slog.Any("error", err))
	}
}

func (s *Scheduler) tickRounds(ctx context.Context) {
	if err := s.roundService.CheckAndProgressRound(ctx); err != nil {
		s.logger.Error("round progression check failed", slog.Any("error", err))
	}
}
