package services

import (
	"context"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/austinlparker/bsky-bracket/repositories"
	"golang.org/x/sync/errgroup"
)

// StatsService assembles the read-only dashboard views.
type StatsService struct {
	gameService  *GameService
	roundService *RoundService
	participants repositories.GameParticipantRepository
	roundRepo    repositories.RoundRepository
	roundParts   repositories.RoundParticipantRepository
	userRepo     repositories.UserRepository
}

func NewStatsService(
	gameService *GameService,
	roundService *RoundService,
	participants repositories.GameParticipantRepository,
	roundRepo repositories.RoundRepository,
	roundParts repositories.RoundParticipantRepository,
	userRepo repositories.UserRepository,
) *StatsService {
	return &StatsService{
		gameService:  gameService,
		roundService: roundService,
		participants: participants,
		roundRepo:    roundRepo,
		roundParts:   roundParts,
		userRepo:     userRepo,
	}
}

// CurrentOverview is the whole dashboard in one call: current game and round,
// the lowest like total still surviving (the projected elimination threshold),
// per-team enrollment and the game's round history.
func (s *StatsService) CurrentOverview(ctx context.Context) (*models.StatsOverview, error) {
	overview := &models.StatsOverview{
		Teams:  make([]models.TeamPlayerStat, 0),
		Rounds: make([]models.RoundSummary, 0),
	}

	game, err := s.gameService.CurrentGame(ctx)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return overview, nil
	}
	overview.Game = game

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.participants.TeamPlayerStats(gctx, game.ID)
		if err == nil {
			overview.Teams = teams
		}
		return err
	})
	g.Go(func() error {
		rounds, err := s.roundRepo.ListSummariesByGame(gctx, game.ID)
		if err == nil {
			overview.Rounds = rounds
		}
		return err
	})
	if game.CurrentRoundID != nil {
		roundID := *game.CurrentRoundID
		g.Go(func() error {
			round, err := s.roundRepo.GetByID(gctx, roundID)
			if err == nil {
				overview.CurrentRound = round
			}
			return err
		})
		g.Go(func() error {
			threshold, err := s.roundParts.MinActiveTotal(gctx, roundID)
			if err == nil {
				overview.ProjectedThreshold = threshold
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return overview, nil
}

// TeamMemberCounts exposes the global team roster sizes.
func (s *StatsService) TeamMemberCounts(ctx context.Context) ([]models.TeamCount, error) {
	return s.userRepo.TeamMemberCounts(ctx)
}
