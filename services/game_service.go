package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/austinlparker/bsky-bracket/models"
	"github.com/austinlparker/bsky-bracket/repositories"
)

// GameServiceConfig carries the tournament tunables.
type GameServiceConfig struct {
	GameDuration    time.Duration
	RoundDuration   time.Duration
	PlayersPerTeam  int
	TotalTeams      int
	MinUsersPerTeam int
}

// GameService owns every Game, GameParticipant and User.current_game_id
// transition. All multi-entity mutations run inside a single transaction so a
// concurrent user arrival can never observe a half-created game.
type GameService struct {
	txRunner          repositories.TxRunner
	gameRepo          repositories.GameRepository
	participantRepo   repositories.GameParticipantRepository
	userRepo          repositories.UserRepository
	roundRepo         repositories.RoundRepository
	roundParticipants repositories.RoundParticipantRepository
	postRepo          repositories.PostRepository

	cfg    GameServiceConfig
	logger *slog.Logger
}

func NewGameService(
	txRunner repositories.TxRunner,
	gameRepo repositories.GameRepository,
	participantRepo repositories.GameParticipantRepository,
	userRepo repositories.UserRepository,
	roundRepo repositories.RoundRepository,
	roundParticipants repositories.RoundParticipantRepository,
	postRepo repositories.PostRepository,
	cfg GameServiceConfig,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		txRunner:          txRunner,
		gameRepo:          gameRepo,
		participantRepo:   participantRepo,
		userRepo:          userRepo,
		roundRepo:         roundRepo,
		roundParticipants: roundParticipants,
		postRepo:          postRepo,
		cfg:               cfg,
		logger:            logger.With(slog.String("component", "games")),
	}
}

// CurrentGame returns the single game in registration or active status, or
// nil when none is running.
func (s *GameService) CurrentGame(ctx context.Context) (*models.Game, error) {
	game, err := s.gameRepo.GetCurrent(ctx, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return game, nil
}

// CreateGame opens a new game in registration status and enrolls every
// currently unassigned user. Returns (nil, nil) when some team is below the
// per-team minimum, an expected outcome rather than an error. The readiness
// check and the bulk assignment share one transaction.
func (s *GameService) CreateGame(ctx context.Context) (*models.Game, error) {
	now := time.Now().UTC()
	game := &models.Game{
		StartTime:         now,
		EndTime:           now.Add(s.cfg.GameDuration),
		Status:            models.GameStatusRegistration,
		MaxPlayersPerTeam: s.cfg.PlayersPerTeam,
	}

	var notReady bool
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		counts, err := s.userRepo.CountUnassignedByTeam(ctx, exec, s.cfg.MinUsersPerTeam)
		if err != nil {
			return err
		}
		if missing := missingTeams(counts, s.cfg.TotalTeams); len(missing) > 0 {
			s.logger.Info("not enough users for all teams",
				slog.Int("teams_with_min_users", len(counts)),
				slog.Int("missing_teams", len(missing)),
				slog.Int("min_users_per_team", s.cfg.MinUsersPerTeam),
			)
			notReady = true
			return nil
		}

		if err := s.gameRepo.Create(ctx, exec, game); err != nil {
			return err
		}
		assigned, err := s.assignUsers(ctx, exec, game.ID, now)
		if err != nil {
			return err
		}

		s.logger.Info("new game created",
			slog.Int("game_id", game.ID),
			slog.Int("participants", assigned),
			slog.Time("end_time", game.EndTime),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notReady {
		return nil, nil
	}
	return game, nil
}

// assignUsers enrolls every unassigned user into the game, in fixed-size
// batches to keep individual statements bounded. Runs inside the caller's
// transaction, so a mid-batch failure rolls everything back.
func (s *GameService) assignUsers(ctx context.Context, exec repositories.SQLExecutor, gameID int, now time.Time) (int, error) {
	unassigned, err := s.userRepo.ListUnassigned(ctx, exec)
	if err != nil {
		return 0, err
	}

	for i := 0; i < len(unassigned); i += batchSize {
		end := i + batchSize
		if end > len(unassigned) {
			end = len(unassigned)
		}
		batch := unassigned[i:end]

		participants := make([]models.GameParticipant, 0, len(batch))
		dids := make([]string, 0, len(batch))
		for _, u := range batch {
			participants = append(participants, models.GameParticipant{
				GameID:   gameID,
				UserID:   u.DID,
				Team:     u.Team,
				JoinedAt: now,
				Status:   models.ParticipantActive,
			})
			dids = append(dids, u.DID)
		}

		if err := s.participantRepo.CreateBatch(ctx, exec, participants); err != nil {
			return 0, err
		}
		if err := s.userRepo.AssignCurrentGame(ctx, exec, dids, gameID); err != nil {
			return 0, err
		}
	}
	return len(unassigned), nil
}

// StartGame flips a registration game to active: re-validates readiness
// against the game's own active participants, creates the initial round,
// seeds round participants, and backfills posts written since the game
// opened. Returns (nil, nil) when the game is not in registration or a team
// fell below quota; both are no-ops for the periodic driver.
func (s *GameService) StartGame(ctx context.Context, gameID int) (*models.Round, error) {
	now := time.Now().UTC()

	var round *models.Round
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		game, err := s.gameRepo.GetByIDInStatus(ctx, exec, gameID, models.GameStatusRegistration)
		if err != nil {
			if errors.Is(err, repositories.ErrGameWrongStatus) {
				s.logger.Warn("game not in registration status, skipping start", slog.Int("game_id", gameID))
				return nil
			}
			return err
		}

		counts, err := s.participantRepo.CountActiveByTeam(ctx, exec, gameID, s.cfg.MinUsersPerTeam)
		if err != nil {
			return err
		}
		if missing := missingTeams(counts, s.cfg.TotalTeams); len(missing) > 0 {
			s.logger.Info("not enough active users in all teams to start game",
				slog.Int("game_id", gameID),
				slog.Int("missing_teams", len(missing)),
			)
			return nil
		}

		r := &models.Round{
			GameID:    gameID,
			StartTime: now,
			EndTime:   now.Add(s.cfg.RoundDuration),
			Status:    models.RoundStatusActive,
		}
		if err := s.roundRepo.Create(ctx, exec, r); err != nil {
			return err
		}

		participants, err := s.participantRepo.ListActive(ctx, exec, gameID)
		if err != nil {
			return err
		}
		if err := s.seedRoundParticipants(ctx, exec, r.ID, participants); err != nil {
			return err
		}
		if err := s.gameRepo.Activate(ctx, exec, gameID, r.ID); err != nil {
			return err
		}
		if err := s.backfillPosts(ctx, exec, game, r, participants); err != nil {
			return err
		}

		s.logger.Info("game started",
			slog.Int("game_id", gameID),
			slog.Int("round_id", r.ID),
			slog.Int("participants", len(participants)),
			slog.Int("active_teams", len(counts)),
		)
		round = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return round, nil
}

func (s *GameService) seedRoundParticipants(ctx context.Context, exec repositories.SQLExecutor, roundID int, participants []models.GameParticipant) error {
	for i := 0; i < len(participants); i += batchSize {
		end := i + batchSize
		if end > len(participants) {
			end = len(participants)
		}
		batch := participants[i:end]

		seeds := make([]models.RoundParticipant, 0, len(batch))
		for _, p := range batch {
			seeds = append(seeds, models.RoundParticipant{
				RoundID: roundID,
				UserID:  p.UserID,
				Team:    p.Team,
				Status:  models.ParticipantActive,
			})
		}
		if err := s.roundParticipants.CreateBatch(ctx, exec, seeds); err != nil {
			return err
		}
	}
	return nil
}

// backfillPosts retroactively tags participants' posts written between the
// game opening and the first round's end, batched by author.
func (s *GameService) backfillPosts(ctx context.Context, exec repositories.SQLExecutor, game *models.Game, round *models.Round, participants []models.GameParticipant) error {
	for i := 0; i < len(participants); i += batchSize {
		end := i + batchSize
		if end > len(participants) {
			end = len(participants)
		}
		dids := make([]string, 0, end-i)
		for _, p := range participants[i:end] {
			dids = append(dids, p.UserID)
		}
		if err := s.postRepo.BackfillGameRound(ctx, exec, game.ID, round.ID, dids, game.StartTime, round.EndTime); err != nil {
			return err
		}
	}

	updated, err := s.postRepo.CountByGameRound(ctx, exec, game.ID, round.ID)
	if err != nil {
		return err
	}
	s.logger.Info("game posts backfilled",
		slog.Int("game_id", game.ID),
		slog.Int("round_id", round.ID),
		slog.Int("posts", updated),
	)
	return nil
}

// CompleteGame picks the winner (the team whose still-active participants
// accumulated the most round likes, lower team number on a tie), marks the
// game completed and frees every enrolled user for the next game.
func (s *GameService) CompleteGame(ctx context.Context, gameID int) error {
	return s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		scores, err := s.participantRepo.ActiveTeamScores(ctx, exec, gameID)
		if err != nil {
			return err
		}

		var winner *int
		if len(scores) > 0 {
			winner = &scores[0].Team
		}

		if err := s.gameRepo.Complete(ctx, exec, gameID, winner); err != nil {
			return err
		}
		if err := s.userRepo.ClearCurrentGame(ctx, exec, gameID); err != nil {
			return err
		}

		attrs := []any{slog.Int("game_id", gameID)}
		if winner != nil {
			attrs = append(attrs, slog.Int("winning_team", *winner), slog.Int("winning_likes", scores[0].TotalLikes))
		}
		s.logger.Info("game completed", attrs...)
		return nil
	})
}

// EnsureActiveGame is the idempotent reconciliation step: create a game if
// none exists, start it if it is still in registration. Insufficient users is
// an expected outcome and never an error.
func (s *GameService) EnsureActiveGame(ctx context.Context) (*models.Game, error) {
	current, err := s.CurrentGame(ctx)
	if err != nil {
		return nil, err
	}

	if current == nil {
		s.logger.Info("no active game found, attempting to create one")
		game, err := s.CreateGame(ctx)
		if err != nil {
			return nil, err
		}
		if game == nil {
			return nil, nil
		}
		if _, err := s.StartGame(ctx, game.ID); err != nil {
			return nil, err
		}
		return game, nil
	}

	if current.Status == models.GameStatusRegistration {
		if _, err := s.StartGame(ctx, current.ID); err != nil {
			return nil, err
		}
	}
	return current, nil
}

// CheckGameStatus is the periodic game tick: roll a game over when its time
// is up, otherwise make sure one exists. Completion is purely time-gated;
// elimination state never ends a game early.
func (s *GameService) CheckGameStatus(ctx context.Context) error {
	current, err := s.CurrentGame(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		_, err := s.EnsureActiveGame(ctx)
		return err
	}

	if !current.EndTime.After(time.Now().UTC()) {
		if err := s.CompleteGame(ctx, current.ID); err != nil {
			return err
		}
		_, err := s.EnsureActiveGame(ctx)
		return err
	}
	return nil
}
