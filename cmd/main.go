package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/austinlparker/bsky-bracket/config"
	"github.com/austinlparker/bsky-bracket/db"
	"github.com/austinlparker/bsky-bracket/firehose"
	"github.com/austinlparker/bsky-bracket/handlers"
	"github.com/austinlparker/bsky-bracket/middleware"
	"github.com/austinlparker/bsky-bracket/repositories"
	api "github.com/austinlparker/bsky-bracket/routes"
	"github.com/austinlparker/bsky-bracket/services"
	"github.com/austinlparker/bsky-bracket/teams"
	"github.com/go-chi/chi/v5"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Int("total_teams", cfg.TotalTeams),
		slog.Duration("game_duration", cfg.GameDuration),
		slog.Duration("round_duration", cfg.RoundDuration),
	)

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(context.Background(), dbConn); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema up to date")

	// Repositories.
	txRunner := repositories.NewTxRunner(dbConn)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	gameRepo := repositories.NewPostgresGameRepository(dbConn)
	gameParticipantRepo := repositories.NewPostgresGameParticipantRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	roundParticipantRepo := repositories.NewPostgresRoundParticipantRepository(dbConn)
	postRepo := repositories.NewPostgresPostRepository(dbConn)
	eliminationRepo := repositories.NewPostgresEliminationRepository(dbConn)
	subStateRepo := repositories.NewPostgresSubStateRepository(dbConn)
	logger.Info("repositories initialized")

	// Services.
	assigner := teams.NewAssigner(cfg.TotalTeams)
	gameService := services.NewGameService(
		txRunner,
		gameRepo,
		gameParticipantRepo,
		userRepo,
		roundRepo,
		roundParticipantRepo,
		postRepo,
		services.GameServiceConfig{
			GameDuration:    cfg.GameDuration,
			RoundDuration:   cfg.RoundDuration,
			PlayersPerTeam:  cfg.PlayersPerTeam,
			TotalTeams:      cfg.TotalTeams,
			MinUsersPerTeam: cfg.MinUsersPerTeam,
		},
		logger,
	)
	roundService := services.NewRoundService(
		txRunner,
		gameService,
		gameRepo,
		roundRepo,
		roundParticipantRepo,
		gameParticipantRepo,
		postRepo,
		eliminationRepo,
		cfg.RoundDuration,
		logger,
	)
	feedService := services.NewFeedService(userRepo, postRepo, logger)
	ingestService := services.NewIngestService(userRepo, postRepo, gameService, assigner, logger)
	statsService := services.NewStatsService(gameService, roundService, gameParticipantRepo, roundRepo, roundParticipantRepo, userRepo)
	logger.Info("services initialized")

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One reconcile pass before the tickers take over, so a restart during a
	// registration window does not leave the game stuck.
	if _, err := gameService.EnsureActiveGame(rootCtx); err != nil {
		logger.Error("initial game reconciliation failed", slog.Any("error", err))
	}

	scheduler := services.NewScheduler(gameService, roundService, cfg.GameCheckInterval, cfg.RoundCheckInterval, logger)
	go scheduler.Run(rootCtx)

	firehoseClient := firehose.NewClient(cfg.FirehoseURL, ingestService, subStateRepo, cfg.FirehoseReconnectDelay, logger)
	go firehoseClient.Run(rootCtx)

	// HTTP layer.
	auth := middleware.NewAuthenticator(cfg.JWTSecretKey)
	gameHandler := handlers.NewGameHandler(gameService)
	roundHandler := handlers.NewRoundHandler(roundService)
	teamHandler := handlers.NewTeamHandler(statsService, roundService)
	statsHandler := handlers.NewStatsHandler(statsService)
	feedHandler := handlers.NewFeedHandler(feedService)

	router := chi.NewRouter()
	api.SetupRoutes(router, auth, gameHandler, roundHandler, teamHandler, statsHandler, feedHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
