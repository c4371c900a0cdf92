package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the application.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	FirehoseURL            string
	FirehoseReconnectDelay time.Duration

	GameDuration  time.Duration
	RoundDuration time.Duration

	PlayersPerTeam  int
	TotalTeams      int
	MinUsersPerTeam int

	GameCheckInterval  time.Duration
	RoundCheckInterval time.Duration
}

// Load reads configuration from environment variables, optionally picking up
// a .env file first (handy for local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	gameHours, err := intEnv("GAME_DURATION_HOURS", 168)
	if err != nil {
		return nil, err
	}
	roundHours, err := intEnv("ROUND_DURATION_HOURS", 24)
	if err != nil {
		return nil, err
	}
	if gameHours <= 0 || roundHours <= 0 {
		return nil, fmt.Errorf("game and round durations must be positive, got %dh/%dh", gameHours, roundHours)
	}

	playersPerTeam, err := intEnv("PLAYERS_PER_TEAM", 64)
	if err != nil {
		return nil, err
	}
	totalTeams, err := intEnv("TOTAL_TEAMS", 512)
	if err != nil {
		return nil, err
	}
	minUsersPerTeam, err := intEnv("MIN_USERS_PER_TEAM", 16)
	if err != nil {
		return nil, err
	}
	if totalTeams <= 0 || minUsersPerTeam <= 0 {
		return nil, fmt.Errorf("TOTAL_TEAMS and MIN_USERS_PER_TEAM must be positive")
	}

	gameCheckSec, err := intEnv("GAME_CHECK_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	roundCheckSec, err := intEnv("ROUND_CHECK_INTERVAL_SECONDS", 60)
	if err != nil {
		return nil, err
	}

	reconnectMs, err := intEnv("FIREHOSE_RECONNECT_DELAY_MS", 3000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:            dbURL,
		JWTSecretKey:           jwtKey,
		ServerPort:             port,
		FirehoseURL:            envOrDefault("FIREHOSE_URL", "wss://jetstream.example.com/subscribe"),
		FirehoseReconnectDelay: time.Duration(reconnectMs) * time.Millisecond,
		GameDuration:           time.Duration(gameHours) * time.Hour,
		RoundDuration:          time.Duration(roundHours) * time.Hour,
		PlayersPerTeam:         playersPerTeam,
		TotalTeams:             totalTeams,
		MinUsersPerTeam:        minUsersPerTeam,
		GameCheckInterval:      time.Duration(gameCheckSec) * time.Second,
		RoundCheckInterval:     time.Duration(roundCheckSec) * time.Second,
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}
