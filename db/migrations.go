package db

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    did TEXT PRIMARY KEY,
    handle TEXT,
    display_name TEXT,
    first_seen TIMESTAMPTZ NOT NULL,
    team INTEGER NOT NULL,
    current_game_id INTEGER
);

CREATE TABLE IF NOT EXISTS posts (
    uri TEXT PRIMARY KEY,
    cid TEXT NOT NULL,
    indexed_at TIMESTAMPTZ NOT NULL,
    team INTEGER NOT NULL,
    user_id TEXT NOT NULL,
    game_id INTEGER,
    round_id INTEGER,
    like_count INTEGER NOT NULL DEFAULT 0,
    active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS sub_state (
    service TEXT PRIMARY KEY,
    cursor BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS games (
    id SERIAL PRIMARY KEY,
    start_time TIMESTAMPTZ NOT NULL,
    end_time TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL,
    max_players_per_team INTEGER NOT NULL,
    current_round_id INTEGER,
    winner INTEGER
);

CREATE TABLE IF NOT EXISTS game_participants (
    game_id INTEGER NOT NULL REFERENCES games(id),
    user_id TEXT NOT NULL REFERENCES users(did),
    team INTEGER NOT NULL,
    joined_at TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (game_id, user_id)
);

CREATE TABLE IF NOT EXISTS rounds (
    id SERIAL PRIMARY KEY,
    game_id INTEGER NOT NULL REFERENCES games(id),
    start_time TIMESTAMPTZ NOT NULL,
    end_time TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL,
    cutoff_likes INTEGER
);

CREATE TABLE IF NOT EXISTS round_participants (
    round_id INTEGER NOT NULL REFERENCES rounds(id),
    user_id TEXT NOT NULL REFERENCES users(did),
    team INTEGER NOT NULL,
    total_likes INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    PRIMARY KEY (round_id, user_id)
);

CREATE TABLE IF NOT EXISTS eliminations (
    round_id INTEGER NOT NULL REFERENCES rounds(id),
    user_id TEXT NOT NULL REFERENCES users(did),
    team INTEGER NOT NULL,
    like_count INTEGER NOT NULL,
    eliminated_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (round_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_users_current_game ON users(current_game_id);
CREATE INDEX IF NOT EXISTS idx_users_team ON users(team);
CREATE INDEX IF NOT EXISTS idx_posts_team_indexed ON posts(team, indexed_at DESC);
CREATE INDEX IF NOT EXISTS idx_posts_user ON posts(user_id);
CREATE INDEX IF NOT EXISTS idx_posts_round ON posts(round_id);
CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
CREATE INDEX IF NOT EXISTS idx_game_participants_status ON game_participants(game_id, status);
CREATE INDEX IF NOT EXISTS idx_round_participants_status ON round_participants(round_id, status);
CREATE INDEX IF NOT EXISTS idx_eliminations_team ON eliminations(team, round_id DESC);
`

// Migrate applies the schema. Statements are idempotent so running this on
// every start is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema migrations: %w", err)
	}
	return nil
}
