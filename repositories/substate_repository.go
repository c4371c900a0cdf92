package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SubStateRepository persists the firehose resume cursor, one row per
// upstream service.
type SubStateRepository interface {
	GetCursor(ctx context.Context, service string) (int64, error)
	SetCursor(ctx context.Context, service string, cursor int64) error
}

type postgresSubStateRepository struct {
	db *sql.DB
}

func NewPostgresSubStateRepository(db *sql.DB) SubStateRepository {
	return &postgresSubStateRepository{db: db}
}

// GetCursor returns zero when no cursor has been stored yet.
func (r *postgresSubStateRepository) GetCursor(ctx context.Context, service string) (int64, error) {
	query := `SELECT cursor FROM sub_state WHERE service = $1`

	var cursor int64
	err := r.db.QueryRowContext(ctx, query, service).Scan(&cursor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load cursor for %s: %w", service, err)
	}
	return cursor, nil
}

func (r *postgresSubStateRepository) SetCursor(ctx context.Context, service string, cursor int64) error {
	query := `
		INSERT INTO sub_state (service, cursor)
		VALUES ($1, $2)
		ON CONFLICT (service) DO UPDATE SET cursor = EXCLUDED.cursor`

	if _, err := r.db.ExecContext(ctx, query, service, cursor); err != nil {
		return fmt.Errorf("failed to store cursor for %s: %w", service, err)
	}
	return nil
}
