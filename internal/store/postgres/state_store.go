package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// StateStore implements domain.StateStore on the system_state table. It
// holds small pipeline state that must survive restarts, such as the
// credential rotation cursor.
type StateStore struct {
	pool *pgxpool.Pool
}

// NewStateStore creates a new StateStore backed by the given connection pool.
func NewStateStore(pool *pgxpool.Pool) *StateStore {
	return &StateStore{pool: pool}
}

// Get returns the value for key or domain.ErrNotFound.
func (s *StateStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM system_state WHERE key = $1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("postgres: get state %s: %w", key, err)
	}
	return value, nil
}

// Set writes the value for key, overwriting any previous value.
func (s *StateStore) Set(ctx context.Context, key, value string) error {
	const query = `
		INSERT INTO system_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET
			value      = EXCLUDED.value,
			updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("postgres: set state %s: %w", key, err)
	}
	return nil
}
