package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// MatchStore implements domain.MatchStore using PostgreSQL. Bookmaker quotes
// are stored as a JSONB document per match; the pipeline always reads and
// writes them as a unit.
type MatchStore struct {
	pool *pgxpool.Pool
}

// NewMatchStore creates a new MatchStore backed by the given connection pool.
func NewMatchStore(pool *pgxpool.Pool) *MatchStore {
	return &MatchStore{pool: pool}
}

const matchSelectCols = `id, sport_key, sport_title, commence_time, home_team, away_team, bookmakers`

// Upsert inserts a match snapshot or replaces an existing one by ID.
func (s *MatchStore) Upsert(ctx context.Context, match domain.MatchQuote) error {
	const query = `
		INSERT INTO matches (
			id, sport_key, sport_title, commence_time, home_team, away_team, bookmakers, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE SET
			sport_key     = EXCLUDED.sport_key,
			sport_title   = EXCLUDED.sport_title,
			commence_time = EXCLUDED.commence_time,
			home_team     = EXCLUDED.home_team,
			away_team     = EXCLUDED.away_team,
			bookmakers    = EXCLUDED.bookmakers,
			updated_at    = NOW()`

	bookmakers, err := json.Marshal(match.Bookmakers)
	if err != nil {
		return fmt.Errorf("postgres: marshal bookmakers for %s: %w", match.ID, err)
	}

	_, err = s.pool.Exec(ctx, query,
		match.ID, match.SportKey, match.SportTitle, match.CommenceTime,
		match.HomeTeam, match.AwayTeam, bookmakers,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert match %s: %w", match.ID, err)
	}
	return nil
}

// GetByID returns a single match snapshot or domain.ErrNotFound.
func (s *MatchStore) GetByID(ctx context.Context, id string) (domain.MatchQuote, error) {
	query := `SELECT ` + matchSelectCols + ` FROM matches WHERE id = $1`

	match, err := scanMatch(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MatchQuote{}, domain.ErrNotFound
		}
		return domain.MatchQuote{}, fmt.Errorf("postgres: get match %s: %w", id, err)
	}
	return match, nil
}

// ListCommencedBefore returns matches starting strictly before the cutoff,
// oldest first.
func (s *MatchStore) ListCommencedBefore(ctx context.Context, before time.Time) ([]domain.MatchQuote, error) {
	query := `SELECT ` + matchSelectCols + ` FROM matches
		WHERE commence_time < $1 ORDER BY commence_time ASC`

	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list matches before %v: %w", before, err)
	}
	defer rows.Close()

	var matches []domain.MatchQuote
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list matches rows: %w", err)
	}
	return matches, nil
}

// DeleteCommencedBefore removes matches starting strictly before the cutoff
// and returns the number of rows deleted.
func (s *MatchStore) DeleteCommencedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM matches WHERE commence_time < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete matches before %v: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

// Count returns the total number of stored matches.
func (s *MatchStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM matches`).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres: count matches: %w", err)
	}
	return count, nil
}

func scanMatch(row pgx.Row) (domain.MatchQuote, error) {
	var (
		match      domain.MatchQuote
		bookmakers []byte
	)
	if err := row.Scan(
		&match.ID, &match.SportKey, &match.SportTitle, &match.CommenceTime,
		&match.HomeTeam, &match.AwayTeam, &bookmakers,
	); err != nil {
		return domain.MatchQuote{}, err
	}
	if err := json.Unmarshal(bookmakers, &match.Bookmakers); err != nil {
		return domain.MatchQuote{}, fmt.Errorf("unmarshal bookmakers: %w", err)
	}
	return match, nil
}
