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

// OpportunityStore implements domain.OpportunityStore using PostgreSQL. The
// match ID is the primary key: re-detecting an opportunity for the same
// match updates the row in place.
type OpportunityStore struct {
	pool *pgxpool.Pool
}

// NewOpportunityStore creates a new OpportunityStore backed by the given
// connection pool.
func NewOpportunityStore(pool *pgxpool.Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

const oppSelectCols = `match_id, sport_title, home_team, away_team, commence_time,
	profit_percentage, total_profit, bets, status, last_updated`

// Upsert inserts an opportunity or replaces an existing one by match ID.
func (s *OpportunityStore) Upsert(ctx context.Context, opp domain.Opportunity) error {
	const query = `
		INSERT INTO opportunities (
			match_id, sport_title, home_team, away_team, commence_time,
			profit_percentage, total_profit, bets, status, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (match_id) DO UPDATE SET
			sport_title       = EXCLUDED.sport_title,
			home_team         = EXCLUDED.home_team,
			away_team         = EXCLUDED.away_team,
			commence_time     = EXCLUDED.commence_time,
			profit_percentage = EXCLUDED.profit_percentage,
			total_profit      = EXCLUDED.total_profit,
			bets              = EXCLUDED.bets,
			status            = EXCLUDED.status,
			last_updated      = EXCLUDED.last_updated`

	bets, err := json.Marshal(opp.Bets)
	if err != nil {
		return fmt.Errorf("postgres: marshal bets for %s: %w", opp.MatchID, err)
	}

	_, err = s.pool.Exec(ctx, query,
		opp.MatchID, opp.SportTitle, opp.HomeTeam, opp.AwayTeam, opp.CommenceTime,
		opp.ProfitPercentage, opp.TotalProfitOn100, bets, opp.Status, opp.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert opportunity %s: %w", opp.MatchID, err)
	}
	return nil
}

// GetByMatchID returns a single opportunity or domain.ErrNotFound.
func (s *OpportunityStore) GetByMatchID(ctx context.Context, matchID string) (domain.Opportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities WHERE match_id = $1`

	opp, err := scanOpportunity(s.pool.QueryRow(ctx, query, matchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Opportunity{}, domain.ErrNotFound
		}
		return domain.Opportunity{}, fmt.Errorf("postgres: get opportunity %s: %w", matchID, err)
	}
	return opp, nil
}

// MarkPastExcept transitions every live opportunity whose match ID is not in
// keepIDs to past. With empty keepIDs every live row goes past.
func (s *OpportunityStore) MarkPastExcept(ctx context.Context, keepIDs []string) (int64, error) {
	const query = `
		UPDATE opportunities SET
			status       = $1,
			last_updated = NOW()
		WHERE status = $2 AND NOT (match_id = ANY($3))`

	if keepIDs == nil {
		keepIDs = []string{}
	}
	tag, err := s.pool.Exec(ctx, query, domain.StatusPast, domain.StatusLive, keepIDs)
	if err != nil {
		return 0, fmt.Errorf("postgres: mark opportunities past: %w", err)
	}
	return tag.RowsAffected(), nil
}

// List returns opportunities with the given status, most profitable first.
// A limit of zero means no limit.
func (s *OpportunityStore) List(ctx context.Context, status domain.OpportunityStatus, limit int) ([]domain.Opportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities
		WHERE status = $1 ORDER BY profit_percentage DESC`
	args := []any{status}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	return s.list(ctx, query, args...)
}

// ListAll returns every stored opportunity, live rows first, most profitable
// first within each status.
func (s *OpportunityStore) ListAll(ctx context.Context) ([]domain.Opportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities
		ORDER BY status ASC, profit_percentage DESC`
	return s.list(ctx, query)
}

// ListPastUpdatedBefore returns past opportunities last touched strictly
// before the cutoff, oldest first.
func (s *OpportunityStore) ListPastUpdatedBefore(ctx context.Context, before time.Time) ([]domain.Opportunity, error) {
	query := `SELECT ` + oppSelectCols + ` FROM opportunities
		WHERE status = $1 AND last_updated < $2 ORDER BY last_updated ASC`
	return s.list(ctx, query, domain.StatusPast, before)
}

// DeletePastUpdatedBefore removes past opportunities last touched strictly
// before the cutoff and returns the number of rows deleted.
func (s *OpportunityStore) DeletePastUpdatedBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM opportunities WHERE status = $1 AND last_updated < $2`,
		domain.StatusPast, before,
	)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete past opportunities before %v: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

func (s *OpportunityStore) list(ctx context.Context, query string, args ...any) ([]domain.Opportunity, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list opportunities: %w", err)
	}
	defer rows.Close()

	var opps []domain.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan opportunity: %w", err)
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list opportunities rows: %w", err)
	}
	return opps, nil
}

func scanOpportunity(row pgx.Row) (domain.Opportunity, error) {
	var (
		opp  domain.Opportunity
		bets []byte
	)
	if err := row.Scan(
		&opp.MatchID, &opp.SportTitle, &opp.HomeTeam, &opp.AwayTeam, &opp.CommenceTime,
		&opp.ProfitPercentage, &opp.TotalProfitOn100, &bets, &opp.Status, &opp.LastUpdated,
	); err != nil {
		return domain.Opportunity{}, err
	}
	if err := json.Unmarshal(bets, &opp.Bets); err != nil {
		return domain.Opportunity{}, fmt.Errorf("unmarshal bets: %w", err)
	}
	return opp, nil
}
