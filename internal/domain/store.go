package domain

import (
	"context"
	"time"
)

// MatchStore persists historical match quote snapshots.
type MatchStore interface {
	Upsert(ctx context.Context, match MatchQuote) error
	GetByID(ctx context.Context, id string) (MatchQuote, error)
	// ListCommencedBefore returns matches whose start time is strictly
	// before the cutoff. Used by the archiver.
	ListCommencedBefore(ctx context.Context, before time.Time) ([]MatchQuote, error)
	DeleteCommencedBefore(ctx context.Context, before time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// OpportunityStore persists arbitrage opportunities, one row per match ID.
type OpportunityStore interface {
	Upsert(ctx context.Context, opp Opportunity) error
	GetByMatchID(ctx context.Context, matchID string) (Opportunity, error)
	// MarkPastExcept transitions every live opportunity whose match ID is
	// not in keepIDs to past, returning the number of rows changed. An empty
	// keepIDs marks every live row past.
	MarkPastExcept(ctx context.Context, keepIDs []string) (int64, error)
	List(ctx context.Context, status OpportunityStatus, limit int) ([]Opportunity, error)
	ListAll(ctx context.Context) ([]Opportunity, error)
	// ListPastUpdatedBefore returns past opportunities last touched before
	// the cutoff. Used by the archiver.
	ListPastUpdatedBefore(ctx context.Context, before time.Time) ([]Opportunity, error)
	DeletePastUpdatedBefore(ctx context.Context, before time.Time) (int64, error)
}

// StateStore is a small durable key/value store for pipeline state such as
// the credential rotation cursor.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
