package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddsarb/oddsarb/internal/domain"
)

func liveOpp(matchID string) domain.Opportunity {
	return domain.Opportunity{
		MatchID:          matchID,
		HomeTeam:         "Home " + matchID,
		AwayTeam:         "Away " + matchID,
		ProfitPercentage: 2.5,
		LastUpdated:      time.Now().UTC(),
		Status:           domain.StatusLive,
	}
}

func statusOf(t *testing.T, store *fakeOpportunityStore, matchID string) domain.OpportunityStatus {
	t.Helper()
	opp, err := store.GetByMatchID(context.Background(), matchID)
	require.NoError(t, err)
	return opp.Status
}

// TestReconcileTransitions demotes live opportunities absent from the found
// set and upserts the found set as live.
func TestReconcileTransitions(t *testing.T) {
	ctx := context.Background()
	store := newFakeOpportunityStore()
	require.NoError(t, store.Upsert(ctx, liveOpp("A")))
	require.NoError(t, store.Upsert(ctx, liveOpp("B")))

	rec := NewReconciler(store, false, discardLogger())
	require.NoError(t, rec.Reconcile(ctx, []domain.Opportunity{liveOpp("B"), liveOpp("C")}))

	assert.Equal(t, domain.StatusPast, statusOf(t, store, "A"))
	assert.Equal(t, domain.StatusLive, statusOf(t, store, "B"))
	assert.Equal(t, domain.StatusLive, statusOf(t, store, "C"))
}

// TestReconcileIdempotent transitions nothing on a second pass with the same
// input.
func TestReconcileIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeOpportunityStore()
	rec := NewReconciler(store, false, discardLogger())

	found := []domain.Opportunity{liveOpp("A"), liveOpp("B")}
	require.NoError(t, rec.Reconcile(ctx, found))
	require.NoError(t, rec.Reconcile(ctx, found))

	assert.Equal(t, domain.StatusLive, statusOf(t, store, "A"))
	assert.Equal(t, domain.StatusLive, statusOf(t, store, "B"))

	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// TestReconcileEmptyFoundKeepsLive leaves the live set untouched on an empty
// scan when wholesale expiry is disabled.
func TestReconcileEmptyFoundKeepsLive(t *testing.T) {
	ctx := context.Background()
	store := newFakeOpportunityStore()
	require.NoError(t, store.Upsert(ctx, liveOpp("A")))

	rec := NewReconciler(store, false, discardLogger())
	require.NoError(t, rec.Reconcile(ctx, nil))

	assert.Equal(t, domain.StatusLive, statusOf(t, store, "A"))
}

// TestReconcileEmptyFoundExpiresAll demotes everything on an empty scan when
// wholesale expiry is enabled.
func TestReconcileEmptyFoundExpiresAll(t *testing.T) {
	ctx := context.Background()
	store := newFakeOpportunityStore()
	require.NoError(t, store.Upsert(ctx, liveOpp("A")))
	require.NoError(t, store.Upsert(ctx, liveOpp("B")))

	rec := NewReconciler(store, true, discardLogger())
	require.NoError(t, rec.Reconcile(ctx, nil))

	assert.Equal(t, domain.StatusPast, statusOf(t, store, "A"))
	assert.Equal(t, domain.StatusPast, statusOf(t, store, "B"))
}

// TestReconcileRevival brings a past opportunity back to live when it shows
// up in a later scan.
func TestReconcileRevival(t *testing.T) {
	ctx := context.Background()
	store := newFakeOpportunityStore()
	past := liveOpp("A")
	past.Status = domain.StatusPast
	require.NoError(t, store.Upsert(ctx, past))

	rec := NewReconciler(store, false, discardLogger())
	require.NoError(t, rec.Reconcile(ctx, []domain.Opportunity{liveOpp("A")}))

	assert.Equal(t, domain.StatusLive, statusOf(t, store, "A"))
}
