package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddsarb/oddsarb/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// stubOpportunityStore is an in-memory domain.OpportunityStore for handler
// tests.
type stubOpportunityStore struct {
	rows map[string]domain.Opportunity
	err  error
}

func newStubOpportunityStore(opps ...domain.Opportunity) *stubOpportunityStore {
	s := &stubOpportunityStore{rows: make(map[string]domain.Opportunity)}
	for _, o := range opps {
		s.rows[o.MatchID] = o
	}
	return s
}

func (s *stubOpportunityStore) Upsert(_ context.Context, opp domain.Opportunity) error {
	s.rows[opp.MatchID] = opp
	return nil
}

func (s *stubOpportunityStore) GetByMatchID(_ context.Context, matchID string) (domain.Opportunity, error) {
	if s.err != nil {
		return domain.Opportunity{}, s.err
	}
	opp, ok := s.rows[matchID]
	if !ok {
		return domain.Opportunity{}, domain.ErrNotFound
	}
	return opp, nil
}

func (s *stubOpportunityStore) MarkPastExcept(context.Context, []string) (int64, error) {
	return 0, nil
}

func (s *stubOpportunityStore) List(_ context.Context, status domain.OpportunityStatus, limit int) ([]domain.Opportunity, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Opportunity
	for _, o := range s.rows {
		if o.Status == status {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubOpportunityStore) ListAll(_ context.Context) ([]domain.Opportunity, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Opportunity
	for _, o := range s.rows {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}

func (s *stubOpportunityStore) ListPastUpdatedBefore(context.Context, time.Time) ([]domain.Opportunity, error) {
	return nil, nil
}

func (s *stubOpportunityStore) DeletePastUpdatedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// stubMatchStore only needs Count for the stats handler.
type stubMatchStore struct {
	count int64
}

func (s *stubMatchStore) Upsert(context.Context, domain.MatchQuote) error { return nil }
func (s *stubMatchStore) GetByID(context.Context, string) (domain.MatchQuote, error) {
	return domain.MatchQuote{}, domain.ErrNotFound
}
func (s *stubMatchStore) ListCommencedBefore(context.Context, time.Time) ([]domain.MatchQuote, error) {
	return nil, nil
}
func (s *stubMatchStore) DeleteCommencedBefore(context.Context, time.Time) (int64, error) {
	return 0, nil
}
func (s *stubMatchStore) Count(context.Context) (int64, error) { return s.count, nil }

type stubScanController struct {
	err       error
	triggered int
}

func (s *stubScanController) TriggerScan() error {
	s.triggered++
	return s.err
}

type stubCredentialResetter struct {
	err   error
	index int
}

func (s *stubCredentialResetter) Reset(context.Context) error {
	if s.err != nil {
		return s.err
	}
	s.index = 0
	return nil
}

func (s *stubCredentialResetter) Index() int { return s.index }

func opportunity(matchID string, status domain.OpportunityStatus, profit float64) domain.Opportunity {
	return domain.Opportunity{
		MatchID:          matchID,
		HomeTeam:         "Home",
		AwayTeam:         "Away",
		ProfitPercentage: profit,
		Status:           status,
	}
}

// TestListOpportunitiesAll returns every stored opportunity when no status
// filter is given.
func TestListOpportunitiesAll(t *testing.T) {
	store := newStubOpportunityStore(
		opportunity("m1", domain.StatusLive, 3.2),
		opportunity("m2", domain.StatusPast, 1.1),
	)
	h := NewOpportunityHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listOpportunitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Opportunities, 2)
}

// TestListOpportunitiesByStatus filters on the status query parameter.
func TestListOpportunitiesByStatus(t *testing.T) {
	store := newStubOpportunityStore(
		opportunity("m1", domain.StatusLive, 3.2),
		opportunity("m2", domain.StatusPast, 1.1),
	)
	h := NewOpportunityHandler(store, testLogger())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities?status=live", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp listOpportunitiesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Opportunities, 1)
	assert.Equal(t, "m1", resp.Opportunities[0].MatchID)
}

// TestListOpportunitiesBadStatus rejects unknown status values.
func TestListOpportunitiesBadStatus(t *testing.T) {
	h := NewOpportunityHandler(newStubOpportunityStore(), testLogger())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities?status=stale", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestListOpportunitiesEmpty returns an empty array, not null.
func TestListOpportunitiesEmpty(t *testing.T) {
	h := NewOpportunityHandler(newStubOpportunityStore(), testLogger())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"opportunities":[]}`, rec.Body.String())
}

// TestGetOpportunity serves a single opportunity by match ID.
func TestGetOpportunity(t *testing.T) {
	store := newStubOpportunityStore(opportunity("m1", domain.StatusLive, 3.2))
	h := NewOpportunityHandler(store, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/m1", nil)
	req.SetPathValue("match_id", "m1")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var opp domain.Opportunity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &opp))
	assert.Equal(t, "m1", opp.MatchID)
}

// TestGetOpportunityNotFound maps a missing record to 404.
func TestGetOpportunityNotFound(t *testing.T) {
	h := NewOpportunityHandler(newStubOpportunityStore(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/opportunities/nope", nil)
	req.SetPathValue("match_id", "nope")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestTriggerScan accepts an out-of-schedule scan request.
func TestTriggerScan(t *testing.T) {
	scans := &stubScanController{}
	h := NewScanHandler(scans, &stubCredentialResetter{}, testLogger())

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest(http.MethodPost, "/api/scan/trigger", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, scans.triggered)
}

// TestTriggerScanConflict maps an active run to 409.
func TestTriggerScanConflict(t *testing.T) {
	scans := &stubScanController{err: domain.ErrRunInProgress}
	h := NewScanHandler(scans, &stubCredentialResetter{}, testLogger())

	rec := httptest.NewRecorder()
	h.Trigger(rec, httptest.NewRequest(http.MethodPost, "/api/scan/trigger", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

// TestResetCredentials rewinds the cursor and reports the new index.
func TestResetCredentials(t *testing.T) {
	creds := &stubCredentialResetter{index: 3}
	h := NewScanHandler(&stubScanController{}, creds, testLogger())

	rec := httptest.NewRecorder()
	h.ResetCredentials(rec, httptest.NewRequest(http.MethodPost, "/api/scan/credentials/reset", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 0, resp["key_index"])
}

// TestStats combines the latest run stats with store counts.
func TestStats(t *testing.T) {
	store := newStubOpportunityStore(
		opportunity("m1", domain.StatusLive, 3.2),
		opportunity("m2", domain.StatusPast, 1.1),
		opportunity("m3", domain.StatusPast, 0.8),
	)
	stats := stubStatsSource{stats: domain.RunStats{RunID: "run-1", MatchesScanned: 42}}
	h := NewStatsHandler(stats, &stubMatchStore{count: 17}, store, testLogger())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "run-1", resp.RunID)
	assert.Equal(t, 42, resp.MatchesScanned)
	assert.Equal(t, 1, resp.LiveOpportunities)
	assert.Equal(t, 2, resp.PastOpportunities)
	assert.EqualValues(t, 17, resp.MatchesStored)
}

type stubStatsSource struct {
	stats domain.RunStats
}

func (s stubStatsSource) LastStats() domain.RunStats { return s.stats }

// TestHealthCheck reports the server alive.
func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(testLogger())

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
