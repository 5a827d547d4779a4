package scanner

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// fakeStateStore is an in-memory domain.StateStore. Set can be made to fail
// to exercise persistence error paths.
type fakeStateStore struct {
	mu     sync.Mutex
	values map[string]string
	setErr error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{values: make(map[string]string)}
}

func (s *fakeStateStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (s *fakeStateStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.values[key] = value
	return nil
}

// fakeOpportunityStore is an in-memory domain.OpportunityStore keyed by
// match ID.
type fakeOpportunityStore struct {
	mu   sync.Mutex
	rows map[string]domain.Opportunity
}

func newFakeOpportunityStore() *fakeOpportunityStore {
	return &fakeOpportunityStore{rows: make(map[string]domain.Opportunity)}
}

func (s *fakeOpportunityStore) Upsert(_ context.Context, opp domain.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[opp.MatchID] = opp
	return nil
}

func (s *fakeOpportunityStore) GetByMatchID(_ context.Context, matchID string) (domain.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opp, ok := s.rows[matchID]
	if !ok {
		return domain.Opportunity{}, domain.ErrNotFound
	}
	return opp, nil
}

func (s *fakeOpportunityStore) MarkPastExcept(_ context.Context, keepIDs []string) (int64, error) {
	keep := make(map[string]bool, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for id, opp := range s.rows {
		if opp.Status == domain.StatusLive && !keep[id] {
			opp.Status = domain.StatusPast
			s.rows[id] = opp
			changed++
		}
	}
	return changed, nil
}

func (s *fakeOpportunityStore) List(_ context.Context, status domain.OpportunityStatus, limit int) ([]domain.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Opportunity
	for _, opp := range s.rows {
		if opp.Status == status {
			out = append(out, opp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeOpportunityStore) ListAll(_ context.Context) ([]domain.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Opportunity, 0, len(s.rows))
	for _, opp := range s.rows {
		out = append(out, opp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}

func (s *fakeOpportunityStore) ListPastUpdatedBefore(_ context.Context, before time.Time) ([]domain.Opportunity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Opportunity
	for _, opp := range s.rows {
		if opp.Status == domain.StatusPast && opp.LastUpdated.Before(before) {
			out = append(out, opp)
		}
	}
	return out, nil
}

func (s *fakeOpportunityStore) DeletePastUpdatedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, opp := range s.rows {
		if opp.Status == domain.StatusPast && opp.LastUpdated.Before(before) {
			delete(s.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeMatchStore is an in-memory domain.MatchStore.
type fakeMatchStore struct {
	mu   sync.Mutex
	rows map[string]domain.MatchQuote
}

func newFakeMatchStore() *fakeMatchStore {
	return &fakeMatchStore{rows: make(map[string]domain.MatchQuote)}
}

func (s *fakeMatchStore) Upsert(_ context.Context, m domain.MatchQuote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[m.ID] = m
	return nil
}

func (s *fakeMatchStore) GetByID(_ context.Context, id string) (domain.MatchQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return domain.MatchQuote{}, domain.ErrNotFound
	}
	return m, nil
}

func (s *fakeMatchStore) ListCommencedBefore(_ context.Context, before time.Time) ([]domain.MatchQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.MatchQuote
	for _, m := range s.rows {
		if m.CommenceTime.Before(before) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMatchStore) DeleteCommencedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, m := range s.rows {
		if m.CommenceTime.Before(before) {
			delete(s.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *fakeMatchStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows)), nil
}

// fakeSignalBus records published payloads per channel.
type fakeSignalBus struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newFakeSignalBus() *fakeSignalBus {
	return &fakeSignalBus{published: make(map[string][][]byte)}
}

func (b *fakeSignalBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *fakeSignalBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func (b *fakeSignalBus) messages(channel string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published[channel]
}

// fakeSnapshotCache holds the latest snapshot payload.
type fakeSnapshotCache struct {
	mu     sync.Mutex
	latest []byte
}

func (c *fakeSnapshotCache) SetLatest(_ context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = payload
	return nil
}

func (c *fakeSnapshotCache) GetLatest(context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return nil, domain.ErrNotFound
	}
	return c.latest, nil
}

// fakeFetcher is a scripted MarketFetcher. Responses are keyed by API key so
// tests can drive credential rotation.
type fakeFetcher struct {
	mu sync.Mutex

	sports    []domain.Sport
	sportsErr map[string]error // per API key; nil entry means success

	odds    map[string][]domain.MatchQuote // per sport key
	oddsErr map[string]error               // per API key

	listCalls     int
	oddsCalls     []string    // sport keys in call order
	oddsCallTimes []time.Time // when each odds call arrived
}

func (f *fakeFetcher) ListSports(_ context.Context, apiKey string) ([]domain.Sport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := f.sportsErr[apiKey]; err != nil {
		return nil, err
	}
	return f.sports, nil
}

func (f *fakeFetcher) GetOdds(_ context.Context, sportKey, apiKey string) ([]domain.MatchQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.oddsCalls = append(f.oddsCalls, sportKey)
	f.oddsCallTimes = append(f.oddsCallTimes, time.Now())
	if err := f.oddsErr[apiKey]; err != nil {
		return nil, err
	}
	return f.odds[sportKey], nil
}

// fakeAlerter records notifications.
type fakeAlerter struct {
	mu     sync.Mutex
	events []string
}

func (a *fakeAlerter) Notify(_ context.Context, event, _, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
	return nil
}
