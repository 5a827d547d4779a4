package domain

import "time"

// MarketKeyH2H is the head-to-head market key. It is the only market the
// arbitrage engine consumes; other markets are carried through for the
// historical record but never evaluated.
const MarketKeyH2H = "h2h"

// Outcome is a single priced outcome within a bookmaker market.
type Outcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"` // decimal odds
}

// Market is one market (by key) offered by a bookmaker for a match.
type Market struct {
	Key      string    `json:"key"`
	Outcomes []Outcome `json:"outcomes"`
}

// BookmakerQuote is the quote set one bookmaker offers for a match.
type BookmakerQuote struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// H2H returns the bookmaker's head-to-head market, or false when the
// bookmaker does not quote one.
func (b BookmakerQuote) H2H() (Market, bool) {
	for _, m := range b.Markets {
		if m.Key == MarketKeyH2H {
			return m, true
		}
	}
	return Market{}, false
}

// MatchQuote is a point-in-time odds snapshot for one match across all
// bookmakers that quote it. Snapshots are rebuilt on every fetch and
// upserted into the historical record keyed by match ID (last write wins).
type MatchQuote struct {
	ID           string           `json:"id"`
	SportKey     string           `json:"sport_key"`
	SportTitle   string           `json:"sport_title"`
	CommenceTime time.Time        `json:"commence_time"`
	HomeTeam     string           `json:"home_team"`
	AwayTeam     string           `json:"away_team"`
	Bookmakers   []BookmakerQuote `json:"bookmakers"`
}

// BestQuote records the best price seen for an outcome and which bookmaker
// offered it.
type BestQuote struct {
	Price          float64
	BookmakerKey   string
	BookmakerTitle string
}

// OddsAggregate maps outcome name to the best quote among eligible
// bookmakers for one match. Built once per match per scan and discarded
// after evaluation. Order preserves first appearance in the filtered
// bookmaker list so tie-breaks are deterministic.
type OddsAggregate struct {
	names map[string]int
	order []string
	best  []BestQuote
}

// NewOddsAggregate returns an empty aggregate.
func NewOddsAggregate() *OddsAggregate {
	return &OddsAggregate{names: make(map[string]int)}
}

// Observe records a price for an outcome, keeping the existing quote unless
// the new price is strictly higher (ties go to the first bookmaker seen).
func (a *OddsAggregate) Observe(outcome string, q BestQuote) {
	if i, ok := a.names[outcome]; ok {
		if q.Price > a.best[i].Price {
			a.best[i] = q
		}
		return
	}
	a.names[outcome] = len(a.order)
	a.order = append(a.order, outcome)
	a.best = append(a.best, q)
}

// Len returns the number of distinct outcomes observed.
func (a *OddsAggregate) Len() int {
	return len(a.order)
}

// Outcomes returns the outcome names in first-seen order.
func (a *OddsAggregate) Outcomes() []string {
	return a.order
}

// Best returns the best quote for the named outcome.
func (a *OddsAggregate) Best(outcome string) (BestQuote, bool) {
	i, ok := a.names[outcome]
	if !ok {
		return BestQuote{}, false
	}
	return a.best[i], true
}
