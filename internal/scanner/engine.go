package scanner

import (
	"time"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// drawOutcome is the literal outcome name that marks the third leg of a
// three-way market.
const drawOutcome = "Draw"

// SkipReason classifies why a match produced no opportunity. Skips are
// expected outcomes of a scan, not errors.
type SkipReason int

const (
	// SkipNone means the match qualified as an arbitrage opportunity.
	SkipNone SkipReason = iota
	// SkipOutsideWindow: the match commences beyond the scan horizon.
	SkipOutsideWindow
	// SkipTooFewBookmakers: fewer than two allow-listed bookmakers quote it.
	SkipTooFewBookmakers
	// SkipNoOutcomes: no allow-listed bookmaker offers a head-to-head market.
	SkipNoOutcomes
	// SkipMarketShape: the aggregated outcome set is neither a valid
	// two-way nor a valid three-way market.
	SkipMarketShape
	// SkipNoArbitrage: implied probabilities sum to one or more.
	SkipNoArbitrage
)

// String returns the tag used in logs and skip counters.
func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipOutsideWindow:
		return "outside_window"
	case SkipTooFewBookmakers:
		return "too_few_bookmakers"
	case SkipNoOutcomes:
		return "no_outcomes"
	case SkipMarketShape:
		return "market_shape"
	case SkipNoArbitrage:
		return "no_arbitrage"
	default:
		return "unknown"
	}
}

// Engine evaluates match quotes for arbitrage: eligibility filtering,
// best-price aggregation over the head-to-head market, market-shape
// validation, and the stake allocation itself. It holds no mutable state and
// is safe for concurrent use.
type Engine struct {
	bookmakers map[string]bool
	window     time.Duration
	stakeBase  float64
}

// NewEngine creates an Engine. allowList is the set of eligible bookmaker
// keys, windowDays the commence-time horizon, and stakeBase the nominal
// total stake the allocation is computed against.
func NewEngine(allowList []string, windowDays int, stakeBase float64) *Engine {
	allowed := make(map[string]bool, len(allowList))
	for _, k := range allowList {
		allowed[k] = true
	}
	return &Engine{
		bookmakers: allowed,
		window:     time.Duration(windowDays) * 24 * time.Hour,
		stakeBase:  stakeBase,
	}
}

// Filter applies the eligibility rules to a match: drop it when it starts
// beyond the horizon, strip bookmakers outside the allow-list, and drop it
// when fewer than two bookmakers remain. On success the returned match
// carries only the contributing bookmakers, in their original order.
func (e *Engine) Filter(m domain.MatchQuote, now time.Time) (domain.MatchQuote, SkipReason) {
	if m.CommenceTime.After(now.Add(e.window)) {
		return domain.MatchQuote{}, SkipOutsideWindow
	}

	kept := make([]domain.BookmakerQuote, 0, len(m.Bookmakers))
	for _, b := range m.Bookmakers {
		if e.bookmakers[b.Key] {
			kept = append(kept, b)
		}
	}
	if len(kept) < 2 {
		return domain.MatchQuote{}, SkipTooFewBookmakers
	}

	m.Bookmakers = kept
	return m, SkipNone
}

// SnapshotCost returns the governor cost of one filtered match: the number
// of bookmaker price snapshots it contributes.
func (e *Engine) SnapshotCost(m domain.MatchQuote) int {
	return len(m.Bookmakers)
}

// Evaluate computes the arbitrage condition for an already-filtered match.
// It returns the opportunity and SkipNone when the best prices imply a
// probability sum below one, or a zero Opportunity and the skip reason
// otherwise.
func (e *Engine) Evaluate(m domain.MatchQuote, now time.Time) (domain.Opportunity, SkipReason) {
	agg := domain.NewOddsAggregate()
	for _, b := range m.Bookmakers {
		h2h, ok := b.H2H()
		if !ok {
			continue
		}
		for _, o := range h2h.Outcomes {
			agg.Observe(o.Name, domain.BestQuote{
				Price:          o.Price,
				BookmakerKey:   b.Key,
				BookmakerTitle: b.Title,
			})
		}
	}

	if agg.Len() == 0 {
		return domain.Opportunity{}, SkipNoOutcomes
	}
	if !validMarketShape(agg, m.HomeTeam, m.AwayTeam) {
		return domain.Opportunity{}, SkipMarketShape
	}

	// S = sum of implied probabilities over the best prices.
	var sumProb float64
	for _, name := range agg.Outcomes() {
		best, _ := agg.Best(name)
		sumProb += 1 / best.Price
	}
	if sumProb >= 1 {
		return domain.Opportunity{}, SkipNoArbitrage
	}

	// Total return R = T/S; each wager R/p_i so every outcome pays out R.
	totalReturn := e.stakeBase / sumProb
	bets := make([]domain.PlacedBet, 0, agg.Len())
	for _, name := range agg.Outcomes() {
		best, _ := agg.Best(name)
		bets = append(bets, domain.PlacedBet{
			BookmakerKey:   best.BookmakerKey,
			BookmakerTitle: best.BookmakerTitle,
			OutcomeName:    name,
			OutcomePrice:   best.Price,
			WagerAmount:    totalReturn / best.Price,
		})
	}

	return domain.Opportunity{
		MatchID:          m.ID,
		SportTitle:       m.SportTitle,
		HomeTeam:         m.HomeTeam,
		AwayTeam:         m.AwayTeam,
		CommenceTime:     m.CommenceTime,
		ProfitPercentage: (1/sumProb - 1) * 100,
		TotalProfitOn100: e.stakeBase * (1/sumProb - 1),
		Bets:             bets,
		LastUpdated:      now,
		Status:           domain.StatusLive,
	}, SkipNone
}

// validMarketShape enforces the market completeness policy: either exactly
// two outcomes with no draw, or exactly three where one is the draw and the
// other two name the home and away participants exactly.
func validMarketShape(agg *domain.OddsAggregate, home, away string) bool {
	names := agg.Outcomes()

	switch len(names) {
	case 2:
		return names[0] != drawOutcome && names[1] != drawOutcome
	case 3:
		var haveDraw, haveHome, haveAway bool
		for _, n := range names {
			switch n {
			case drawOutcome:
				haveDraw = true
			case home:
				haveHome = true
			case away:
				haveAway = true
			}
		}
		return haveDraw && haveHome && haveAway
	default:
		return false
	}
}
