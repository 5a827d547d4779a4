package domain

import "time"

// OpportunityStatus is the lifecycle state of a detected opportunity.
type OpportunityStatus string

const (
	// StatusLive marks an opportunity that qualified in the most recent run.
	StatusLive OpportunityStatus = "live"
	// StatusPast marks an opportunity superseded by a later run. Bet and
	// profit data are retained for the historical record.
	StatusPast OpportunityStatus = "past"
)

// PlacedBet is one leg of the risk-free stake allocation.
type PlacedBet struct {
	BookmakerKey   string  `json:"bookmaker_key"`
	BookmakerTitle string  `json:"bookmaker_title"`
	OutcomeName    string  `json:"outcome_name"`
	OutcomePrice   float64 `json:"outcome_price"`
	WagerAmount    float64 `json:"wager_amount"`
}

// Opportunity is a detected arbitrage: a match where best prices across
// bookmakers imply a probability sum below one. At most one record exists
// per match ID; reruns overwrite it.
type Opportunity struct {
	MatchID          string            `json:"match_id"`
	SportTitle       string            `json:"sport_title"`
	HomeTeam         string            `json:"home_team"`
	AwayTeam         string            `json:"away_team"`
	CommenceTime     time.Time         `json:"commence_time"`
	ProfitPercentage float64           `json:"profit_percentage"`
	TotalProfitOn100 float64           `json:"total_profit_on_100"`
	Bets             []PlacedBet       `json:"bets_to_place"`
	LastUpdated      time.Time         `json:"last_updated"`
	Status           OpportunityStatus `json:"status"`
}

// RunStats summarizes one completed scan run.
type RunStats struct {
	RunID            string    `json:"run_id"`
	MatchesScanned   int       `json:"matches_scanned"`
	SnapshotsCharged int       `json:"snapshots_charged"`
	LastUpdated      time.Time `json:"last_updated"`
	NextRunAt        time.Time `json:"next_run_at"`
}
