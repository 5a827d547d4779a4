package oddsapi

import (
	"time"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// --------------------------------------------------------------------------
// Odds feed API DTOs
// --------------------------------------------------------------------------

// APISport is one entry from the /sports catalogue response.
type APISport struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

// ToDomainSport converts an APISport to a domain.Sport.
func (s *APISport) ToDomainSport() domain.Sport {
	return domain.Sport{
		Key:          s.Key,
		Title:        s.Title,
		Active:       s.Active,
		HasOutrights: s.HasOutrights,
	}
}

// APIOutcome is one priced outcome within a market.
type APIOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// APIMarket is one market offered by a bookmaker.
type APIMarket struct {
	Key        string       `json:"key"`
	LastUpdate time.Time    `json:"last_update"`
	Outcomes   []APIOutcome `json:"outcomes"`
}

// APIBookmaker is one bookmaker's quote set for an event.
type APIBookmaker struct {
	Key        string      `json:"key"`
	Title      string      `json:"title"`
	LastUpdate time.Time   `json:"last_update"`
	Markets    []APIMarket `json:"markets"`
}

// APIEvent is one upcoming match from the /sports/{key}/odds response.
type APIEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []APIBookmaker `json:"bookmakers"`
}

// ToDomainMatchQuote converts an APIEvent to a domain.MatchQuote.
func (e *APIEvent) ToDomainMatchQuote() domain.MatchQuote {
	bookmakers := make([]domain.BookmakerQuote, 0, len(e.Bookmakers))
	for _, b := range e.Bookmakers {
		markets := make([]domain.Market, 0, len(b.Markets))
		for _, m := range b.Markets {
			outcomes := make([]domain.Outcome, 0, len(m.Outcomes))
			for _, o := range m.Outcomes {
				outcomes = append(outcomes, domain.Outcome{
					Name:  o.Name,
					Price: o.Price,
				})
			}
			markets = append(markets, domain.Market{
				Key:      m.Key,
				Outcomes: outcomes,
			})
		}
		bookmakers = append(bookmakers, domain.BookmakerQuote{
			Key:        b.Key,
			Title:      b.Title,
			LastUpdate: b.LastUpdate,
			Markets:    markets,
		})
	}

	return domain.MatchQuote{
		ID:           e.ID,
		SportKey:     e.SportKey,
		SportTitle:   e.SportTitle,
		CommenceTime: e.CommenceTime,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		Bookmakers:   bookmakers,
	}
}
