package handler

import (
	"log/slog"
	"net/http"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// StatsSource exposes the most recent scan run stats. The scan orchestrator
// satisfies it.
type StatsSource interface {
	LastStats() domain.RunStats
}

// StatsHandler serves the scan statistics endpoint.
type StatsHandler struct {
	stats   StatsSource
	matches domain.MatchStore
	opps    domain.OpportunityStore
	logger  *slog.Logger
}

// NewStatsHandler creates a StatsHandler over the scan stats source and the
// persistence stores.
func NewStatsHandler(stats StatsSource, matches domain.MatchStore, opps domain.OpportunityStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, matches: matches, opps: opps, logger: logger}
}

// statsResponse is the stats endpoint payload.
type statsResponse struct {
	domain.RunStats
	LiveOpportunities int   `json:"live_opportunities"`
	PastOpportunities int   `json:"past_opportunities"`
	MatchesStored     int64 `json:"matches_stored"`
}

// Get returns the latest run stats together with store counts.
// GET /api/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{RunStats: h.stats.LastStats()}

	live, err := h.opps.List(r.Context(), domain.StatusLive, 0)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count live opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	past, err := h.opps.List(r.Context(), domain.StatusPast, 0)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count past opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	matches, err := h.matches.Count(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: count matches failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	resp.LiveOpportunities = len(live)
	resp.PastOpportunities = len(past)
	resp.MatchesStored = matches
	writeJSON(w, http.StatusOK, resp)
}
