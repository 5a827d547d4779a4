package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// OpportunityHandler serves the arbitrage opportunity endpoints.
type OpportunityHandler struct {
	opps   domain.OpportunityStore
	logger *slog.Logger
}

// NewOpportunityHandler creates an OpportunityHandler with the given store
// and logger.
func NewOpportunityHandler(opps domain.OpportunityStore, logger *slog.Logger) *OpportunityHandler {
	return &OpportunityHandler{opps: opps, logger: logger}
}

// listOpportunitiesResponse wraps the list opportunities response.
type listOpportunitiesResponse struct {
	Opportunities []domain.Opportunity `json:"opportunities"`
}

// List returns stored opportunities, optionally filtered by status.
// GET /api/opportunities?status=live&limit=50
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 500)

	var (
		opps []domain.Opportunity
		err  error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "":
		opps, err = h.opps.ListAll(r.Context())
	case string(domain.StatusLive), string(domain.StatusPast):
		opps, err = h.opps.List(r.Context(), domain.OpportunityStatus(status), limit)
	default:
		writeError(w, http.StatusBadRequest, "status must be 'live' or 'past'")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list opportunities failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list opportunities")
		return
	}

	if limit > 0 && len(opps) > limit {
		opps = opps[:limit]
	}
	if opps == nil {
		opps = []domain.Opportunity{}
	}
	writeJSON(w, http.StatusOK, listOpportunitiesResponse{Opportunities: opps})
}

// Get returns a single opportunity by match ID.
// GET /api/opportunities/{match_id}
func (h *OpportunityHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("match_id")
	if matchID == "" {
		writeError(w, http.StatusBadRequest, "missing match id")
		return
	}

	opp, err := h.opps.GetByMatchID(r.Context(), matchID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "opportunity not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get opportunity failed",
			slog.String("match_id", matchID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get opportunity")
		return
	}
	writeJSON(w, http.StatusOK, opp)
}
