package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// ScanController is the slice of the scan orchestrator the handler needs.
type ScanController interface {
	// TriggerScan starts a scan in the background; it returns
	// domain.ErrRunInProgress when one is already running.
	TriggerScan() error
}

// CredentialResetter rewinds the API key rotation cursor. The key rotator
// satisfies it.
type CredentialResetter interface {
	Reset(ctx context.Context) error
	Index() int
}

// ScanHandler serves the scan control endpoints.
type ScanHandler struct {
	scans  ScanController
	creds  CredentialResetter
	logger *slog.Logger
}

// NewScanHandler creates a ScanHandler over the orchestrator and the
// credential rotator.
func NewScanHandler(scans ScanController, creds CredentialResetter, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{scans: scans, creds: creds, logger: logger}
}

// Trigger starts a scan run out of schedule.
// POST /api/scan/trigger
func (h *ScanHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "handler: scan trigger requested")

	if err := h.scans.TriggerScan(); err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			writeError(w, http.StatusConflict, "a scan run is already in progress")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: scan trigger failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to trigger scan")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      "scan run started",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// ResetCredentials rewinds the API key cursor to the first key. This is the
// only way a rotated-out key becomes usable again; the pipeline never
// un-rotates on its own.
// POST /api/scan/credentials/reset
func (h *ScanHandler) ResetCredentials(w http.ResponseWriter, r *http.Request) {
	if err := h.creds.Reset(r.Context()); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: credential reset failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to reset credentials")
		return
	}

	h.logger.InfoContext(r.Context(), "handler: credential cursor reset")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"key_index": h.creds.Index(),
	})
}
