package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// Reconciler transitions stored opportunities between live and past based on
// the result of a completed scan pass.
type Reconciler struct {
	opps               domain.OpportunityStore
	expireAllWhenEmpty bool
	logger             *slog.Logger
}

// NewReconciler creates a Reconciler. When expireAllWhenEmpty is false, a
// scan that found nothing leaves the previously live set untouched instead
// of demoting it wholesale.
func NewReconciler(opps domain.OpportunityStore, expireAllWhenEmpty bool, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		opps:               opps,
		expireAllWhenEmpty: expireAllWhenEmpty,
		logger:             logger.With("component", "reconciler"),
	}
}

// Reconcile marks every stored live opportunity not present in found as
// past, then upserts the found set as live. Safe to re-run with the same
// input: a second pass transitions nothing.
func (r *Reconciler) Reconcile(ctx context.Context, found []domain.Opportunity) error {
	keep := make([]string, 0, len(found))
	for _, o := range found {
		keep = append(keep, o.MatchID)
	}

	if len(keep) > 0 || r.expireAllWhenEmpty {
		expired, err := r.opps.MarkPastExcept(ctx, keep)
		if err != nil {
			return fmt.Errorf("reconciler: mark past: %w", err)
		}
		if expired > 0 {
			r.logger.Info("opportunities expired", "count", expired)
		}
	}

	for _, o := range found {
		o.Status = domain.StatusLive
		if err := r.opps.Upsert(ctx, o); err != nil {
			return fmt.Errorf("reconciler: upsert %s: %w", o.MatchID, err)
		}
	}

	if len(found) > 0 {
		r.logger.Info("live opportunities updated", "count", len(found))
	}
	return nil
}
