package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// scanLockKey guards a scan run across processes sharing the same Redis.
const scanLockKey = "scan:run"

// Notification event types emitted by the orchestrator.
const (
	EventOpportunityFound     = "opportunity_found"
	EventCredentialsExhausted = "credentials_exhausted"
	EventDiscoveryFailed      = "discovery_failed"
)

// MarketFetcher is the slice of the odds provider the orchestrator needs.
// *oddsapi.Client satisfies it.
type MarketFetcher interface {
	ListSports(ctx context.Context, apiKey string) ([]domain.Sport, error)
	GetOdds(ctx context.Context, sportKey, apiKey string) ([]domain.MatchQuote, error)
}

// Alerter delivers operator notifications. *notify.Notifier satisfies it.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Options carries the scan-loop tuning knobs.
type Options struct {
	Interval           time.Duration
	FetchDelay         time.Duration
	RunOnStart         bool
	MaxSnapshotsPerRun int
}

// Orchestrator drives full scan passes: sport discovery, per-sport odds
// fetches under the snapshot budget, arbitrage evaluation, lifecycle
// reconciliation, and event publication. At most one run executes at a time;
// concurrent triggers get domain.ErrRunInProgress.
type Orchestrator struct {
	fetcher    MarketFetcher
	rotator    *KeyRotator
	engine     *Engine
	reconciler *Reconciler
	publisher  *Publisher
	matches    domain.MatchStore
	opps       domain.OpportunityStore
	locks      domain.LockManager // nil disables cross-process locking
	alerter    Alerter            // nil disables notifications
	opts       Options
	logger     *slog.Logger

	running atomic.Bool

	mu        sync.Mutex
	lastStats domain.RunStats
}

// NewOrchestrator wires a scan orchestrator. locks and alerter may be nil.
func NewOrchestrator(
	fetcher MarketFetcher,
	rotator *KeyRotator,
	engine *Engine,
	reconciler *Reconciler,
	publisher *Publisher,
	matches domain.MatchStore,
	opps domain.OpportunityStore,
	locks domain.LockManager,
	alerter Alerter,
	opts Options,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		fetcher:    fetcher,
		rotator:    rotator,
		engine:     engine,
		reconciler: reconciler,
		publisher:  publisher,
		matches:    matches,
		opps:       opps,
		locks:      locks,
		alerter:    alerter,
		opts:       opts,
		logger:     logger.With(slog.String("component", "orchestrator")),
	}
}

// LastStats returns the stats of the most recently completed run, or a zero
// RunStats when no run has finished yet.
func (o *Orchestrator) LastStats() domain.RunStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastStats
}

// TriggerScan starts a scan run in the background. It returns
// domain.ErrRunInProgress when a run is already active. The run itself uses
// a background context so an out-of-schedule scan survives the triggering
// HTTP request.
func (o *Orchestrator) TriggerScan() error {
	if o.running.Load() {
		return domain.ErrRunInProgress
	}
	go func() {
		if err := o.Run(context.Background()); err != nil && !errors.Is(err, domain.ErrRunInProgress) {
			o.logger.Error("triggered scan failed", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// RunLoop executes scan passes on a fixed interval until the context is
// cancelled. Individual run failures are logged and the loop keeps going;
// only context cancellation stops it.
func (o *Orchestrator) RunLoop(ctx context.Context) error {
	o.logger.Info("scan loop starting",
		slog.Duration("interval", o.opts.Interval),
		slog.Bool("run_on_start", o.opts.RunOnStart),
	)

	if o.opts.RunOnStart {
		if err := o.Run(ctx); err != nil && !errors.Is(err, domain.ErrRunInProgress) {
			o.logger.Error("initial scan failed", slog.String("error", err.Error()))
		}
	}

	ticker := time.NewTicker(o.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := o.Run(ctx); err != nil {
				if errors.Is(err, domain.ErrRunInProgress) {
					o.logger.Debug("scan tick skipped, run already in progress")
					continue
				}
				o.logger.Error("scan failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Run executes one full scan pass. It returns domain.ErrRunInProgress when
// another run holds the in-process or cross-process lock, and
// domain.ErrCredentialsExhausted when every API key was consumed; in the
// latter case the matches and opportunities gathered before exhaustion are
// still reconciled and published.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return domain.ErrRunInProgress
	}
	defer o.running.Store(false)

	if o.locks != nil {
		// TTL covers a worst-case run; the lock is released explicitly on
		// every return path.
		unlock, err := o.locks.Acquire(ctx, scanLockKey, 2*o.opts.Interval)
		if err != nil {
			if errors.Is(err, domain.ErrLockHeld) {
				return domain.ErrRunInProgress
			}
			return fmt.Errorf("scanner: acquire run lock: %w", err)
		}
		defer unlock()
	}

	runID := uuid.New().String()
	started := time.Now().UTC()
	logger := o.logger.With(slog.String("run_id", runID))
	logger.Info("scan run starting")

	sports, err := o.discoverSports(ctx, runID, logger)
	if err != nil {
		return err
	}

	scannable := sports[:0]
	for _, s := range sports {
		if s.Scannable() {
			scannable = append(scannable, s)
		}
	}
	logger.Info("sports discovered", slog.Int("scannable", len(scannable)))

	governor := NewGovernor(o.opts.MaxSnapshotsPerRun)
	var (
		found          []domain.Opportunity
		matchesScanned int
		runErr         error
	)

sports:
	for i, sport := range scannable {
		matches, err := o.fetchOdds(ctx, sport.Key, runID, logger)
		switch {
		case errors.Is(err, domain.ErrCredentialsExhausted):
			runErr = err
			break sports

		case err != nil:
			// Transient provider failure: skip the sport, keep the run alive.
			logger.Warn("odds fetch failed, skipping sport",
				slog.String("sport", sport.Key),
				slog.String("error", err.Error()),
			)

		default:
			// A sport batch is charged whole or not at all: sum the cost over
			// the eligible matches first, then consult the governor once.
			eligible := make([]domain.MatchQuote, 0, len(matches))
			batchCost := 0
			for _, m := range matches {
				filtered, skip := o.engine.Filter(m, started)
				if skip != SkipNone {
					continue
				}
				eligible = append(eligible, filtered)
				batchCost += o.engine.SnapshotCost(filtered)
			}

			if !governor.CanAfford(batchCost) {
				logger.Warn("snapshot budget exhausted, stopping scan",
					slog.String("sport", sport.Key),
					slog.Int("batch_cost", batchCost),
					slog.Int("spent", governor.Spent()),
					slog.Int("budget", o.opts.MaxSnapshotsPerRun),
				)
				break sports
			}
			governor.Charge(batchCost)

			for _, filtered := range eligible {
				matchesScanned++

				if err := o.matches.Upsert(ctx, filtered); err != nil {
					logger.Error("persist match failed",
						slog.String("match_id", filtered.ID),
						slog.String("error", err.Error()),
					)
				}

				opp, skip := o.engine.Evaluate(filtered, started)
				if skip != SkipNone {
					continue
				}
				logger.Info("arbitrage opportunity found",
					slog.String("match_id", opp.MatchID),
					slog.Float64("profit_pct", opp.ProfitPercentage),
				)
				found = append(found, opp)
			}

			o.publisher.Progress(ctx, domain.ProgressEvent{
				RunID:          runID,
				Message:        fmt.Sprintf("scanned %s", sport.Title),
				MatchesScanned: matchesScanned,
				SportsTotal:    len(scannable),
			})
		}

		// Courtesy delay before the next provider call. It applies after
		// skipped sports too; the upstream sees the same pacing either way.
		if i < len(scannable)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.opts.FetchDelay):
			}
		}
	}

	if err := o.reconciler.Reconcile(ctx, found); err != nil {
		return err
	}

	completed := time.Now().UTC()
	stats := domain.RunStats{
		RunID:            runID,
		MatchesScanned:   matchesScanned,
		SnapshotsCharged: governor.Spent(),
		LastUpdated:      completed,
		NextRunAt:        completed.Add(o.opts.Interval),
	}
	o.mu.Lock()
	o.lastStats = stats
	o.mu.Unlock()

	o.publishSnapshot(ctx, stats, logger)

	if len(found) > 0 {
		o.notify(ctx, EventOpportunityFound,
			"Arbitrage opportunities found",
			fmt.Sprintf("%d live opportunity(ies) after run %s", len(found), runID),
		)
	}

	logger.Info("scan run complete",
		slog.Int("matches_scanned", matchesScanned),
		slog.Int("snapshots_charged", governor.Spent()),
		slog.Int("opportunities", len(found)),
		slog.Duration("elapsed", completed.Sub(started)),
	)
	return runErr
}

// discoverSports lists sports, rotating credentials on auth or quota
// failures. Any non-auth failure aborts the run: without a sport list there
// is nothing to scan.
func (o *Orchestrator) discoverSports(ctx context.Context, runID string, logger *slog.Logger) ([]domain.Sport, error) {
	for {
		key, err := o.rotator.Current()
		if err != nil {
			return nil, o.failRun(ctx, runID, logger, domain.ErrCodeCredentialsExhausted,
				"all API credentials exhausted during sport discovery", err)
		}

		sports, err := o.fetcher.ListSports(ctx, key)
		if err == nil {
			return sports, nil
		}
		if errors.Is(err, domain.ErrAuthOrQuota) {
			logger.Warn("credential rejected during discovery, rotating",
				slog.Int("key_index", o.rotator.Index()),
			)
			if _, rerr := o.rotator.Rotate(ctx); rerr != nil && !errors.Is(rerr, domain.ErrCredentialsExhausted) {
				return nil, fmt.Errorf("scanner: rotate credential: %w", rerr)
			}
			continue
		}
		return nil, o.failRun(ctx, runID, logger, domain.ErrCodeDiscoveryFailed,
			"sport discovery failed", err)
	}
}

// fetchOdds fetches odds for one sport, rotating credentials on auth or
// quota failures and retrying with the next key.
func (o *Orchestrator) fetchOdds(ctx context.Context, sportKey, runID string, logger *slog.Logger) ([]domain.MatchQuote, error) {
	for {
		key, err := o.rotator.Current()
		if err != nil {
			o.publisher.Error(ctx, domain.ErrorEvent{
				RunID:   runID,
				Code:    domain.ErrCodeCredentialsExhausted,
				Message: "all API credentials exhausted mid-run",
			})
			o.notify(ctx, EventCredentialsExhausted,
				"API credentials exhausted",
				"every configured odds API key was rejected; reset the credential cursor to resume scanning")
			return nil, err
		}

		matches, err := o.fetcher.GetOdds(ctx, sportKey, key)
		if err == nil {
			return matches, nil
		}
		if errors.Is(err, domain.ErrAuthOrQuota) {
			logger.Warn("credential rejected, rotating",
				slog.String("sport", sportKey),
				slog.Int("key_index", o.rotator.Index()),
			)
			if _, rerr := o.rotator.Rotate(ctx); rerr != nil && !errors.Is(rerr, domain.ErrCredentialsExhausted) {
				return nil, fmt.Errorf("scanner: rotate credential: %w", rerr)
			}
			continue
		}
		return nil, err
	}
}

// failRun publishes an error event, notifies operators, and wraps the cause.
func (o *Orchestrator) failRun(ctx context.Context, runID string, logger *slog.Logger, code, msg string, cause error) error {
	logger.Error(msg, slog.String("error", cause.Error()))
	o.publisher.Error(ctx, domain.ErrorEvent{
		RunID:   runID,
		Code:    code,
		Message: fmt.Sprintf("%s: %v", msg, cause),
	})
	event := EventDiscoveryFailed
	if code == domain.ErrCodeCredentialsExhausted {
		event = EventCredentialsExhausted
	}
	o.notify(ctx, event, "Scan run failed", msg)
	return fmt.Errorf("scanner: %s: %w", msg, cause)
}

// publishSnapshot loads the full opportunity board and publishes it together
// with the run stats.
func (o *Orchestrator) publishSnapshot(ctx context.Context, stats domain.RunStats, logger *slog.Logger) {
	all, err := o.opps.ListAll(ctx)
	if err != nil {
		logger.Error("load opportunity snapshot failed", slog.String("error", err.Error()))
		return
	}
	o.publisher.Snapshot(ctx, domain.SnapshotEvent{
		Opportunities: all,
		Stats:         stats,
	})
}

func (o *Orchestrator) notify(ctx context.Context, event, title, message string) {
	if o.alerter == nil {
		return
	}
	if err := o.alerter.Notify(ctx, event, title, message); err != nil {
		o.logger.Warn("notification failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
