package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oddsarb/oddsarb/internal/scanner"
	"github.com/oddsarb/oddsarb/internal/server"
	"github.com/oddsarb/oddsarb/internal/server/handler"
	"github.com/oddsarb/oddsarb/internal/server/ws"
)

// shutdownTimeout bounds the graceful HTTP shutdown on context cancellation.
const shutdownTimeout = 10 * time.Second

// ScanMode runs the scan loop (and the archive loop when enabled) without
// the HTTP API.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	orch, _, err := a.buildScanner(ctx, deps)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startScanLoops(ctx, g, deps, orch)
	return g.Wait()
}

// ServerMode runs the HTTP API and WebSocket feed without the scheduled scan
// loop. Manual runs via POST /api/scan/trigger still work.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	orch, rotator, err := a.buildScanner(ctx, deps)
	if err != nil {
		return fmt.Errorf("server mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, orch, rotator)
	return g.Wait()
}

// FullMode runs everything: the scan loop, archival, the HTTP API, and the
// WebSocket feed.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	orch, rotator, err := a.buildScanner(ctx, deps)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	a.startScanLoops(ctx, g, deps, orch)
	a.startHTTPServer(ctx, g, deps, orch, rotator)
	return g.Wait()
}

// buildScanner assembles the scan pipeline: credential rotator, arbitrage
// engine, lifecycle reconciler, event publisher, and the orchestrator that
// drives them.
func (a *App) buildScanner(ctx context.Context, deps *Dependencies) (*scanner.Orchestrator, *scanner.KeyRotator, error) {
	logger := slog.Default()

	rotator, err := scanner.NewKeyRotator(ctx, a.cfg.OddsAPI.APIKeys, deps.StateStore, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("build scanner: %w", err)
	}

	engine := scanner.NewEngine(
		a.cfg.Scanner.Bookmakers,
		a.cfg.Scanner.WindowDays,
		a.cfg.Scanner.StakeBase,
	)
	reconciler := scanner.NewReconciler(deps.OpportunityStore, a.cfg.Scanner.ExpireAllWhenEmpty, logger)
	publisher := scanner.NewPublisher(deps.SignalBus, deps.SnapshotCache, logger)

	orch := scanner.NewOrchestrator(
		deps.OddsClient,
		rotator,
		engine,
		reconciler,
		publisher,
		deps.MatchStore,
		deps.OpportunityStore,
		deps.LockManager,
		deps.Notifier,
		scanner.Options{
			Interval:           a.cfg.Scanner.Interval.Duration,
			FetchDelay:         a.cfg.OddsAPI.FetchDelay.Duration,
			RunOnStart:         a.cfg.Scanner.RunOnStart,
			MaxSnapshotsPerRun: a.cfg.Scanner.MaxSnapshotsPerRun,
		},
		logger,
	)
	return orch, rotator, nil
}

// startScanLoops adds the scan loop, and the archive loop when archival is
// configured, to the errgroup.
func (a *App) startScanLoops(ctx context.Context, g *errgroup.Group, deps *Dependencies, orch *scanner.Orchestrator) {
	g.Go(func() error {
		err := orch.RunLoop(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("scan loop: %w", err)
	})

	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		runner := scanner.NewArchiveRunner(
			deps.Archiver,
			a.cfg.Archive.RetentionDays,
			a.cfg.Archive.Interval.Duration,
			slog.Default(),
		)
		g.Go(func() error {
			err := runner.RunLoop(ctx)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("archive loop: %w", err)
		})
	}
}

// startHTTPServer adds the WebSocket hub and HTTP server goroutines to the
// errgroup. The server is shut down gracefully when the context is
// cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, orch *scanner.Orchestrator, rotator *scanner.KeyRotator) {
	if !a.cfg.Server.Enabled {
		a.logger.InfoContext(ctx, "http server disabled by config")
		return
	}

	logger := slog.Default()

	hub := ws.NewHub(deps.SignalBus, deps.SnapshotCache, logger)
	g.Go(func() error {
		err := hub.Run(ctx)
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return fmt.Errorf("ws hub: %w", err)
	})

	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(logger),
		Opportunities: handler.NewOpportunityHandler(deps.OpportunityStore, logger),
		Stats:         handler.NewStatsHandler(orch, deps.MatchStore, deps.OpportunityStore, logger),
		Scan:          handler.NewScanHandler(orch, rotator, logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		APIKey:          a.cfg.Server.APIKey,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, hub, deps.RateLimiter, logger)

	g.Go(func() error {
		err := srv.Start()
		if ctx.Err() != nil {
			return nil // clean shutdown
		}
		return err
	})

	// Shut the server down when the context is cancelled.
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})
}
