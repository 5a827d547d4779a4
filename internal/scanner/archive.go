package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// ArchiveRunner periodically moves aged scan data from the database to cold
// storage.
type ArchiveRunner struct {
	archiver      domain.Archiver
	retentionDays int
	interval      time.Duration
	logger        *slog.Logger
}

// NewArchiveRunner creates an ArchiveRunner. Records older than
// retentionDays are archived every interval.
func NewArchiveRunner(archiver domain.Archiver, retentionDays int, interval time.Duration, logger *slog.Logger) *ArchiveRunner {
	return &ArchiveRunner{
		archiver:      archiver,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger.With(slog.String("component", "archiver")),
	}
}

// Run executes a single archive pass. It calculates the cutoff from
// retentionDays and archives matches and past opportunities older than the
// cutoff.
func (a *ArchiveRunner) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(a.retentionDays) * 24 * time.Hour)
	a.logger.Info("starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", a.retentionDays),
	)

	matchesArchived, err := a.archiver.ArchiveMatches(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving matches before %v: %w", cutoff, err)
	}

	oppsArchived, err := a.archiver.ArchiveOpportunities(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiving opportunities before %v: %w", cutoff, err)
	}

	a.logger.Info("archive run complete",
		slog.Int64("matches_archived", matchesArchived),
		slog.Int64("opportunities_archived", oppsArchived),
	)
	return nil
}

// RunLoop runs archive passes on a fixed interval until the context is
// cancelled. Pass failures are logged and the loop keeps going.
func (a *ArchiveRunner) RunLoop(ctx context.Context) error {
	a.logger.Info("archive loop starting", slog.Duration("interval", a.interval))

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("archive loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := a.Run(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}
