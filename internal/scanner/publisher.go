package scanner

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// Publisher fans scan events out to the signal bus and keeps the latest
// snapshot cached for late subscribers. Publish failures are logged, never
// fatal: a scan completes regardless of whether anyone is listening.
type Publisher struct {
	bus    domain.SignalBus
	cache  domain.SnapshotCache
	logger *slog.Logger
}

func NewPublisher(bus domain.SignalBus, cache domain.SnapshotCache, logger *slog.Logger) *Publisher {
	return &Publisher{
		bus:    bus,
		cache:  cache,
		logger: logger.With("component", "publisher"),
	}
}

// Progress publishes a scan progress event.
func (p *Publisher) Progress(ctx context.Context, ev domain.ProgressEvent) {
	p.publish(ctx, domain.ChannelProgress, ev)
}

// Error publishes a scan error event.
func (p *Publisher) Error(ctx context.Context, ev domain.ErrorEvent) {
	p.publish(ctx, domain.ChannelError, ev)
}

// Snapshot publishes the full opportunity snapshot and caches it so new
// websocket subscribers can be brought current immediately.
func (p *Publisher) Snapshot(ctx context.Context, ev domain.SnapshotEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal snapshot", "error", err)
		return
	}
	if err := p.cache.SetLatest(ctx, payload); err != nil {
		p.logger.Warn("cache snapshot", "error", err)
	}
	if err := p.bus.Publish(ctx, domain.ChannelOpportunities, payload); err != nil {
		p.logger.Warn("publish snapshot", "error", err)
	}
}

func (p *Publisher) publish(ctx context.Context, channel string, ev any) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal event", "channel", channel, "error", err)
		return
	}
	if err := p.bus.Publish(ctx, channel, payload); err != nil {
		p.logger.Warn("publish event", "channel", channel, "error", err)
	}
}
