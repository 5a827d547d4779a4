// Package notify delivers operator alerts for scan events. Alerts are
// dispatched to all registered senders (Telegram, Discord) and filtered by
// scan event type so operators receive only the alerts they care about, e.g.
// opportunity_found but not discovery_failed.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Severity classifies an alert for presentation. Senders use it to pick
// markers and colors; it never affects delivery.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// severityFor maps a scan event type to its presentation severity. Unknown
// events are informational.
func severityFor(event string) Severity {
	switch event {
	case "credentials_exhausted":
		return SeverityCritical
	case "discovery_failed":
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Alert is a single operator notification about a scan event.
type Alert struct {
	Event    string // scan event type, e.g. "opportunity_found"
	Severity Severity
	Title    string
	Body     string
}

// Sender is the interface each notification channel implements.
type Sender interface {
	// Send delivers one alert.
	Send(ctx context.Context, a Alert) error
	// Name returns the channel identifier (e.g. "telegram").
	Name() string
}

// Notifier dispatches scan alerts to one or more Senders. It maintains a set
// of allowed event types; Notify only forwards alerts whose event type is in
// the allowed set, while NotifyAll bypasses the filter.
type Notifier struct {
	senders []Sender
	events  map[string]bool // allowed scan event types
	logger  *slog.Logger
}

// NewNotifier creates a Notifier over the given senders. Only alerts whose
// event type appears in events are forwarded by Notify; an empty list allows
// every event.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers an alert for the given scan event to all senders, provided
// the event type passes the configured filter.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "scan event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	return n.dispatch(ctx, Alert{
		Event:    event,
		Severity: severityFor(event),
		Title:    title,
		Body:     message,
	})
}

// NotifyAll delivers an alert to all senders regardless of the event filter.
func (n *Notifier) NotifyAll(ctx context.Context, event, title, message string) error {
	return n.dispatch(ctx, Alert{
		Event:    event,
		Severity: severityFor(event),
		Title:    title,
		Body:     message,
	})
}

// dispatch fans the alert out to every sender. A failing sender does not
// prevent delivery to the rest; failures are joined into one error.
func (n *Notifier) dispatch(ctx context.Context, a Alert) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, a); err != nil {
			n.logger.ErrorContext(ctx, "alert delivery failed",
				slog.String("sender", s.Name()),
				slog.String("event", a.Event),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		} else {
			n.logger.DebugContext(ctx, "alert delivered",
				slog.String("sender", s.Name()),
				slog.String("event", a.Event),
				slog.String("severity", string(a.Severity)),
			)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %w", errors.Join(errs...))
	}
	return nil
}
