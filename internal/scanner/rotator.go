package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/oddsarb/oddsarb/internal/domain"
)

// stateKeyCursor is the state-store key holding the credential cursor.
const stateKeyCursor = "credential_cursor"

// KeyRotator owns the ordered API key list and the persisted rotation
// cursor. The cursor only moves forward: each Rotate advances it by one and
// durably persists the new value before any further network work happens, so
// a crash mid-run resumes with the same credential. The cursor never wraps;
// once it passes the end of the list the rotator reports
// domain.ErrCredentialsExhausted until an explicit Reset.
type KeyRotator struct {
	keys   []string
	state  domain.StateStore
	index  int
	logger *slog.Logger
}

// NewKeyRotator creates a KeyRotator over the given ordered key list,
// restoring the persisted cursor from the state store. A missing state entry
// starts the cursor at zero; a stored value beyond the list length is kept
// as-is so an exhausted state survives restarts.
func NewKeyRotator(ctx context.Context, keys []string, state domain.StateStore, logger *slog.Logger) (*KeyRotator, error) {
	r := &KeyRotator{
		keys:   keys,
		state:  state,
		logger: logger.With(slog.String("component", "rotator")),
	}

	raw, err := state.Get(ctx, stateKeyCursor)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		r.index = 0
	case err != nil:
		return nil, fmt.Errorf("rotator: load cursor: %w", err)
	default:
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 0 {
			return nil, fmt.Errorf("rotator: invalid persisted cursor %q", raw)
		}
		r.index = n
	}

	r.logger.Debug("credential cursor restored",
		slog.Int("index", r.index),
		slog.Int("keys", len(r.keys)),
	)
	return r, nil
}

// Current returns the credential under the cursor, or
// domain.ErrCredentialsExhausted when the cursor has passed the end of the
// list.
func (r *KeyRotator) Current() (string, error) {
	if r.index >= len(r.keys) {
		return "", domain.ErrCredentialsExhausted
	}
	return r.keys[r.index], nil
}

// Rotate advances the cursor by one and persists it before returning,
// so the caller never issues a network call against an unpersisted cursor.
// If persistence fails the cursor does not advance. When the cursor passes
// the end of the list the new position is still persisted (for operator
// visibility) and domain.ErrCredentialsExhausted is returned.
func (r *KeyRotator) Rotate(ctx context.Context) (string, error) {
	next := r.index + 1
	if err := r.persist(ctx, next); err != nil {
		return "", err
	}
	r.index = next

	if r.index >= len(r.keys) {
		r.logger.Warn("credential list exhausted", slog.Int("index", r.index))
		return "", domain.ErrCredentialsExhausted
	}

	r.logger.Info("rotated to next credential", slog.Int("index", r.index))
	return r.keys[r.index], nil
}

// Reset moves the cursor back to the first credential and persists it. It is
// never called automatically; operators trigger it explicitly.
func (r *KeyRotator) Reset(ctx context.Context) error {
	if err := r.persist(ctx, 0); err != nil {
		return err
	}
	r.index = 0
	r.logger.Info("credential cursor reset")
	return nil
}

// Index returns the current cursor position.
func (r *KeyRotator) Index() int {
	return r.index
}

func (r *KeyRotator) persist(ctx context.Context, index int) error {
	if err := r.state.Set(ctx, stateKeyCursor, strconv.Itoa(index)); err != nil {
		return fmt.Errorf("rotator: persist cursor %d: %w", index, err)
	}
	return nil
}
