package scanner

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oddsarb/oddsarb/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// TestRotatorFreshStart begins at the first key when no cursor is persisted.
func TestRotatorFreshStart(t *testing.T) {
	ctx := context.Background()
	state := newFakeStateStore()

	r, err := NewKeyRotator(ctx, []string{"key-0", "key-1"}, state, discardLogger())
	require.NoError(t, err)

	key, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, "key-0", key)
	assert.Equal(t, 0, r.Index())
}

// TestRotatorRestoresCursor resumes from the persisted position.
func TestRotatorRestoresCursor(t *testing.T) {
	ctx := context.Background()
	state := newFakeStateStore()
	state.values[stateKeyCursor] = "1"

	r, err := NewKeyRotator(ctx, []string{"key-0", "key-1", "key-2"}, state, discardLogger())
	require.NoError(t, err)

	key, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, "key-1", key)
}

// TestRotatorInvalidCursor rejects a persisted value that is not a
// non-negative integer.
func TestRotatorInvalidCursor(t *testing.T) {
	ctx := context.Background()

	for _, raw := range []string{"abc", "-1"} {
		state := newFakeStateStore()
		state.values[stateKeyCursor] = raw

		_, err := NewKeyRotator(ctx, []string{"key-0"}, state, discardLogger())
		assert.Error(t, err, "cursor %q", raw)
	}
}

// TestRotatePersistsBeforeAdvance keeps the in-memory cursor unchanged when
// persistence fails.
func TestRotatePersistsBeforeAdvance(t *testing.T) {
	ctx := context.Background()
	state := newFakeStateStore()

	r, err := NewKeyRotator(ctx, []string{"key-0", "key-1"}, state, discardLogger())
	require.NoError(t, err)

	state.setErr = errors.New("connection refused")
	_, err = r.Rotate(ctx)
	require.Error(t, err)
	assert.Equal(t, 0, r.Index())

	key, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, "key-0", key)
}

// TestRotateAdvancesAndPersists moves the cursor forward and durably records
// the new position.
func TestRotateAdvancesAndPersists(t *testing.T) {
	ctx := context.Background()
	state := newFakeStateStore()

	r, err := NewKeyRotator(ctx, []string{"key-0", "key-1"}, state, discardLogger())
	require.NoError(t, err)

	key, err := r.Rotate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "key-1", key)
	assert.Equal(t, "1", state.values[stateKeyCursor])
}

// TestRotateExhaustion never wraps: past the end of the list every call
// reports exhaustion, and the position is still persisted.
func TestRotateExhaustion(t *testing.T) {
	ctx := context.Background()
	state := newFakeStateStore()

	r, err := NewKeyRotator(ctx, []string{"key-0"}, state, discardLogger())
	require.NoError(t, err)

	_, err = r.Rotate(ctx)
	assert.ErrorIs(t, err, domain.ErrCredentialsExhausted)
	assert.Equal(t, "1", state.values[stateKeyCursor])

	_, err = r.Current()
	assert.ErrorIs(t, err, domain.ErrCredentialsExhausted)

	_, err = r.Rotate(ctx)
	assert.ErrorIs(t, err, domain.ErrCredentialsExhausted)
}

// TestRotatorExhaustedStateSurvivesRestart keeps a cursor beyond the list
// length across a restart.
func TestRotatorExhaustedStateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	state := newFakeStateStore()
	state.values[stateKeyCursor] = "5"

	r, err := NewKeyRotator(ctx, []string{"key-0", "key-1"}, state, discardLogger())
	require.NoError(t, err)

	_, err = r.Current()
	assert.ErrorIs(t, err, domain.ErrCredentialsExhausted)
}

// TestRotatorReset moves the cursor back to zero and persists it.
func TestRotatorReset(t *testing.T) {
	ctx := context.Background()
	state := newFakeStateStore()
	state.values[stateKeyCursor] = "7"

	r, err := NewKeyRotator(ctx, []string{"key-0", "key-1"}, state, discardLogger())
	require.NoError(t, err)

	require.NoError(t, r.Reset(ctx))
	assert.Equal(t, 0, r.Index())
	assert.Equal(t, "0", state.values[stateKeyCursor])

	key, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, "key-0", key)
}
