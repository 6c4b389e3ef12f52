package oauth

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStateStoreForTest(t *testing.T) (*miniredis.Miniredis, *StateStore) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, NewStateStore(client, time.Minute)
}

func TestStateIsSingleUse(t *testing.T) {
	_, store := newStateStoreForTest(t)
	ctx := context.Background()

	state, err := store.Issue(ctx, ProviderGoogle)
	require.NoError(t, err)
	require.NotEmpty(t, state)

	require.NoError(t, store.Consume(ctx, state, ProviderGoogle))
	assert.ErrorIs(t, store.Consume(ctx, state, ProviderGoogle), ErrInvalidState)
}

func TestStateBoundToProvider(t *testing.T) {
	_, store := newStateStoreForTest(t)
	ctx := context.Background()

	state, err := store.Issue(ctx, ProviderGoogle)
	require.NoError(t, err)

	assert.ErrorIs(t, store.Consume(ctx, state, ProviderGitHub), ErrInvalidState)
	assert.ErrorIs(t, store.Consume(ctx, "", ProviderGoogle), ErrInvalidState)
}

func TestStateExpires(t *testing.T) {
	m, store := newStateStoreForTest(t)
	ctx := context.Background()

	state, err := store.Issue(ctx, ProviderGitHub)
	require.NoError(t, err)

	m.FastForward(2 * time.Minute)
	assert.ErrorIs(t, store.Consume(ctx, state, ProviderGitHub), ErrInvalidState)
}
