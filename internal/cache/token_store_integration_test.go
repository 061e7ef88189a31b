//go:build integration

package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *TokenStore {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	c, err := New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return NewTokenStore(c)
}

func TestRedisTokenStoreLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := uuid.NewString()
	exp := time.Now().Add(time.Minute)

	require.NoError(t, store.Upsert(ctx, user, "first-"+user, exp))
	ok, err := store.Exists(ctx, "first-"+user)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Upsert(ctx, user, "second-"+user, exp))
	ok, err = store.Exists(ctx, "first-"+user)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Delete(ctx, "second-"+user))
	require.NoError(t, store.Delete(ctx, "second-"+user))
	ok, err = store.Exists(ctx, "second-"+user)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisTokenStorePastExpiryStoresNothing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	user := uuid.NewString()

	require.NoError(t, store.Upsert(ctx, user, "stale-"+user, time.Now().Add(-time.Second)))
	ok, err := store.Exists(ctx, "stale-"+user)
	require.NoError(t, err)
	require.False(t, ok)
}
