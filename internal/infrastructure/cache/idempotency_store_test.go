package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client), mr
}

func TestIdempotencyStore_StoreAndGet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("returns nil before anything is captured", func(t *testing.T) {
		resp, err := store.Get(ctx, tenantID, "key-1")
		require.NoError(t, err)
		assert.Nil(t, resp)
	})

	t.Run("replays the captured response verbatim", func(t *testing.T) {
		captured := &StoredResponse{
			Status:      201,
			ContentType: "application/json",
			Body:        []byte(`{"id":"pr-1"}`),
		}
		require.NoError(t, store.Store(ctx, tenantID, "key-1", captured))

		resp, err := store.Get(ctx, tenantID, "key-1")
		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, 201, resp.Status)
		assert.Equal(t, "application/json", resp.ContentType)
		assert.Equal(t, []byte(`{"id":"pr-1"}`), resp.Body)
	})

	t.Run("keys are tenant scoped", func(t *testing.T) {
		otherTenant := uuid.New()
		resp, err := store.Get(ctx, otherTenant, "key-1")
		require.NoError(t, err)
		assert.Nil(t, resp)
	})
}

func TestIdempotencyStore_CaptureExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	tenantID := uuid.New()

	require.NoError(t, store.Store(ctx, tenantID, "key-1", &StoredResponse{Status: 200}))
	mr.FastForward(24*time.Hour + time.Second)

	resp, err := store.Get(ctx, tenantID, "key-1")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestIdempotencyStore_Lock(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("one holder at a time", func(t *testing.T) {
		acquired, err := store.Lock(ctx, tenantID, "key-1")
		require.NoError(t, err)
		assert.True(t, acquired)

		acquired, err = store.Lock(ctx, tenantID, "key-1")
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("unlock frees the key", func(t *testing.T) {
		require.NoError(t, store.Unlock(ctx, tenantID, "key-1"))

		acquired, err := store.Lock(ctx, tenantID, "key-1")
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("a wedged holder times out", func(t *testing.T) {
		mr.FastForward(31 * time.Second)

		acquired, err := store.Lock(ctx, tenantID, "key-1")
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("locks do not collide across tenants", func(t *testing.T) {
		acquired, err := store.Lock(ctx, uuid.New(), "key-1")
		require.NoError(t, err)
		assert.True(t, acquired)
	})
}
