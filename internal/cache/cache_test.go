package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/storefront/internal/config"
)

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, store.Delete(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Error(t, store.Set(ctx, "", []byte("v"), 0))
}

func TestMemoryStore_SetIfNewer(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	written, err := store.SetIfNewer(ctx, "k", []byte("v5"), 5, 0)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = store.SetIfNewer(ctx, "k", []byte("v4"), 4, 0)
	require.NoError(t, err)
	assert.False(t, written)

	written, err = store.SetIfNewer(ctx, "k", []byte("v5b"), 5, 0)
	require.NoError(t, err)
	assert.False(t, written)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v5"), got)

	written, err = store.SetIfNewer(ctx, "k", []byte("v6"), 6, 0)
	require.NoError(t, err)
	assert.True(t, written)

	now = now.Add(time.Minute)
	written, err = store.SetIfNewer(ctx, "k", []byte("v1"), 1, 0)
	require.NoError(t, err)
	assert.True(t, written, "an expired entry no longer guards its key")

	_, err = store.SetIfNewer(ctx, "", []byte("v"), 1, 0)
	assert.Error(t, err)
}

func TestJSONHelpers(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, store, "p", payload{Name: "x"}, 0))

	var out payload
	require.NoError(t, GetJSON(ctx, store, "p", &out))
	assert.Equal(t, "x", out.Name)

	assert.ErrorIs(t, GetJSON(ctx, NoopStore{}, "p", &out), ErrCacheMiss)
	assert.ErrorIs(t, GetJSON(ctx, nil, "p", &out), ErrCacheMiss)

	written, err := SetJSONIfNewer(ctx, store, "v", payload{Name: "new"}, 2, 0)
	require.NoError(t, err)
	assert.True(t, written)
	written, err = SetJSONIfNewer(ctx, store, "v", payload{Name: "old"}, 1, 0)
	require.NoError(t, err)
	assert.False(t, written)
	require.NoError(t, GetJSON(ctx, store, "v", &out))
	assert.Equal(t, "new", out.Name)

	written, err = SetJSONIfNewer(ctx, nil, "v", payload{}, 3, 0)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestNewStore_SelectsDriver(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	logger := zaptest.NewLogger(t)

	store, err := NewStore(lc, config.Config{Cache: config.Cache{Driver: "noop"}}, logger)
	require.NoError(t, err)
	assert.IsType(t, NoopStore{}, store)

	store, err = NewStore(lc, config.Config{Cache: config.Cache{Driver: "memory"}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = NewStore(lc, config.Config{Cache: config.Cache{Driver: "memcached"}}, logger)
	assert.Error(t, err)
}
