package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "pay-1", "payment-id-1", time.Minute))

	value, found, err := store.Get(ctx, "pay-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "payment-id-1", value)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "pay-1", "payment-id-1", -time.Second))

	_, found, err := store.Get(ctx, "pay-1")
	require.NoError(t, err)
	assert.False(t, found, "expired entries are not returned")
}

func TestMemoryStoreOverwrite(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "pay-1", "first", time.Minute))
	require.NoError(t, store.Set(ctx, "pay-1", "second", time.Minute))

	value, found, err := store.Get(ctx, "pay-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", value)
}
