package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("marks new identifier", func(t *testing.T) {
		ok, err := store.MarkProcessed(ctx, "payment:confirm:pi_1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("returns false for duplicate", func(t *testing.T) {
		ok, err := store.MarkProcessed(ctx, "payment:confirm:pi_2", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = store.MarkProcessed(ctx, "payment:confirm:pi_2", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("allows reprocessing after expiration", func(t *testing.T) {
		ok, err := store.MarkProcessed(ctx, "payment:confirm:pi_3", 10*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		time.Sleep(20 * time.Millisecond)

		ok, err = store.MarkProcessed(ctx, "payment:confirm:pi_3", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInMemoryIdempotencyStore_IsProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("returns false for unknown identifier", func(t *testing.T) {
		processed, err := store.IsProcessed(ctx, "unknown")
		require.NoError(t, err)
		assert.False(t, processed)
	})

	t.Run("returns true for marked identifier", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "marked", time.Minute)
		require.NoError(t, err)

		processed, err := store.IsProcessed(ctx, "marked")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("returns false for expired identifier", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "expired", 10*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)

		processed, err := store.IsProcessed(ctx, "expired")
		require.NoError(t, err)
		assert.False(t, processed)
	})
}

func TestInMemoryIdempotencyStore_Unmark(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	ok, err := store.MarkProcessed(ctx, "claimed", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Unmark(ctx, "claimed"))

	// after release the identifier can be claimed again
	ok, err = store.MarkProcessed(ctx, "claimed", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// unmarking an unknown identifier is a no-op
	assert.NoError(t, store.Unmark(ctx, "never-seen"))
}

func TestInMemoryIdempotencyStore_Cleanup(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "short", 10*time.Millisecond)
	require.NoError(t, err)
	_, err = store.MarkProcessed(ctx, "long", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 2, store.Size())

	time.Sleep(20 * time.Millisecond)
	store.cleanup()

	assert.Equal(t, 1, store.Size())
}

func TestInMemoryIdempotencyStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	ctx := context.Background()
	const goroutines = 100

	var wg sync.WaitGroup
	winners := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(ctx, "contested", time.Minute)
			require.NoError(t, err)
			if ok {
				winners <- true
			}
		}()
	}

	wg.Wait()
	close(winners)

	count := 0
	for range winners {
		count++
	}
	assert.Equal(t, 1, count, "exactly one goroutine should win the claim")
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	assert.NoError(t, store.Close())
	// Close is idempotent
	assert.NoError(t, store.Close())
}
