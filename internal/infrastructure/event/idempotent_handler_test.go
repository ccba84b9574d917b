package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fincore/backend/internal/domain/shared"
	"github.com/fincore/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIdempotentHandler_Handle(t *testing.T) {
	t.Run("processes event once", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := &recordingHandler{types: []string{"PaymentSucceeded"}}
		handler := NewIdempotentHandler(inner, store, zap.NewNop())

		event := newTestEvent("PaymentSucceeded")
		require.NoError(t, handler.Handle(context.Background(), event))
		require.NoError(t, handler.Handle(context.Background(), event))

		assert.Equal(t, 1, inner.handled())
		stats := handler.GetMetrics().Stats()
		assert.Equal(t, int64(1), stats.EventsProcessed)
		assert.Equal(t, int64(1), stats.EventsDuplicate)
	})

	t.Run("distinct events are all processed", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := &recordingHandler{types: []string{"PaymentSucceeded"}}
		handler := NewIdempotentHandler(inner, store, zap.NewNop())

		require.NoError(t, handler.Handle(context.Background(), newTestEvent("PaymentSucceeded")))
		require.NoError(t, handler.Handle(context.Background(), newTestEvent("PaymentSucceeded")))

		assert.Equal(t, 2, inner.handled())
	})

	t.Run("failure keeps the claim until TTL", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := &recordingHandler{types: []string{"PaymentSucceeded"}, err: errors.New("boom")}
		handler := NewIdempotentHandler(inner, store, zap.NewNop(),
			WithIdempotencyConfig(shared.IdempotencyConfig{TTL: time.Minute, Enabled: true}))

		event := newTestEvent("PaymentSucceeded")
		require.Error(t, handler.Handle(context.Background(), event))

		// the claim is not released on failure, so a redelivery is absorbed
		require.NoError(t, handler.Handle(context.Background(), event))
		assert.Equal(t, 1, inner.handled())
		assert.Equal(t, int64(1), handler.GetMetrics().Stats().EventsFailed)
	})

	t.Run("disabled config bypasses the store", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()

		inner := &recordingHandler{types: []string{"PaymentSucceeded"}}
		handler := NewIdempotentHandler(inner, store, zap.NewNop(),
			WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))

		event := newTestEvent("PaymentSucceeded")
		require.NoError(t, handler.Handle(context.Background(), event))
		require.NoError(t, handler.Handle(context.Background(), event))

		assert.Equal(t, 2, inner.handled())
	})
}

func TestIdempotentHandler_EventTypes(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	inner := &recordingHandler{types: []string{"InvoicePaid", "InvoiceVoided"}}
	handler := NewIdempotentHandler(inner, store, zap.NewNop())

	assert.Equal(t, []string{"InvoicePaid", "InvoiceVoided"}, handler.EventTypes())
	assert.Same(t, shared.EventHandler(inner), handler.GetWrappedHandler())
}

func TestWrapHandlersWithIdempotency(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()

	handlers := []shared.EventHandler{
		&recordingHandler{types: []string{"PaymentSucceeded"}},
		&recordingHandler{types: []string{"InvoicePaid"}},
	}

	wrapped := WrapHandlersWithIdempotency(handlers, store, zap.NewNop())
	require.Len(t, wrapped, 2)
	for i, h := range wrapped {
		assert.Equal(t, handlers[i].EventTypes(), h.EventTypes())
	}
}
