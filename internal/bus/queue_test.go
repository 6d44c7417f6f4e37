package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/ingest/binance"
)

func depthEvent(finalID int64) Event {
	return Event{
		Kind: KindMarket,
		Stream: binance.Event{
			Kind:  binance.KindDepthUpdate,
			Depth: binance.DepthUpdate{FinalUpdateID: finalID},
		},
		RecvAt: time.Now(),
	}
}

func TestTryPublishFull(t *testing.T) {
	q := NewQueue(1)

	require.NoError(t, q.TryPublish(depthEvent(1)))
	assert.ErrorIs(t, q.TryPublish(depthEvent(2)), ErrQueueFull)
}

func TestTryPublishClosed(t *testing.T) {
	q := NewQueue(4)
	q.Close()

	assert.ErrorIs(t, q.TryPublish(depthEvent(1)), ErrQueueClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	q := NewQueue(1)
	q.Close()
	q.Close()

	assert.ErrorIs(t, q.TryPublish(depthEvent(1)), ErrQueueClosed)
}

func TestRunDeliversInPublishOrder(t *testing.T) {
	q := NewQueue(8)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, q.TryPublish(depthEvent(i)))
	}
	require.NoError(t, q.TryPublish(Event{Kind: KindSweep, RecvAt: time.Now()}))
	q.Close()

	var seen []Event
	q.Run(context.Background(), func(e Event) {
		seen = append(seen, e)
	})

	// Run drains everything published before Close, in order
	require.Len(t, seen, 6)
	for i := 0; i < 5; i++ {
		assert.Equal(t, KindMarket, seen[i].Kind)
		assert.Equal(t, int64(i+1), seen[i].Stream.Depth.FinalUpdateID)
	}
	assert.Equal(t, KindSweep, seen[5].Kind)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	q := NewQueue(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx, func(Event) {
		t.Fatal("handler must not run after cancellation")
	})
}

func TestNewQueueMinimumCapacity(t *testing.T) {
	q := NewQueue(0)

	require.NoError(t, q.TryPublish(depthEvent(1)))
	assert.ErrorIs(t, q.TryPublish(depthEvent(2)), ErrQueueFull)
}
