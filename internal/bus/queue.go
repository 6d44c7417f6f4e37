// Package bus provides the bounded queue between the stream goroutine
// and the single event-processing task. Everything that mutates the
// book, the risk state, or the resting index flows through here, in
// arrival order.
package bus

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/yanun0323/errors"

	"main/internal/ingest/binance"
)

var (
	ErrQueueFull   = errors.New("event queue full")
	ErrQueueClosed = errors.New("event queue closed")
)

// Kind distinguishes market events from housekeeping triggers.
type Kind uint8

const (
	KindMarket Kind = iota
	// KindSweep asks the consumer to run the stale-order sweep. It is
	// published by the housekeeping ticker so the sweep still runs on the
	// event-processing task, never concurrently with it.
	KindSweep
)

// Event is the unit passed through the in-memory bus.
type Event struct {
	Kind   Kind
	Stream binance.Event
	RecvAt time.Time
}

// Queue is a bounded, non-blocking event queue.
type Queue struct {
	ch     chan Event
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan Event, capacity)}
}

// TryPublish enqueues an event without blocking.
func (q *Queue) TryPublish(e Event) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- e:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new events.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes events until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(Event)) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-q.ch:
			if !ok {
				return
			}
			handler(e)
		}
	}
}
