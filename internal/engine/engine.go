// Package engine coordinates the trading session: it connects the
// market data stream to the order manager through the event queue,
// runs the housekeeping ticker, and handles start and stop.
package engine

import (
	"context"
	"errors"
	"time"

	yerrors "github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	ingest "main/internal/ingest/binance"
	"main/internal/obs"
)

const shutdownTimeout = 15 * time.Second

// MarketStream is the market data surface the engine drives.
type MarketStream interface {
	Start(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Observe(ctx context.Context, handler func(ingest.Event)) (unsubscribe func())
	Close()
}

// OrderManager consumes events in arrival order on the engine's single
// processing goroutine.
type OrderManager interface {
	HandleEvent(ctx context.Context, e ingest.Event)
	SweepStale(ctx context.Context, now time.Time)
	CancelAll(ctx context.Context) error
}

type Engine struct {
	stream  MarketStream
	maker   OrderManager
	queue   *bus.Queue
	metrics *obs.Metrics

	housekeepInterval time.Duration
}

// New wires a trading engine.
func New(stream MarketStream, orderManager OrderManager, queue *bus.Queue, metrics *obs.Metrics, housekeepInterval time.Duration) *Engine {
	return &Engine{
		stream:            stream,
		maker:             orderManager,
		queue:             queue,
		metrics:           metrics,
		housekeepInterval: housekeepInterval,
	}
}

// Run drives the session until the context is canceled, then performs
// the shutdown sequence: bulk cancel, stream close, counter snapshot.
//
// Event processing is strictly single-goroutine: the stream observer
// and the housekeeping ticker only publish into the queue; every book,
// risk, and resting-index mutation happens inside the queue consumer
// running here.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.stream.Start(ctx); err != nil {
		return yerrors.Wrap(err, "start market data stream")
	}
	if err := e.stream.Subscribe(ctx); err != nil {
		return yerrors.Wrap(err, "subscribe market data streams")
	}

	unobserve := e.stream.Observe(ctx, func(event ingest.Event) {
		e.publish(bus.Event{Kind: bus.KindMarket, Stream: event, RecvAt: time.Now()})
	})
	defer unobserve()

	hkCtx, stopHousekeeping := context.WithCancel(ctx)
	defer stopHousekeeping()
	go e.housekeep(hkCtx)

	logs.Infof("trading engine running")
	e.queue.Run(ctx, func(event bus.Event) {
		switch event.Kind {
		case bus.KindMarket:
			e.maker.HandleEvent(ctx, event.Stream)
		case bus.KindSweep:
			e.maker.SweepStale(ctx, event.RecvAt)
		}
	})

	e.shutdown()
	return nil
}

// housekeep periodically enqueues a stale-order sweep. It does no work
// of its own so it can never reorder book processing.
func (e *Engine) housekeep(ctx context.Context) {
	ticker := time.NewTicker(e.housekeepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.publish(bus.Event{Kind: bus.KindSweep, RecvAt: now})
		}
	}
}

func (e *Engine) publish(event bus.Event) {
	if err := e.queue.TryPublish(event); err != nil {
		if errors.Is(err, bus.ErrQueueFull) {
			e.metrics.IncQueueDrop()
		} else {
			e.metrics.IncQueueClosed()
		}
	}
}

func (e *Engine) shutdown() {
	logs.Infof("trading engine stopping")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = e.maker.CancelAll(ctx)

	e.stream.Close()

	snapshot := e.metrics.Snapshot()
	logs.Infof("session counters: depth=%d trades=%d unknown=%d stale_diffs=%d gaps=%d resyncs=%d placed=%d canceled=%d stale_cancels=%d place_failures=%d cancel_failures=%d risk_rejects=%v queue_drops=%d",
		snapshot.DepthEvents, snapshot.TradeEvents, snapshot.UnknownEvents,
		snapshot.StaleDiffs, snapshot.Gaps, snapshot.Resyncs,
		snapshot.OrdersPlaced, snapshot.OrdersCanceled, snapshot.StaleCancels,
		snapshot.PlaceFailures, snapshot.CancelFailures,
		snapshot.RiskRejects, snapshot.QueueDrops,
	)
	logs.Infof("trading engine stopped")
}
