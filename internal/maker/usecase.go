// Package maker owns the order management loop: it consumes decoded
// market data events in arrival order, keeps the order book synced,
// derives target quotes, and reconciles them against the orders
// currently resting on the exchange.
package maker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/book"
	ingest "main/internal/ingest/binance"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	exchange "main/internal/order/delegator/binance"
	"main/internal/quote"
	"main/internal/risk"
	"main/pkg/exception"
)

// Delegator is the exchange trading API surface the manager depends on.
type Delegator interface {
	FetchDepthSnapshot(ctx context.Context, symbol string, limit int) (exchange.DepthSnapshot, error)
	PlaceOrder(ctx context.Context, order exchange.PlaceRequest) (exchange.PlaceResponse, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
	CancelOpenOrders(ctx context.Context, symbol string) error
}

// Recorder persists order and fill activity. Implementations must never
// block the event loop; a nil Recorder disables journaling.
type Recorder interface {
	RecordOrder(order model.Order)
	RecordFill(price model.Price, qty model.Quantity, makerSell bool, position model.Quantity)
}

// Config carries the per-instrument quoting parameters.
type Config struct {
	Symbol        string
	PriceScale    int
	QuantityScale int
	Tick          model.Price
	QuoteQty      model.Quantity
	SnapshotLimit int
	ResyncDelay   time.Duration
	StaleAfter    time.Duration
}

// Usecase is the order manager for one symbol.
//
// All state (book, risk position, resting indexes) is mutated only from
// HandleEvent and SweepStale, which the engine calls from a single
// goroutine. Exchange calls run inline on that goroutine, so order
// traffic for the symbol is naturally serialized and two reconciliation
// passes can never race on the same price slot.
type Usecase struct {
	cfg       Config
	book      *book.Book
	risk      *risk.Engine
	delegator Delegator
	metrics   *obs.Metrics
	recorder  Recorder

	bids   *Index
	asks   *Index
	signal enum.Signal

	haltHandled bool

	now func() time.Time
}

// NewUsecase wires an order manager. recorder may be nil.
func NewUsecase(cfg Config, riskEngine *risk.Engine, delegator Delegator, metrics *obs.Metrics, recorder Recorder) *Usecase {
	return &Usecase{
		cfg:       cfg,
		book:      book.New(cfg.PriceScale, cfg.QuantityScale),
		risk:      riskEngine,
		delegator: delegator,
		metrics:   metrics,
		recorder:  recorder,
		bids:      NewIndex(enum.OrderSideBuy),
		asks:      NewIndex(enum.OrderSideSell),
		signal:    enum.SignalNeutral,
		now:       time.Now,
	}
}

// Book exposes the managed order book.
func (use *Usecase) Book() *book.Book {
	return use.book
}

// Signal returns the bias stamped onto the most recent quotes.
func (use *Usecase) Signal() enum.Signal {
	return use.signal
}

// Resting returns the per-side resting order indexes.
func (use *Usecase) Resting() (bids, asks *Index) {
	return use.bids, use.asks
}

// HandleEvent processes one decoded stream event: book synchronization,
// position tracking, then quote reconciliation. Events must arrive in
// stream order.
func (use *Usecase) HandleEvent(ctx context.Context, e ingest.Event) {
	if !use.book.Synced() {
		use.syncBook(ctx)
		return
	}

	switch e.Kind {
	case ingest.KindDepthUpdate:
		switch use.book.ApplyDiff(e.Depth.FirstUpdateID, e.Depth.FinalUpdateID, e.Depth.Bids, e.Depth.Asks) {
		case book.ApplyStale:
			use.metrics.IncStaleDiff()
			return
		case book.ApplyGap:
			use.metrics.IncGap()
			logs.Errorf("depth sequence gap: U=%d lastSequenceID=%d, resyncing",
				e.Depth.FirstUpdateID, use.book.LastSequenceID())
			use.syncBook(ctx)
			return
		case book.ApplyAccepted:
			use.metrics.IncDepthEvent()
		default:
			return
		}

	case ingest.KindTrade:
		use.metrics.IncTradeEvent()
		if !use.applyTrade(e.Trade) {
			return
		}

	default:
		use.metrics.IncUnknownEvent()
		return
	}

	use.reconcile(ctx)
}

// SweepStale cancels every resting order older than the configured
// timeout, regardless of price or signal match.
func (use *Usecase) SweepStale(ctx context.Context, now time.Time) {
	if use.cfg.StaleAfter <= 0 {
		return
	}
	cutoff := now.Add(-use.cfg.StaleAfter)
	for _, ix := range []*Index{use.bids, use.asks} {
		for _, o := range ix.Snapshot() {
			if o.PlacedAt.Before(cutoff) {
				if use.cancel(ctx, o) {
					use.metrics.IncStaleCancel()
					logs.Infof("canceled stale %s order %d at %s",
						o.Side, o.ExchangeID, o.Price.String(use.cfg.PriceScale))
				}
			}
		}
	}
}

// CancelAll cancels every open order for the symbol in one exchange
// call and clears local tracking on success. Used on shutdown and when
// the risk halt latch trips.
func (use *Usecase) CancelAll(ctx context.Context) error {
	if err := use.delegator.CancelOpenOrders(ctx, use.cfg.Symbol); err != nil {
		logs.Errorf("cancel all open orders, err: %+v", err)
		return err
	}
	use.bids.Clear()
	use.asks.Clear()
	logs.Infof("all open orders for %s canceled", use.cfg.Symbol)
	return nil
}

// syncBook fetches a fresh snapshot with unbounded retries and a fixed
// delay. Diffs that arrive while unsynced are discarded; the snapshot
// is a full replacement.
func (use *Usecase) syncBook(ctx context.Context) {
	for {
		snapshot, err := use.delegator.FetchDepthSnapshot(ctx, use.cfg.Symbol, use.cfg.SnapshotLimit)
		if err == nil {
			if err = use.book.ApplySnapshot(snapshot.Bids, snapshot.Asks, snapshot.LastUpdateID); err == nil {
				use.metrics.IncResync()
				logs.Infof("order book synced, lastUpdateId=%d", snapshot.LastUpdateID)
				return
			}
		}

		logs.Errorf("sync order book failed, retry in %s, err: %+v", use.cfg.ResyncDelay, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(use.cfg.ResyncDelay):
		}
	}
}

func (use *Usecase) applyTrade(t ingest.Trade) bool {
	qty, err := model.ParseQuantity(t.Quantity, use.cfg.QuantityScale)
	if err != nil {
		logs.Errorf("drop malformed trade quantity %q, err: %+v", t.Quantity, err)
		return false
	}

	position := use.risk.ApplyTrade(qty, t.MakerSell)

	if use.recorder != nil {
		price, err := model.ParsePrice(t.Price, use.cfg.PriceScale)
		if err != nil {
			price = 0
		}
		use.recorder.RecordFill(price, qty, t.MakerSell, position)
	}

	if use.risk.Halted() && !use.haltHandled {
		use.haltHandled = true
		_ = use.CancelAll(context.WithoutCancel(context.Background()))
	}
	return true
}

// reconcile runs one quote pass: derive targets, cancel resting orders
// that no longer match the target price or the current signal, then
// fill empty target slots. Cancels always run before placements so the
// intended resting size at a level is never exceeded.
func (use *Usecase) reconcile(ctx context.Context) {
	metrics, err := use.book.ComputeMetrics()
	if err != nil {
		return
	}

	quotes := quote.Derive(metrics, use.cfg.Tick)
	use.signal = quotes.Signal

	use.reconcileSide(ctx, use.bids, quotes.Bid)
	use.reconcileSide(ctx, use.asks, quotes.Ask)
}

func (use *Usecase) reconcileSide(ctx context.Context, ix *Index, target model.Price) {
	for _, o := range ix.Snapshot() {
		if o.Price != target || o.Signal != use.signal {
			use.cancel(ctx, o)
		}
	}

	// A mismatched order whose cancel failed still occupies the slot;
	// placement waits for the next pass rather than orphaning it.
	if _, occupied := ix.Get(target); !occupied {
		use.place(ctx, ix.Side(), target)
	}
}

// place admits the order through the risk engine and submits it. On
// rejection no network call is made; on any submit failure the order is
// never tracked.
func (use *Usecase) place(ctx context.Context, side enum.OrderSide, price model.Price) {
	qty := use.cfg.QuoteQty

	if reason := use.risk.Evaluate(side, qty); reason != risk.ReasonNone {
		use.metrics.IncRiskReject(reason)
		logs.Infof("skip placement, err: %+v", errors.Wrapf(exception.ErrOrderRiskRejected,
			"side=%s price=%s qty=%s reason=%s",
			side, price.String(use.cfg.PriceScale), qty.String(use.cfg.QuantityScale), reason))
		return
	}

	order := model.Order{
		ClientID:  uuid.NewString(),
		Symbol:    use.cfg.Symbol,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Status:    enum.OrderStatusPending,
		Signal:    use.signal,
		CreatedAt: use.now(),
	}

	resp, err := use.delegator.PlaceOrder(ctx, exchange.PlaceRequest{
		Symbol:        order.Symbol,
		Side:          order.Side,
		Price:         order.Price.String(use.cfg.PriceScale),
		Quantity:      order.Quantity.String(use.cfg.QuantityScale),
		ClientOrderID: order.ClientID,
	})
	if err != nil {
		use.metrics.IncPlaceFailure()
		order.Status = enum.OrderStatusRejected
		use.recordOrder(order)
		logs.Errorf("place %s order at %s failed, err: %+v",
			side, price.String(use.cfg.PriceScale), err)
		return
	}

	// Key the slot by the exchange-echoed price in case of normalization.
	tracked, err := model.ParsePrice(resp.Price.String(), use.cfg.PriceScale)
	if err != nil {
		tracked = price
	}

	order.ExchangeID = resp.OrderID
	order.Price = tracked
	use.indexFor(side).Insert(RestingOrder{
		ExchangeID: resp.OrderID,
		ClientID:   order.ClientID,
		Side:       side,
		Price:      tracked,
		Signal:     order.Signal,
		PlacedAt:   order.CreatedAt,
	})
	use.metrics.IncOrderPlaced()
	use.recordOrder(order)
	logs.Infof("placed %s order %d at %s qty %s signal %s",
		side, resp.OrderID, tracked.String(use.cfg.PriceScale),
		qty.String(use.cfg.QuantityScale), order.Signal)
}

// cancel submits a single cancellation. On success the slot is released
// only while the tracked id still matches; on failure local state is
// left unchanged so the next pass retries.
func (use *Usecase) cancel(ctx context.Context, o RestingOrder) bool {
	if err := use.delegator.CancelOrder(ctx, use.cfg.Symbol, o.ExchangeID); err != nil {
		use.metrics.IncCancelFailure()
		logs.Errorf("cancel %s order %d at %s failed, err: %+v",
			o.Side, o.ExchangeID, o.Price.String(use.cfg.PriceScale), err)
		return false
	}

	use.indexFor(o.Side).Remove(o.Price, o.ExchangeID)
	use.metrics.IncOrderCanceled()
	use.recordOrder(model.Order{
		ClientID:   o.ClientID,
		ExchangeID: o.ExchangeID,
		Symbol:     use.cfg.Symbol,
		Side:       o.Side,
		Price:      o.Price,
		Status:     enum.OrderStatusCanceled,
		Signal:     o.Signal,
		CreatedAt:  o.PlacedAt,
	})
	return true
}

func (use *Usecase) indexFor(side enum.OrderSide) *Index {
	if side == enum.OrderSideSell {
		return use.asks
	}
	return use.bids
}

func (use *Usecase) recordOrder(order model.Order) {
	if use.recorder != nil {
		use.recorder.RecordOrder(order)
	}
}
