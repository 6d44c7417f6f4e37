// Package obs collects lightweight engine counters, logged as a
// snapshot on shutdown.
package obs

import (
	"sync/atomic"

	"main/internal/risk"
)

const maxRiskReason = int(risk.ReasonShortLimit)

// Metrics counts engine activity. All methods are safe for concurrent
// use and nil-receiver tolerant.
type Metrics struct {
	depthEvents   uint64
	tradeEvents   uint64
	unknownEvents uint64
	staleDiffs    uint64
	gaps          uint64
	resyncs       uint64

	ordersPlaced   uint64
	ordersCanceled uint64
	cancelFailures uint64
	placeFailures  uint64
	staleCancels   uint64

	riskRejects [maxRiskReason + 1]uint64

	queueDrops  uint64
	queueClosed uint64
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	DepthEvents   uint64
	TradeEvents   uint64
	UnknownEvents uint64
	StaleDiffs    uint64
	Gaps          uint64
	Resyncs       uint64

	OrdersPlaced   uint64
	OrdersCanceled uint64
	CancelFailures uint64
	PlaceFailures  uint64
	StaleCancels   uint64

	RiskRejects map[risk.Reason]uint64

	QueueDrops  uint64
	QueueClosed uint64
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncDepthEvent() { m.inc(&m.depthEvents) }
func (m *Metrics) IncTradeEvent() { m.inc(&m.tradeEvents) }
func (m *Metrics) IncUnknownEvent() { m.inc(&m.unknownEvents) }
func (m *Metrics) IncStaleDiff() { m.inc(&m.staleDiffs) }
func (m *Metrics) IncGap() { m.inc(&m.gaps) }
func (m *Metrics) IncResync() { m.inc(&m.resyncs) }

func (m *Metrics) IncOrderPlaced() { m.inc(&m.ordersPlaced) }
func (m *Metrics) IncOrderCanceled() { m.inc(&m.ordersCanceled) }
func (m *Metrics) IncCancelFailure() { m.inc(&m.cancelFailures) }
func (m *Metrics) IncPlaceFailure() { m.inc(&m.placeFailures) }
func (m *Metrics) IncStaleCancel() { m.inc(&m.staleCancels) }

func (m *Metrics) IncQueueDrop() { m.inc(&m.queueDrops) }
func (m *Metrics) IncQueueClosed() { m.inc(&m.queueClosed) }

// IncRiskReject increments the counter for a denial reason.
func (m *Metrics) IncRiskReject(reason risk.Reason) {
	if m == nil {
		return
	}
	idx := int(reason)
	if idx >= 0 && idx < len(m.riskRejects) {
		atomic.AddUint64(&m.riskRejects[idx], 1)
	}
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	s := Snapshot{
		DepthEvents:    atomic.LoadUint64(&m.depthEvents),
		TradeEvents:    atomic.LoadUint64(&m.tradeEvents),
		UnknownEvents:  atomic.LoadUint64(&m.unknownEvents),
		StaleDiffs:     atomic.LoadUint64(&m.staleDiffs),
		Gaps:           atomic.LoadUint64(&m.gaps),
		Resyncs:        atomic.LoadUint64(&m.resyncs),
		OrdersPlaced:   atomic.LoadUint64(&m.ordersPlaced),
		OrdersCanceled: atomic.LoadUint64(&m.ordersCanceled),
		CancelFailures: atomic.LoadUint64(&m.cancelFailures),
		PlaceFailures:  atomic.LoadUint64(&m.placeFailures),
		StaleCancels:   atomic.LoadUint64(&m.staleCancels),
		QueueDrops:     atomic.LoadUint64(&m.queueDrops),
		QueueClosed:    atomic.LoadUint64(&m.queueClosed),
	}
	s.RiskRejects = make(map[risk.Reason]uint64, len(m.riskRejects))
	for i := range m.riskRejects {
		if v := atomic.LoadUint64(&m.riskRejects[i]); v > 0 {
			s.RiskRejects[risk.Reason(i)] = v
		}
	}
	return s
}

func (m *Metrics) inc(counter *uint64) {
	if m == nil {
		return
	}
	atomic.AddUint64(counter, 1)
}
