// Package book keeps an in-memory mirror of one symbol's exchange order
// book, rebuilt from REST snapshots and advanced by sequence-numbered
// depth diffs.
package book

import (
	"math"
	"sort"

	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/pkg/exception"
)

// weight decay across paired depth ranks
const imbalanceAlpha = 0.8

// ApplyResult reports how a depth diff was handled.
type ApplyResult uint8

const (
	// ApplyAccepted means the diff was contiguous and its levels were applied.
	ApplyAccepted ApplyResult = iota
	// ApplyStale means the diff predates the current book state and was discarded.
	ApplyStale
	// ApplyGap means a sequence gap was detected; the book is no longer synced.
	ApplyGap
	// ApplyUnsynced means the book has no snapshot yet; the diff was discarded.
	ApplyUnsynced
)

// Book mirrors exchange liquidity at discrete price levels.
//
// Not safe for concurrent use; the event-processing task is the only
// mutator by design.
type Book struct {
	priceScale    int
	quantityScale int

	bids map[model.Price]model.Quantity
	asks map[model.Price]model.Quantity

	lastSequenceID int64
	synced         bool
}

// New creates an empty, unsynced book for the given instrument scales.
func New(priceScale, quantityScale int) *Book {
	return &Book{
		priceScale:    priceScale,
		quantityScale: quantityScale,
		bids:          make(map[model.Price]model.Quantity),
		asks:          make(map[model.Price]model.Quantity),
	}
}

func (b *Book) Synced() bool {
	return b.synced
}

func (b *Book) LastSequenceID() int64 {
	return b.lastSequenceID
}

// MarkUnsynced forces a resynchronization on the next snapshot attempt.
func (b *Book) MarkUnsynced() {
	b.synced = false
}

// Depth returns the number of tracked bid and ask levels.
func (b *Book) Depth() (bids, asks int) {
	return len(b.bids), len(b.asks)
}

// ApplySnapshot replaces the book wholesale and transitions to synced.
// The snapshot sequence id becomes the new continuity anchor.
func (b *Book) ApplySnapshot(bids, asks [][2]string, lastUpdateID int64) error {
	newBids := make(map[model.Price]model.Quantity, len(bids))
	if err := fillLevels(newBids, bids, b.priceScale, b.quantityScale); err != nil {
		return err
	}
	newAsks := make(map[model.Price]model.Quantity, len(asks))
	if err := fillLevels(newAsks, asks, b.priceScale, b.quantityScale); err != nil {
		return err
	}

	b.bids = newBids
	b.asks = newAsks
	b.lastSequenceID = lastUpdateID
	b.synced = true
	return nil
}

// ApplyDiff applies one depth diff carrying sequence ids [firstID, finalID].
// Diffs are accepted only while synced and only when contiguous with the
// last applied sequence id; anything else is discarded.
func (b *Book) ApplyDiff(firstID, finalID int64, bids, asks [][2]string) ApplyResult {
	if !b.synced {
		return ApplyUnsynced
	}
	if finalID <= b.lastSequenceID {
		return ApplyStale
	}
	if firstID > b.lastSequenceID+1 {
		b.synced = false
		return ApplyGap
	}

	b.updateLevels(b.bids, bids)
	b.updateLevels(b.asks, asks)
	b.lastSequenceID = finalID
	return ApplyAccepted
}

// Metrics is the derived per-update market view. WeightedMid and Mid are
// expressed in scaled price units, matching BestBid/BestAsk.
type Metrics struct {
	WeightedMid float64
	Mid         float64
	BestBid     model.Price
	BestAsk     model.Price
}

type level struct {
	price model.Price
	qty   model.Quantity
}

// ComputeMetrics derives the exponentially weighted imbalance midprice.
// It is a pure function of the current level maps and fails when either
// side is empty.
func (b *Book) ComputeMetrics() (Metrics, error) {
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return Metrics{}, exception.ErrBookEmptySide
	}

	bids := sortedLevels(b.bids, func(a, c model.Price) bool { return a > c })
	asks := sortedLevels(b.asks, func(a, c model.Price) bool { return a < c })

	bestBid := bids[0].price
	bestAsk := asks[0].price
	mid := (float64(bestBid) + float64(bestAsk)) / 2

	n := len(bids)
	if len(asks) < n {
		n = len(asks)
	}

	var weightSum, imbalanceSum float64
	for k := 0; k < n; k++ {
		w := math.Exp(-imbalanceAlpha * float64(k))
		bidValue := float64(bids[k].price) * float64(bids[k].qty)
		askValue := float64(asks[k].price) * float64(asks[k].qty)
		var imbalance float64
		if total := bidValue + askValue; total != 0 {
			imbalance = bidValue / total
		}
		weightSum += w
		imbalanceSum += w * imbalance
	}
	i := imbalanceSum / weightSum

	return Metrics{
		WeightedMid: i*float64(bestAsk) + (1-i)*float64(bestBid),
		Mid:         mid,
		BestBid:     bestBid,
		BestAsk:     bestAsk,
	}, nil
}

// updateLevels sets or removes levels in place. Malformed rows are
// logged and skipped so one bad row never poisons the whole diff.
func (b *Book) updateLevels(side map[model.Price]model.Quantity, rows [][2]string) {
	for _, row := range rows {
		price, err := model.ParsePrice(row[0], b.priceScale)
		if err != nil {
			logs.Errorf("skip malformed level price %q, err: %+v", row[0], err)
			continue
		}
		qty, err := model.ParseQuantity(row[1], b.quantityScale)
		if err != nil {
			logs.Errorf("skip malformed level quantity %q, err: %+v", row[1], err)
			continue
		}
		if qty <= 0 {
			delete(side, price)
			continue
		}
		side[price] = qty
	}
}

func fillLevels(side map[model.Price]model.Quantity, rows [][2]string, priceScale, quantityScale int) error {
	for _, row := range rows {
		price, err := model.ParsePrice(row[0], priceScale)
		if err != nil {
			return exception.ErrBookBadLevel
		}
		qty, err := model.ParseQuantity(row[1], quantityScale)
		if err != nil {
			return exception.ErrBookBadLevel
		}
		if qty <= 0 {
			continue
		}
		side[price] = qty
	}
	return nil
}

func sortedLevels(side map[model.Price]model.Quantity, less func(a, b model.Price) bool) []level {
	levels := make([]level, 0, len(side))
	for price, qty := range side {
		levels = append(levels, level{price: price, qty: qty})
	}
	sort.Slice(levels, func(i, j int) bool { return less(levels[i].price, levels[j].price) })
	return levels
}
