package maker

import (
	"time"

	"main/internal/model"
	"main/internal/model/enum"
)

// RestingOrder is one tracked, not-yet-terminal limit order. The side
// and price stay attached to the entry so any cancellation path,
// including the stale sweep, can update the owning index.
type RestingOrder struct {
	ExchangeID int64
	ClientID   string
	Side       enum.OrderSide
	Price      model.Price
	Signal     enum.Signal
	PlacedAt   time.Time
}

// Index tracks at most one resting order per price for a single side.
type Index struct {
	side    enum.OrderSide
	entries map[model.Price]RestingOrder
}

// NewIndex creates an empty index for the given side.
func NewIndex(side enum.OrderSide) *Index {
	return &Index{
		side:    side,
		entries: make(map[model.Price]RestingOrder),
	}
}

func (ix *Index) Side() enum.OrderSide {
	return ix.side
}

func (ix *Index) Len() int {
	return len(ix.entries)
}

// Insert records an order at its price slot, replacing any previous
// occupant.
func (ix *Index) Insert(o RestingOrder) {
	ix.entries[o.Price] = o
}

// Get returns the order occupying the price slot.
func (ix *Index) Get(price model.Price) (RestingOrder, bool) {
	o, ok := ix.entries[price]
	return o, ok
}

// Remove clears the price slot only while the tracked exchange id still
// matches, guarding against a newer order having replaced the slot.
func (ix *Index) Remove(price model.Price, exchangeID int64) bool {
	o, ok := ix.entries[price]
	if !ok || o.ExchangeID != exchangeID {
		return false
	}
	delete(ix.entries, price)
	return true
}

// Clear drops all entries. Used after a confirmed bulk cancellation.
func (ix *Index) Clear() {
	for price := range ix.entries {
		delete(ix.entries, price)
	}
}

// Snapshot returns a copy of the entries, safe to iterate while the
// index is mutated by cancellations.
func (ix *Index) Snapshot() []RestingOrder {
	orders := make([]RestingOrder, 0, len(ix.entries))
	for _, o := range ix.entries {
		orders = append(orders, o)
	}
	return orders
}
