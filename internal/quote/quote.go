// Package quote turns the current book metrics into a directional
// signal and a two-sided target quote.
package quote

import (
	"main/internal/book"
	"main/internal/model"
	"main/internal/model/enum"
)

// Quotes is the desired resting state for one reconciliation pass.
type Quotes struct {
	Signal enum.Signal
	Bid    model.Price
	Ask    model.Price
}

// Derive maps the weighted midprice against the raw midprice.
//
// An upward bias leans the ask one tick above best ask, a downward bias
// leans the bid one tick below best bid; neutral joins the touch on
// both sides. The bid never rises above best bid and the ask never
// falls below best ask.
func Derive(m book.Metrics, tick model.Price) Quotes {
	switch {
	case m.WeightedMid > m.Mid:
		return Quotes{
			Signal: enum.SignalUp,
			Bid:    m.BestBid,
			Ask:    m.BestAsk + tick,
		}
	case m.WeightedMid < m.Mid:
		return Quotes{
			Signal: enum.SignalDown,
			Bid:    m.BestBid - tick,
			Ask:    m.BestAsk,
		}
	default:
		return Quotes{
			Signal: enum.SignalNeutral,
			Bid:    m.BestBid,
			Ask:    m.BestAsk,
		}
	}
}
