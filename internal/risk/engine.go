// Package risk gates order admission against hard position and size
// limits, and tracks the net position from confirmed fills.
package risk

import (
	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
)

// Config defines simple risk limits. MaxShort must be <= 0.
type Config struct {
	MaxLong       model.Quantity
	MaxShort      model.Quantity
	MaxOrderQty   model.Quantity
	Tolerance     model.Quantity
	QuantityScale int
}

// Reason explains a denied admission check.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonHalted
	ReasonMaxOrderQty
	ReasonLongLimit
	ReasonShortLimit
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonHalted:
		return "halted"
	case ReasonMaxOrderQty:
		return "max order qty"
	case ReasonLongLimit:
		return "long limit"
	case ReasonShortLimit:
		return "short limit"
	default:
		return "unknown"
	}
}

// Engine evaluates admission checks and owns the net position.
//
// Position is mutated only by confirmed fills reported through the
// market data stream, never by speculative placement. Not safe for
// concurrent use; the event-processing task is the only caller.
type Engine struct {
	cfg      Config
	position model.Quantity
	halted   bool
}

// NewEngine creates a risk engine with static limits.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Position returns the current signed net position.
func (e *Engine) Position() model.Quantity {
	return e.position
}

// Halted reports whether a limit breach has latched the engine.
func (e *Engine) Halted() bool {
	return e.halted
}

// Evaluate checks a prospective order against the limits. It never
// mutates state; ReasonNone means the order is admitted.
func (e *Engine) Evaluate(side enum.OrderSide, qty model.Quantity) Reason {
	if e.halted {
		return ReasonHalted
	}
	if qty > e.cfg.MaxOrderQty {
		return ReasonMaxOrderQty
	}

	next := e.position
	switch side {
	case enum.OrderSideSell:
		next -= qty
	default:
		next += qty
	}
	if next > e.cfg.MaxLong {
		return ReasonLongLimit
	}
	if next < e.cfg.MaxShort {
		return ReasonShortLimit
	}
	return ReasonNone
}

// ApplyTrade updates the position from a confirmed trade. A maker-sell
// trade reduces the position. Exceeding a bound by more than the
// configured tolerance is a critical condition: it is logged at the
// highest severity and latches the halt flag, blocking all further
// placements until restart.
func (e *Engine) ApplyTrade(qty model.Quantity, makerSell bool) model.Quantity {
	if makerSell {
		e.position -= qty
	} else {
		e.position += qty
	}

	if e.position > e.cfg.MaxLong+e.cfg.Tolerance || e.position < e.cfg.MaxShort-e.cfg.Tolerance {
		if !e.halted {
			e.halted = true
			logs.Errorf("CRITICAL position limit breached: position=%s long=%s short=%s, halting placements",
				e.position.String(e.cfg.QuantityScale),
				e.cfg.MaxLong.String(e.cfg.QuantityScale),
				e.cfg.MaxShort.String(e.cfg.QuantityScale),
			)
		}
	}
	return e.position
}
