package binance

import (
	"github.com/yanun0323/pkg/ws"
)

// EventKind tags a decoded stream frame.
type EventKind uint8

const (
	KindUnknown EventKind = iota
	KindDepthUpdate
	KindTrade
)

// Event is the tagged variant delivered to the consumer. Frames are
// decoded exactly once at the channel boundary; downstream code
// switches on Kind and never inspects raw JSON.
type Event struct {
	Kind  EventKind
	Depth DepthUpdate
	Trade Trade
}

// DepthUpdate mirrors Binance's diff depth stream payload.
type DepthUpdate struct {
	EventType     string      `json:"e"`
	EventTime     int64       `json:"E"`
	Symbol        string      `json:"s"`
	FirstUpdateID int64       `json:"U"`
	FinalUpdateID int64       `json:"u"`
	Bids          [][2]string `json:"b"` // [0]price [1]quantity
	Asks          [][2]string `json:"a"` // [0]price [1]quantity
}

// Trade mirrors Binance's trade stream payload. MakerSell true means
// the maker side of the trade was a sell.
type Trade struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	Quantity  string `json:"q"`
	MakerSell bool   `json:"m"`
}

type eventProbe struct {
	EventType string `json:"e"`
}

const (
	eventTypeDepthUpdate = "depthUpdate"
	eventTypeTrade       = "trade"
)

// decodeEvent classifies and decodes one websocket frame. Frames that
// are not depth or trade events (subscribe acks and the like) come back
// as KindUnknown.
func decodeEvent(m ws.Message) (Event, bool) {
	probe, ok := ws.ReadMessage[eventProbe](m)
	if !ok {
		return Event{}, false
	}

	switch probe.EventType {
	case eventTypeDepthUpdate:
		depth, ok := ws.ReadMessage[DepthUpdate](m)
		if !ok {
			return Event{}, false
		}
		return Event{Kind: KindDepthUpdate, Depth: depth}, true
	case eventTypeTrade:
		trade, ok := ws.ReadMessage[Trade](m)
		if !ok {
			return Event{}, false
		}
		return Event{Kind: KindTrade, Trade: trade}, true
	default:
		return Event{Kind: KindUnknown}, true
	}
}
