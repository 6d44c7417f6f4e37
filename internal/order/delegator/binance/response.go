package binance

import "github.com/yanun0323/decimal"

// ResponseError is the exchange's error body on non-2xx responses.
type ResponseError struct {
	Code    int64  `json:"code,omitempty"`
	Message string `json:"msg,omitempty"`
}

// DepthSnapshot is a complete point-in-time book state.
type DepthSnapshot struct {
	LastUpdateID int64       `json:"lastUpdateId"`
	Bids         [][2]string `json:"bids"` // [0]price [1]quantity
	Asks         [][2]string `json:"asks"` // [0]price [1]quantity
}

// PlaceResponse echoes the accepted order. Price comes back as an
// exact decimal and is re-parsed into the instrument scale by the
// caller before it keys any index.
type PlaceResponse struct {
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Symbol        string          `json:"symbol"`
	Status        string          `json:"status"`
	Price         decimal.Decimal `json:"price"`
	OrigQty       decimal.Decimal `json:"origQty"`
	TransactTime  int64           `json:"transactTime"`
}
