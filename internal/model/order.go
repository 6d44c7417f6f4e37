package model

import (
	"time"

	"main/internal/model/enum"
)

// Order is the local view of a limit order from creation until it
// reaches a terminal status. Owned exclusively by the order manager.
type Order struct {
	ClientID   string
	ExchangeID int64
	Symbol     string
	Side       enum.OrderSide
	Price      Price
	Quantity   Quantity
	Status     enum.OrderStatus
	FilledQty  Quantity
	Signal     enum.Signal
	CreatedAt  time.Time
}
