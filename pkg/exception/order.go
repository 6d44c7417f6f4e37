package exception

import "github.com/yanun0323/errors"

var (
	ErrOrderRejectedByExchange = errors.New("order: rejected by exchange")
	ErrOrderMissingExchangeID  = errors.New("order: response missing order id")
	ErrOrderDecodeResponseBody = errors.New("order: decode response body")
	ErrOrderRiskRejected       = errors.New("order: rejected by risk engine")
	ErrCancelRejected          = errors.New("order: cancel rejected by exchange")
)
