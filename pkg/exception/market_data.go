package exception

import "github.com/yanun0323/errors"

var (
	ErrMarketDataMalformedFrame = errors.New("market data: malformed frame")
	ErrMarketDataSubscribe      = errors.New("market data: subscribe rejected")
	ErrMarketDataSnapshot       = errors.New("market data: snapshot fetch failed")
)
