package exception

import "github.com/yanun0323/errors"

var (
	ErrConfigInvalidScale  = errors.New("config: invalid scale")
	ErrConfigInvalidLimit  = errors.New("config: invalid risk limit")
	ErrConfigMissingSymbol = errors.New("config: missing symbol")
	ErrConfigBadDecimal    = errors.New("config: malformed decimal value")
)
