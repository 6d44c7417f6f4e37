package exception

import "github.com/yanun0323/errors"

var (
	ErrBookEmptySide = errors.New("book: empty side")
	ErrBookBadLevel  = errors.New("book: malformed price level")
)
