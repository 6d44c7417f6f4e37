package model

import (
	"math"
	"strconv"

	"github.com/yanun0323/errors"
)

// Price is a scaled integer. The scale is defined by configuration.
//
// Prices key order book levels and the resting order index, so they
// must compare exactly; never round-trip them through float64.
type Price int64

func (p Price) AppendString(priceScale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(p), priceScale)
}

func (p Price) String(priceScale int) string {
	return string(p.AppendString(priceScale, make([]byte, 0, 32)))
}

// Quantity is a scaled integer. The scale is defined by configuration.
type Quantity int64

func (q Quantity) AppendString(quantityScale int, buf []byte) []byte {
	return appendScaledInt(buf, int64(q), quantityScale)
}

func (q Quantity) String(quantityScale int) string {
	return string(q.AppendString(quantityScale, make([]byte, 0, 32)))
}

// ParsePrice converts a decimal wire string into a scaled price.
func ParsePrice(s string, priceScale int) (Price, error) {
	v, err := parseScaledInt(s, priceScale)
	if err != nil {
		return 0, errors.Wrap(err, "parse price")
	}
	return Price(v), nil
}

// ParseQuantity converts a decimal wire string into a scaled quantity.
func ParseQuantity(s string, quantityScale int) (Quantity, error) {
	v, err := parseScaledInt(s, quantityScale)
	if err != nil {
		return 0, errors.Wrap(err, "parse quantity")
	}
	return Quantity(v), nil
}

func appendScaledInt(buf []byte, value int64, scale int) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

	neg := value < 0
	u := uint64(value)
	if neg {
		u = uint64(^value) + 1
	}

	var tmp [32]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}

	if len(digits) <= scale {
		buf = append(buf, '0', '.')
		for i := 0; i < scale-len(digits); i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
		return buf
	}

	idx := len(digits) - scale
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	buf = append(buf, digits[idx:]...)
	return buf
}

// parseScaledInt reads an optionally signed decimal string into an int64
// scaled by 10^scale. Fractional digits beyond the scale are truncated.
func parseScaledInt(s string, scale int) (int64, error) {
	if len(s) == 0 {
		return 0, errors.New("empty value")
	}

	neg := false
	i := 0
	switch s[0] {
	case '-':
		neg = true
		i++
	case '+':
		i++
	}
	if i == len(s) {
		return 0, errors.Errorf("malformed value %q", s)
	}

	var value int64
	digits := 0
	frac := -1
	for ; i < len(s); i++ {
		c := s[i]
		if c == '.' {
			if frac >= 0 {
				return 0, errors.Errorf("malformed value %q", s)
			}
			frac = 0
			continue
		}
		if c < '0' || c > '9' {
			return 0, errors.Errorf("malformed value %q", s)
		}
		if frac >= 0 {
			if frac == scale {
				continue // truncate beyond the instrument scale
			}
			frac++
		}
		digits++
		d := int64(c - '0')
		if value > (math.MaxInt64-d)/10 {
			return 0, errors.Errorf("value %q overflows", s)
		}
		value = value*10 + d
	}
	if digits == 0 {
		return 0, errors.Errorf("malformed value %q", s)
	}

	if frac < 0 {
		frac = 0
	}
	for ; frac < scale; frac++ {
		if value > math.MaxInt64/10 {
			return 0, errors.Errorf("value %q overflows", s)
		}
		value *= 10
	}

	if neg {
		value = -value
	}
	return value, nil
}
