package enum

// Signal up, down, neutral
//
// The directional bias derived from book imbalance. Every resting order
// carries the signal that was current when it was placed; a mismatch
// against the live signal marks the order as no longer desired.
type Signal uint8

const (
	_signal_beg Signal = iota
	SignalUp
	SignalDown
	SignalNeutral
	_signal_end
)

func (s Signal) IsAvailable() bool {
	return s > _signal_beg && s < _signal_end
}

func (s Signal) String() string {
	switch s {
	case SignalUp:
		return "UP"
	case SignalDown:
		return "DOWN"
	case SignalNeutral:
		return "NEUTRAL"
	default:
		return "UNKNOWN"
	}
}
