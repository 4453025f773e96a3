package datatype

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
	"strings"
)

// ErrInvalidRounding is returned when a rounding name cannot be parsed.
var ErrInvalidRounding = errors.New("invalid rounding mode")

// Rounding selects how fractional tick counts are resolved.
type Rounding uint8

const (
	// RoundNearest rounds half up. This is the default.
	RoundNearest Rounding = iota

	// RoundUp takes the ceiling.
	RoundUp

	// RoundDown takes the floor.
	RoundDown
)

// String returns the rounding mode name.
func (r Rounding) String() string {
	switch r {
	case RoundNearest:
		return "nearest"
	case RoundUp:
		return "up"
	case RoundDown:
		return "down"
	default:
		return "unknown"
	}
}

// ParseRounding parses a rounding mode name (case-insensitive).
// An empty string selects RoundNearest.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nearest", "round":
		return RoundNearest, nil
	case "up", "ceil", "round_up":
		return RoundUp, nil
	case "down", "floor", "round_down":
		return RoundDown, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be nearest, up, or down)", ErrInvalidRounding, s)
	}
}

// ToTicks converts a duration value in unit to a tick count at
// ticksPerSecond. Non-duration units and a zero tick rate yield 0.
// The result saturates at math.MaxUint64.
func ToTicks(value uint64, unit Unit, ticksPerSecond uint64, rounding Rounding) uint64 {
	div := unit.PerSecond()
	if div == 0 || ticksPerSecond == 0 || value == 0 {
		return 0
	}

	hi, lo := bits.Mul64(value, ticksPerSecond)

	var bias uint64
	switch rounding {
	case RoundUp:
		bias = div - 1
	case RoundDown:
		bias = 0
	default:
		bias = div / 2
	}

	var carry uint64
	lo, carry = bits.Add64(lo, bias, 0)
	hi += carry

	if hi >= div {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, div)
	return q
}
