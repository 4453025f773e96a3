package datatype

import "math"

// Code limits of a 16-bit signed analog channel.
const (
	CodeMax = math.MaxInt16
	CodeMin = math.MinInt16
)

// Default full-scale ranges in millivolts.
const (
	// OutputFullScale is the ±5 V DAC range shared by all outputs.
	OutputFullScale = 5000

	// InputFullScale is the default feedback ADC range.
	InputFullScale = 5000
)

// Scale maps millivolts to 16-bit signed codes over ±FullScale.
type Scale struct {
	// FullScale is the magnitude of the range in millivolts.
	FullScale int32
}

// OutputScale returns the default ±5 V output scale.
func OutputScale() Scale {
	return Scale{FullScale: OutputFullScale}
}

// InputScale returns the default feedback input scale.
func InputScale() Scale {
	return Scale{FullScale: InputFullScale}
}

// Valid returns true if the full-scale range is positive.
func (s Scale) Valid() bool {
	return s.FullScale > 0
}

// ToCode converts millivolts to a code. The result is truncated toward
// zero and saturates at the code limits.
func (s Scale) ToCode(mv int32) int16 {
	if s.FullScale <= 0 {
		return 0
	}
	raw := int64(mv) * CodeMax / int64(s.FullScale)
	return clampCode(raw)
}

// FloatToCode converts a fractional millivolt value, rounding to the
// nearest code.
func (s Scale) FloatToCode(mv float64) int16 {
	if s.FullScale <= 0 {
		return 0
	}
	raw := math.Round(mv * CodeMax / float64(s.FullScale))
	if raw > CodeMax {
		return CodeMax
	}
	if raw < CodeMin {
		return CodeMin
	}
	return int16(raw)
}

// ToMillivolts converts a code back to millivolts (truncated).
func (s Scale) ToMillivolts(code int16) int32 {
	return int32(int64(code) * int64(s.FullScale) / CodeMax)
}

// Negate returns -code, saturating so that CodeMin maps to CodeMax.
func Negate(code int16) int16 {
	if code == CodeMin {
		return CodeMax
	}
	return -code
}

func clampCode(v int64) int16 {
	if v > CodeMax {
		return CodeMax
	}
	if v < CodeMin {
		return CodeMin
	}
	return int16(v)
}
