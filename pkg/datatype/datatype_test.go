package datatype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeMetadata(t *testing.T) {
	tests := []struct {
		typ    Type
		width  uint
		signed bool
		unit   Unit
	}{
		{Boolean, 1, false, UnitNone},
		{MillivoltS16, 16, true, UnitMillivolt},
		{DurationNSU16, 16, false, UnitNanosecond},
		{DurationNSU32, 32, false, UnitNanosecond},
		{DurationUSU24, 24, false, UnitMicrosecond},
		{DurationMSU8, 8, false, UnitMillisecond},
		{DurationSU16, 16, false, UnitSecond},
	}

	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			assert.Equal(t, tt.width, tt.typ.Width())
			assert.Equal(t, tt.signed, tt.typ.Signed())
			assert.Equal(t, tt.unit, tt.typ.Unit())
			assert.True(t, tt.typ.Valid())
		})
	}

	assert.False(t, Type(0).Valid())
	assert.Equal(t, "UNKNOWN", Type(200).String())
}

func TestTypeTruncate(t *testing.T) {
	assert.Equal(t, int64(-1), MillivoltS16.Truncate(0xFFFF))
	assert.Equal(t, int64(-32768), MillivoltS16.Truncate(32768))
	assert.Equal(t, int64(1234), MillivoltS16.Truncate(1234))
	assert.Equal(t, int64(0), DurationNSU8.Truncate(256))
	assert.Equal(t, int64(255), DurationNSU8.Truncate(-1))
	assert.Equal(t, int64(1), Boolean.Truncate(3))
	assert.Equal(t, int64(0xFFFFFF), DurationUSU24.Truncate(0xFFFFFF))
}

func TestToTicks(t *testing.T) {
	const clk125 = 125_000_000

	tests := []struct {
		name     string
		value    uint64
		unit     Unit
		tps      uint64
		rounding Rounding
		want     uint64
	}{
		{"80ns at 125MHz", 80, UnitNanosecond, clk125, RoundNearest, 10},
		{"120ns at 125MHz", 120, UnitNanosecond, clk125, RoundNearest, 15},
		{"500ns nearest", 500, UnitNanosecond, clk125, RoundNearest, 63},
		{"500ns up", 500, UnitNanosecond, clk125, RoundUp, 63},
		{"500ns down", 500, UnitNanosecond, clk125, RoundDown, 62},
		{"3ns nearest", 3, UnitNanosecond, clk125, RoundNearest, 0},
		{"4ns nearest rounds half up", 4, UnitNanosecond, clk125, RoundNearest, 1},
		{"1us", 1, UnitMicrosecond, clk125, RoundNearest, 125},
		{"2us", 2, UnitMicrosecond, clk125, RoundNearest, 250},
		{"10s", 10, UnitSecond, clk125, RoundNearest, 1_250_000_000},
		{"1s at 100Hz", 1, UnitSecond, 100, RoundNearest, 100},
		{"100ms", 100, UnitMillisecond, clk125, RoundNearest, 12_500_000},
		{"zero value", 0, UnitSecond, clk125, RoundUp, 0},
		{"no unit", 10, UnitMillivolt, clk125, RoundNearest, 0},
		{"zero rate", 10, UnitSecond, 0, RoundNearest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToTicks(tt.value, tt.unit, tt.tps, tt.rounding)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToTicksWideValues(t *testing.T) {
	// 2^32-1 ns at 1 THz does not fit in 64-bit intermediate arithmetic.
	got := ToTicks(math.MaxUint32, UnitNanosecond, 1_000_000_000_000, RoundNearest)
	assert.Equal(t, uint64(math.MaxUint32)*1000, got)

	assert.Equal(t, uint64(math.MaxUint64), ToTicks(math.MaxUint64, UnitSecond, math.MaxUint64, RoundDown))
}

func TestParseRounding(t *testing.T) {
	for in, want := range map[string]Rounding{
		"":         RoundNearest,
		"Nearest":  RoundNearest,
		"up":       RoundUp,
		"ROUND_UP": RoundUp,
		"down":     RoundDown,
		"floor":    RoundDown,
	} {
		got, err := ParseRounding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRounding("exact")
	assert.ErrorIs(t, err, ErrInvalidRounding)
}

func TestScaleConversion(t *testing.T) {
	s := OutputScale()

	assert.Equal(t, int16(0), s.ToCode(0))
	assert.Equal(t, int16(16383), s.ToCode(2500))
	assert.Equal(t, int16(32767), s.ToCode(5000))
	assert.Equal(t, int16(-32767), s.ToCode(-5000))
	assert.Equal(t, int16(CodeMax), s.ToCode(9000), "saturates high")
	assert.Equal(t, int16(CodeMin), s.ToCode(-9000), "saturates low")

	assert.Equal(t, int32(2499), s.ToMillivolts(16383))
	assert.Equal(t, int16(16384), s.FloatToCode(2500.1))

	assert.Equal(t, int16(0), Scale{}.ToCode(1000), "invalid scale yields zero")
	assert.False(t, Scale{}.Valid())
}

func TestNegate(t *testing.T) {
	assert.Equal(t, int16(-100), Negate(100))
	assert.Equal(t, int16(100), Negate(-100))
	assert.Equal(t, int16(CodeMax), Negate(CodeMin))
	assert.Equal(t, int16(0), Negate(0))
}
