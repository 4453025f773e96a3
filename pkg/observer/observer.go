// Package observer maps controller state codes to a debug voltage.
//
// Normal codes (below the fault threshold) are spread evenly between VMin
// and VMax. While the code is in the fault range, the output is the
// negated voltage of the last normal code, so a single analog line shows
// both that the probe faulted and which state it faulted from.
package observer

import (
	"errors"
	"fmt"
	"math"

	"github.com/forge-instruments/probe-go/pkg/datatype"
)

// Default observer parameters.
const (
	DefaultTotalCodes     = 64
	DefaultFaultThreshold = 5
	DefaultVMin           = 0    // mV
	DefaultVMax           = 2500 // mV
	DefaultSpacing        = 1.0
)

// Observer errors.
var (
	ErrInvalidCodes      = errors.New("invalid code count")
	ErrInvalidRange      = errors.New("voltage range requires VMin < VMax")
	ErrInvalidSpacing    = errors.New("spacing must be positive")
	ErrInvalidScale      = errors.New("full scale must be positive")
	ErrIndistinguishable = errors.New("adjacent state voltages are indistinguishable")
)

// Params configures an observer.
type Params struct {
	// TotalCodes is the size of the state code space.
	TotalCodes int

	// FaultThreshold is the first fault code. Sign-flip mode is enabled
	// when it is below TotalCodes.
	FaultThreshold int

	// VMin and VMax bound the normal voltages, in millivolts.
	VMin int32
	VMax int32

	// Spacing is the required separation of adjacent normal voltages as a
	// fraction of the nominal step (VMax-VMin)/(N-1). The table itself is
	// always pinned to VMin and VMax, so values above 1 cannot be met.
	Spacing float64

	// GuardBand is the minimum separation of adjacent normal voltages, in
	// millivolts. Zero only requires distinct codes.
	GuardBand int32

	// Scale is the debug output range. Zero selects datatype.OutputScale.
	Scale datatype.Scale
}

// DefaultParams returns the 64-code, 5-state layout over 0..2.5 V.
func DefaultParams() Params {
	return Params{
		TotalCodes:     DefaultTotalCodes,
		FaultThreshold: DefaultFaultThreshold,
		VMin:           DefaultVMin,
		VMax:           DefaultVMax,
		Spacing:        DefaultSpacing,
		Scale:          datatype.OutputScale(),
	}
}

// NormalCodes returns the number of codes that map to a normal voltage.
func (p Params) NormalCodes() int {
	return min(p.FaultThreshold, p.TotalCodes)
}

// SignFlip returns true if fault codes produce the negated last voltage.
func (p Params) SignFlip() bool {
	return p.FaultThreshold < p.TotalCodes
}

// Observer is the state-code to voltage encoder.
// An Observer is not safe for concurrent use.
type Observer struct {
	params Params
	table  []int16
	last   int16
}

// New validates params and builds the lookup table.
func New(params Params) (*Observer, error) {
	if params.TotalCodes <= 0 || params.TotalCodes > 256 {
		return nil, fmt.Errorf("%w: total %d", ErrInvalidCodes, params.TotalCodes)
	}
	if params.FaultThreshold <= 0 {
		return nil, fmt.Errorf("%w: threshold %d", ErrInvalidCodes, params.FaultThreshold)
	}
	if params.Spacing <= 0 {
		return nil, ErrInvalidSpacing
	}
	if params.Scale.FullScale == 0 {
		params.Scale = datatype.OutputScale()
	}
	if !params.Scale.Valid() {
		return nil, ErrInvalidScale
	}

	n := params.NormalCodes()
	if n > 1 && params.VMin >= params.VMax {
		return nil, ErrInvalidRange
	}

	o := &Observer{
		params: params,
		table:  make([]int16, params.TotalCodes),
	}

	var step float64
	if n > 1 {
		step = float64(params.VMax-params.VMin) / float64(n-1)
	}
	for i := 0; i < n; i++ {
		o.table[i] = params.Scale.FloatToCode(float64(params.VMin) + float64(i)*step)
	}

	// Codes from the threshold up stay zero; they are never looked up.
	if err := o.checkSeparation(n); err != nil {
		return nil, err
	}

	o.Reset()
	return o, nil
}

func (o *Observer) checkSeparation(n int) error {
	if n < 2 {
		return nil
	}
	minCodes := 1.0
	if o.params.GuardBand > 0 {
		minCodes = math.Max(minCodes, float64(o.params.Scale.FloatToCode(float64(o.params.GuardBand))))
	}
	// One code of slack absorbs rounding of the table entries.
	nominal := float64(int32(o.table[n-1])-int32(o.table[0])) / float64(n-1)
	minCodes = math.Max(minCodes, o.params.Spacing*nominal-1)

	for i := 1; i < n; i++ {
		if float64(int32(o.table[i])-int32(o.table[i-1])) < minCodes {
			return fmt.Errorf("%w: codes %d and %d map to %d and %d",
				ErrIndistinguishable, i-1, i, o.table[i-1], o.table[i])
		}
	}
	return nil
}

// Params returns the observer parameters.
func (o *Observer) Params() Params {
	return o.params
}

// SignFlip returns true if fault codes produce the negated last voltage.
func (o *Observer) SignFlip() bool {
	return o.params.SignFlip()
}

// Lookup returns the table voltage code for a state code. Codes outside
// the table return false.
func (o *Observer) Lookup(code uint8) (int16, bool) {
	if int(code) >= len(o.table) {
		return 0, false
	}
	return o.table[code], true
}

// Table returns a copy of the lookup table.
func (o *Observer) Table() []int16 {
	out := make([]int16, len(o.table))
	copy(out, o.table)
	return out
}

// LastNormal returns the voltage code of the most recent normal state.
func (o *Observer) LastNormal() int16 {
	return o.last
}

// Step encodes one tick. Normal codes update the last-normal register and
// return their table voltage. Fault codes, and codes outside the table,
// return the negated last-normal voltage. Without sign flip every code in
// the table is normal.
func (o *Observer) Step(code uint8) int16 {
	idx := int(code)
	if idx < o.params.FaultThreshold && idx < len(o.table) {
		o.last = o.table[idx]
		return o.last
	}
	return datatype.Negate(o.last)
}

// Reset sets the last-normal register to the voltage of code 0.
func (o *Observer) Reset() {
	o.last = o.table[0]
}

// Millivolts converts an observer output code to millivolts.
func (o *Observer) Millivolts(code int16) int32 {
	return o.params.Scale.ToMillivolts(code)
}
