package controller

import (
	"errors"
	"fmt"

	"github.com/forge-instruments/probe-go/pkg/config"
	"github.com/forge-instruments/probe-go/pkg/datatype"
)

// Construction errors.
var (
	ErrInvalidTickRate   = errors.New("ticks per second must be positive")
	ErrInvalidScale      = errors.New("full scale must be positive")
	ErrInvalidFaultCheck = errors.New("fault check needs a name and a predicate")
)

// Params configures a controller.
type Params struct {
	// TicksPerSecond converts every duration field into ticks.
	TicksPerSecond uint64

	// Rounding selects how fractional tick counts are resolved.
	Rounding datatype.Rounding

	// OutputScale maps output millivolts to DAC codes.
	// Zero selects datatype.OutputScale.
	OutputScale datatype.Scale

	// InputScale maps the monitor threshold to feedback codes.
	// Zero selects datatype.InputScale.
	InputScale datatype.Scale

	// FaultChecks are evaluated every tick after the armed timeout.
	FaultChecks []FaultCheck
}

// DefaultParams returns parameters for the given tick rate with default
// scales and nearest rounding.
func DefaultParams(ticksPerSecond uint64) Params {
	return Params{
		TicksPerSecond: ticksPerSecond,
		Rounding:       datatype.RoundNearest,
		OutputScale:    datatype.OutputScale(),
		InputScale:     datatype.InputScale(),
	}
}

func (p *Params) normalize() error {
	if p.TicksPerSecond == 0 {
		return ErrInvalidTickRate
	}
	switch p.Rounding {
	case datatype.RoundNearest, datatype.RoundUp, datatype.RoundDown:
	default:
		return fmt.Errorf("%w: %d", datatype.ErrInvalidRounding, p.Rounding)
	}
	if p.OutputScale.FullScale == 0 {
		p.OutputScale = datatype.OutputScale()
	}
	if p.InputScale.FullScale == 0 {
		p.InputScale = datatype.InputScale()
	}
	if !p.OutputScale.Valid() || !p.InputScale.Valid() {
		return ErrInvalidScale
	}
	for _, fc := range p.FaultChecks {
		if fc.Name == "" || fc.Detect == nil {
			return ErrInvalidFaultCheck
		}
	}
	return nil
}

// Timing holds the committed durations converted to ticks.
type Timing struct {
	TrigOut      uint64
	Intensity    uint64
	ArmTimeout   uint64
	Cooldown     uint64
	WindowStart  uint64
	WindowLength uint64
}

// Firing returns the number of ticks until both pulses are complete.
func (t Timing) Firing() uint64 {
	return max(t.TrigOut, t.Intensity)
}

// Timing converts the duration fields of cfg into ticks.
func (p Params) Timing(cfg config.Config) Timing {
	conv := func(f config.Field) uint64 {
		return datatype.ToTicks(uint64(cfg.Value(f)), f.Type().Unit(), p.TicksPerSecond, p.Rounding)
	}
	return Timing{
		TrigOut:      conv(config.FieldTrigOutDuration),
		Intensity:    conv(config.FieldIntensityDuration),
		ArmTimeout:   conv(config.FieldTriggerWaitTimeout),
		Cooldown:     conv(config.FieldCooldownInterval),
		WindowStart:  conv(config.FieldMonitorWindowStart),
		WindowLength: conv(config.FieldMonitorWindowDuration),
	}
}
