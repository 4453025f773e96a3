// Package controller implements the probe state machine.
//
// The controller is a step function: one call to Step is one tick. Each tick
// it evaluates the fault checks and the transition guards of the current
// state against the committed configuration, takes at most one transition,
// and computes the outputs of the resulting state.
//
// Timing:
//   - Every state has an elapsed counter that is 0 on the tick the state is
//     entered and increases by one on every following tick.
//   - Armed faults on the tick its elapsed count reaches the arm timeout.
//   - In Firing, the trigger and intensity outputs are driven while elapsed
//     is below their own pulse length. FiringComplete is reported on the tick
//     both pulses have elapsed and Cooldown is entered on the next tick.
//   - Cooldown ends on the tick its elapsed count reaches the cooldown length.
//   - The monitor window is counted from Firing entry and stays open into
//     Cooldown; it closes early only if Cooldown ends first.
//
// Fault checks run on every enabled tick. A disabled tick skips them and
// aborts any cycle in progress to Idle.
//
// Outputs are zero outside Firing and whenever the controller is disabled.
// A Controller is not safe for concurrent use.
package controller

import (
	"github.com/forge-instruments/probe-go/pkg/config"
)

// Inputs are the per-tick controller inputs.
type Inputs struct {
	// Enable gates the controller. When false, outputs are zero and any
	// cycle in progress is abandoned. Fault is kept.
	Enable bool

	// Feedback is the monitor input as a signed ADC code.
	Feedback int16
}

// Outputs are the per-tick controller outputs.
type Outputs struct {
	Trigger   int16
	Intensity int16

	State State
	Code  uint8

	FiringComplete  bool
	MonitorLatched  bool
	Fault           bool
	ReadyForUpdates bool

	Tick uint64
}

// Controller is the probe state machine.
type Controller struct {
	params Params
	checks []FaultCheck

	state     State
	entryTick uint64
	tick      uint64

	// Registered at the end of a Firing tick, consumed by the next one.
	firingComplete bool

	monitorLatched bool
	clearPrev      bool

	// Entry tick and settings of the most recent firing cycle. The
	// observation window is measured from firingTick and runs on into
	// Cooldown with the settings the cycle fired with.
	firingTick   uint64
	firingCfg    config.Config
	firingTiming Timing

	lastCfg    config.Config
	lastTiming Timing

	onStateChange  func(Transition)
	onFault        func(Transition)
	onFaultCleared func(Transition)
}

// New creates a controller in Idle.
func New(params Params) (*Controller, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	c := &Controller{params: params}
	c.checks = append([]FaultCheck{ArmedTimeout}, params.FaultChecks...)
	c.lastTiming = params.Timing(c.lastCfg)
	return c, nil
}

// Params returns the normalized construction parameters.
func (c *Controller) Params() Params {
	return c.params
}

// OnStateChange sets a callback invoked on every transition.
func (c *Controller) OnStateChange(fn func(Transition)) {
	c.onStateChange = fn
}

// OnFault sets a callback invoked when Fault is entered.
func (c *Controller) OnFault(fn func(Transition)) {
	c.onFault = fn
}

// OnFaultCleared sets a callback invoked when Fault is left.
func (c *Controller) OnFaultCleared(fn func(Transition)) {
	c.onFaultCleared = fn
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Elapsed returns the elapsed count of the current state as of the last tick.
func (c *Controller) Elapsed() uint64 {
	if c.tick == 0 {
		return 0
	}
	return c.tick - 1 - c.entryTick
}

// Tick returns the number of ticks evaluated since construction or Reset.
func (c *Controller) Tick() uint64 {
	return c.tick
}

// MonitorLatched returns the sticky monitor latch.
func (c *Controller) MonitorLatched() bool {
	return c.monitorLatched
}

// ReadyForUpdates reports whether the committed configuration may be
// replaced before the next tick. It is withheld while Firing so pulse
// lengths and levels stay fixed for a whole firing cycle.
func (c *Controller) ReadyForUpdates() bool {
	return c.state != StateFiring
}

// Reset returns to Idle and clears timers, latches and the fault_clear
// edge detector.
func (c *Controller) Reset() {
	c.state = StateIdle
	c.entryTick = 0
	c.tick = 0
	c.firingComplete = false
	c.monitorLatched = false
	c.clearPrev = false
	c.firingTick = 0
	c.firingCfg = config.Config{}
	c.firingTiming = Timing{}
}

// Step evaluates one tick.
func (c *Controller) Step(cfg config.Config, in Inputs) Outputs {
	tick := c.tick
	c.tick++

	tm := c.timing(cfg)

	// The edge detector samples every tick, even while disabled.
	clearEdge := cfg.FaultClear && !c.clearPrev
	c.clearPrev = cfg.FaultClear

	// Disabled ticks skip fault checks: the cycle is aborted to Idle
	// instead, and an existing Fault is held.
	if !in.Enable {
		switch c.state {
		case StateArmed, StateFiring, StateCooldown:
			c.transition(StateIdle, ReasonDisabled, "", tick)
		}
		c.firingComplete = false
		return c.outputs(tick)
	}

	v := View{
		State:          c.state,
		Elapsed:        tick - c.entryTick,
		Tick:           tick,
		Config:         cfg,
		Timing:         tm,
		Feedback:       in.Feedback,
		MonitorLatched: c.monitorLatched,
	}

	if name, hit := c.detectFault(v); hit {
		if c.state != StateFault {
			c.transition(StateFault, ReasonFaultDetected, name, tick)
		}
	} else {
		c.evaluate(v, clearEdge, tick)
	}

	out := c.outputs(tick)
	if c.state == StateFiring {
		elapsed := tick - c.entryTick
		if elapsed < tm.TrigOut {
			out.Trigger = c.params.OutputScale.ToCode(int32(cfg.TrigOutVoltage))
		}
		if elapsed < tm.Intensity {
			out.Intensity = c.params.OutputScale.ToCode(int32(cfg.IntensityVoltage))
		}
		c.firingTick, c.firingCfg, c.firingTiming = c.entryTick, cfg, tm
		c.sampleMonitor(cfg, tm, elapsed, in.Feedback)
		c.firingComplete = elapsed >= tm.Firing()
	} else {
		if c.state == StateCooldown {
			c.sampleMonitor(c.firingCfg, c.firingTiming, tick-c.firingTick, in.Feedback)
		}
		c.firingComplete = false
	}

	out.FiringComplete = c.firingComplete
	out.MonitorLatched = c.monitorLatched
	return out
}

func (c *Controller) evaluate(v View, clearEdge bool, tick uint64) {
	cfg := v.Config

	switch c.state {
	case StateIdle:
		if cfg.ArmEnable {
			c.transition(StateArmed, ReasonArm, "", tick)
		}
	case StateArmed:
		if cfg.ExtTrigger {
			c.transition(StateFiring, ReasonTrigger, "", tick)
		}
	case StateFiring:
		if c.firingComplete {
			c.transition(StateCooldown, ReasonFiringComplete, "", tick)
		}
	case StateCooldown:
		if v.Elapsed >= v.Timing.Cooldown {
			if cfg.AutoRearm {
				c.transition(StateArmed, ReasonRearm, "", tick)
			} else {
				c.transition(StateIdle, ReasonCooldownDone, "", tick)
			}
		}
	case StateFault:
		if clearEdge {
			c.transition(StateIdle, ReasonFaultCleared, "", tick)
		}
	}
}

func (c *Controller) transition(to State, reason Reason, check string, tick uint64) {
	from := c.state
	c.state = to
	c.entryTick = tick
	c.firingComplete = false
	if to == StateIdle {
		c.monitorLatched = false
	}

	tr := Transition{From: from, To: to, Reason: reason, Check: check, Tick: tick}
	if c.onStateChange != nil {
		c.onStateChange(tr)
	}
	if to.IsFault() && c.onFault != nil {
		c.onFault(tr)
	}
	if from.IsFault() && !to.IsFault() && c.onFaultCleared != nil {
		c.onFaultCleared(tr)
	}
}

func (c *Controller) outputs(tick uint64) Outputs {
	return Outputs{
		State:           c.state,
		Code:            c.state.Code(),
		MonitorLatched:  c.monitorLatched,
		Fault:           c.state.IsFault(),
		ReadyForUpdates: c.ReadyForUpdates(),
		Tick:            tick,
	}
}

func (c *Controller) timing(cfg config.Config) Timing {
	if cfg != c.lastCfg {
		c.lastCfg = cfg
		c.lastTiming = c.params.Timing(cfg)
	}
	return c.lastTiming
}
