package controller

import (
	"github.com/forge-instruments/probe-go/pkg/config"
)

// View is the read-only controller state handed to fault checks. It
// describes the tick being evaluated before any transition is taken.
type View struct {
	State   State
	Elapsed uint64
	Tick    uint64

	Config   config.Config
	Timing   Timing
	Feedback int16

	MonitorLatched bool
}

// FaultCheck is a safety predicate. When Detect returns true the
// controller enters Fault, overriding every other transition.
type FaultCheck struct {
	Name   string
	Detect func(View) bool
}

// ArmedTimeout fires when the controller has been Armed for at least the
// trigger wait timeout. It is always installed.
var ArmedTimeout = FaultCheck{
	Name: "armed_timeout",
	Detect: func(v View) bool {
		return v.State == StateArmed && v.Elapsed >= v.Timing.ArmTimeout
	},
}

// MonitorTripped returns a check that faults while Firing once the monitor
// latch is set. It is not installed by default; the monitor is
// observational unless this check is added explicitly.
func MonitorTripped() FaultCheck {
	return FaultCheck{
		Name: "monitor_tripped",
		Detect: func(v View) bool {
			return v.State == StateFiring && v.MonitorLatched
		},
	}
}

func (c *Controller) detectFault(v View) (string, bool) {
	for _, fc := range c.checks {
		if fc.Detect(v) {
			return fc.Name, true
		}
	}
	return "", false
}
