package controller

import (
	"github.com/forge-instruments/probe-go/pkg/config"
)

// WindowOpen reports whether elapsed ticks since Firing entry fall inside
// the observation window.
func (t Timing) WindowOpen(elapsed uint64) bool {
	return elapsed >= t.WindowStart && elapsed-t.WindowStart < t.WindowLength
}

// sampleMonitor compares feedback against the threshold inside the window
// and sets the latch on a crossing. The latch never gates transitions.
func (c *Controller) sampleMonitor(cfg config.Config, tm Timing, elapsed uint64, feedback int16) {
	if !cfg.MonitorEnable || !tm.WindowOpen(elapsed) {
		return
	}

	threshold := c.params.InputScale.ToCode(int32(cfg.MonitorThreshold))
	var crossed bool
	if cfg.MonitorExpectNegative {
		crossed = feedback < threshold
	} else {
		crossed = feedback > threshold
	}
	if crossed {
		c.monitorLatched = true
	}
}
