package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/forge-instruments/probe-go/pkg/log"
)

// ErrInvalidInterval is returned by Run for a non-positive tick interval.
var ErrInvalidInterval = errors.New("probe: tick interval must be positive")

// InputSource supplies the external inputs for each tick.
type InputSource interface {
	Inputs() Inputs
}

// StaticInputs is an InputSource that never changes.
type StaticInputs Inputs

// Inputs implements InputSource.
func (s StaticInputs) Inputs() Inputs {
	return Inputs(s)
}

// InputLatch holds inputs that may be changed from another goroutine while
// the engine runs.
type InputLatch struct {
	mu sync.Mutex
	in Inputs
}

// NewInputLatch creates a latch holding initial.
func NewInputLatch(initial Inputs) *InputLatch {
	return &InputLatch{in: initial}
}

// Inputs implements InputSource.
func (l *InputLatch) Inputs() Inputs {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.in
}

// Set replaces both inputs.
func (l *InputLatch) Set(in Inputs) {
	l.mu.Lock()
	l.in = in
	l.mu.Unlock()
}

// SetGlobalEnable changes the global enable input.
func (l *InputLatch) SetGlobalEnable(enabled bool) {
	l.mu.Lock()
	l.in.GlobalEnable = enabled
	l.mu.Unlock()
}

// SetFeedback changes the monitor feedback input.
func (l *InputLatch) SetFeedback(code int16) {
	l.mu.Lock()
	l.in.Feedback = code
	l.mu.Unlock()
}

// Run steps the engine once per interval until ctx is cancelled or, when
// maxTicks is non-zero, maxTicks ticks have been evaluated. It returns
// ctx.Err() on cancellation and nil otherwise.
//
// A tick that starts more than one interval late is reported as an overrun.
// The engine never catches up on missed ticks.
func (e *Engine) Run(ctx context.Context, interval time.Duration, inputs InputSource, maxTicks uint64) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	if inputs == nil {
		inputs = StaticInputs{}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("engine running", "run_id", e.runID, "interval", interval, "max_ticks", maxTicks)

	var n uint64
	prev := time.Now()
	for maxTicks == 0 || n < maxTicks {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopped", "run_id", e.runID, "ticks", n)
			return ctx.Err()
		case now := <-ticker.C:
			if late := now.Sub(prev) - interval; late > interval {
				e.reportOverrun(late)
			}
			prev = now
			e.Step(inputs.Inputs())
			n++
		}
	}

	e.logger.Info("engine finished", "run_id", e.runID, "ticks", n)
	return nil
}

func (e *Engine) reportOverrun(late time.Duration) {
	e.mu.Lock()
	tick := e.ctrl.Tick()
	e.mu.Unlock()

	code := log.ErrorCodeOverrun
	e.logger.Warn("tick overrun", "tick", tick, "late", late)
	e.trace.Log(log.Event{
		Timestamp: e.now(),
		RunID:     e.runID,
		Tick:      tick,
		Component: log.ComponentEngine,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Message: "tick overrun",
			Code:    &code,
			Context: fmt.Sprintf("late by %s", late),
		},
	})
	if e.metrics != nil {
		e.metrics.ObserveOverrun()
	}
}
