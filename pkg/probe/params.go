package probe

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/forge-instruments/probe-go/pkg/controller"
	"github.com/forge-instruments/probe-go/pkg/log"
	"github.com/forge-instruments/probe-go/pkg/metrics"
	"github.com/forge-instruments/probe-go/pkg/observer"
	"github.com/forge-instruments/probe-go/pkg/register"
)

// Params configures the core components of an Engine.
type Params struct {
	Controller controller.Params
	Observer   observer.Params

	// Layout decodes raw words. Nil selects register.DefaultLayout.
	Layout *register.Layout
}

// DefaultParams returns parameters for the given tick rate with the
// default observer and register layout.
func DefaultParams(ticksPerSecond uint64) Params {
	return Params{
		Controller: controller.DefaultParams(ticksPerSecond),
		Observer:   observer.DefaultParams(),
		Layout:     register.DefaultLayout(),
	}
}

// Option configures optional Engine behavior.
type Option func(*Engine)

// WithLogger sets the operational logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTrace sets the trace event sink.
func WithTrace(trace log.Logger) Option {
	return func(e *Engine) {
		if trace != nil {
			e.trace = trace
		}
	}
}

// WithTraceSamples emits a sample event for every tick when enabled.
func WithTraceSamples(enabled bool) Option {
	return func(e *Engine) {
		e.traceSamples = enabled
	}
}

// WithMetrics records telemetry into c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) {
		e.metrics = c
	}
}

// WithRunID sets the run identifier attached to trace events.
// Defaults to a random UUID.
func WithRunID(id string) Option {
	return func(e *Engine) {
		if id != "" {
			e.runID = id
		}
	}
}

// WithClock sets the time source used for trace timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithFaultCheck installs additional fault checks.
func WithFaultCheck(checks ...controller.FaultCheck) Option {
	return func(e *Engine) {
		e.extraChecks = append(e.extraChecks, checks...)
	}
}

func newRunID() string {
	return uuid.NewString()
}
