// Package probe composes the configuration synchronizer, the probe
// controller and the state observer into a single tick-driven engine.
//
// Each call to Engine.Step evaluates one tick in a fixed order: the
// controller's readiness is sampled, the synchronizer decides whether to
// commit the raw configuration, the controller steps on the committed
// snapshot, and the observer encodes the resulting state code. Run drives
// Step from a wall-clock ticker.
package probe

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/forge-instruments/probe-go/pkg/config"
	"github.com/forge-instruments/probe-go/pkg/configsync"
	"github.com/forge-instruments/probe-go/pkg/controller"
	"github.com/forge-instruments/probe-go/pkg/log"
	"github.com/forge-instruments/probe-go/pkg/metrics"
	"github.com/forge-instruments/probe-go/pkg/observer"
	"github.com/forge-instruments/probe-go/pkg/register"
)

// ErrNoSource is returned when an engine is created without a raw
// configuration source.
var ErrNoSource = errors.New("probe: nil configuration source")

// Inputs are the external per-tick inputs.
type Inputs struct {
	GlobalEnable bool
	Feedback     int16
}

// Outputs are the per-tick engine outputs.
type Outputs struct {
	controller.Outputs

	// Debug is the observer's encoded state code.
	Debug int16

	// Committed reports whether the raw configuration was committed on
	// this tick.
	Committed bool
}

// Status is a point-in-time view of the engine for concurrent readers.
type Status struct {
	RunID   string
	Tick    uint64
	State   controller.State
	Elapsed uint64

	Last      Outputs
	Committed config.Config

	Commits     uint64
	Stalls      uint64
	Transitions uint64
	Faults      uint64

	LastTransition *controller.Transition
}

// Engine drives one probe core.
type Engine struct {
	src    configsync.Source
	syncer *configsync.Synchronizer
	ctrl   *controller.Controller
	obs    *observer.Observer

	logger       *slog.Logger
	trace        log.Logger
	traceSamples bool
	metrics      *metrics.Collector
	runID        string
	now          func() time.Time
	extraChecks  []controller.FaultCheck

	mu          sync.Mutex
	stepTime    time.Time
	last        Outputs
	transitions uint64
	faults      uint64
	lastTrans   *controller.Transition
}

// New creates an engine reading raw configuration from src.
func New(src configsync.Source, params Params, opts ...Option) (*Engine, error) {
	if src == nil {
		return nil, ErrNoSource
	}

	e := &Engine{
		src:    src,
		logger: slog.Default(),
		trace:  log.NoopLogger{},
		runID:  newRunID(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	cp := params.Controller
	cp.FaultChecks = append(append([]controller.FaultCheck{}, cp.FaultChecks...), e.extraChecks...)
	ctrl, err := controller.New(cp)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	obs, err := observer.New(params.Observer)
	if err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}

	e.syncer = configsync.New(params.Layout)
	e.ctrl = ctrl
	e.obs = obs
	e.ctrl.OnStateChange(e.handleTransition)
	e.ctrl.OnFault(e.handleFault)
	e.last = e.idleOutputs()

	return e, nil
}

// RunID returns the identifier attached to trace events.
func (e *Engine) RunID() string {
	return e.runID
}

// Layout returns the register layout used to decode raw words.
func (e *Engine) Layout() *register.Layout {
	return e.syncer.Layout()
}

// Timing returns the tick counts derived from cfg.
func (e *Engine) Timing(cfg config.Config) controller.Timing {
	return e.ctrl.Params().Timing(cfg)
}

// Observer returns the state observer.
func (e *Engine) Observer() *observer.Observer {
	return e.obs
}

// Step evaluates one tick.
func (e *Engine) Step(in Inputs) Outputs {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	e.stepTime = e.now()
	tick := e.ctrl.Tick()

	ready := e.ctrl.ReadyForUpdates()
	prev := e.syncer.Committed()
	cfg, committed := e.syncer.Step(e.src, in.GlobalEnable, ready)
	if committed {
		e.recordCommit(tick, prev, cfg)
	}

	co := e.ctrl.Step(cfg, controller.Inputs{Enable: in.GlobalEnable, Feedback: in.Feedback})
	out := Outputs{
		Outputs:   co,
		Debug:     e.obs.Step(co.Code),
		Committed: committed,
	}
	e.last = out

	if e.traceSamples {
		e.trace.Log(log.Event{
			Timestamp: e.stepTime,
			RunID:     e.runID,
			Tick:      tick,
			Component: log.ComponentEngine,
			Category:  log.CategorySample,
			Sample:    sampleEvent(in, out),
		})
	}
	if e.metrics != nil {
		e.metrics.ObserveTick(out.Code, committed, out.MonitorLatched)
		e.metrics.ObserveStepDuration(time.Since(start))
	}
	return out
}

// Reset returns every component to its power-on state. The run ID is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.syncer.Reset()
	e.ctrl.Reset()
	e.obs.Reset()
	e.last = e.idleOutputs()
	e.transitions = 0
	e.faults = 0
	e.lastTrans = nil
	e.logger.Info("engine reset", "run_id", e.runID)
}

// Status returns a snapshot of the engine. It is safe to call while another
// goroutine is stepping.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		RunID:       e.runID,
		Tick:        e.ctrl.Tick(),
		State:       e.ctrl.State(),
		Elapsed:     e.ctrl.Elapsed(),
		Last:        e.last,
		Committed:   e.syncer.Committed(),
		Commits:     e.syncer.Commits(),
		Stalls:      e.syncer.Stalls(),
		Transitions: e.transitions,
		Faults:      e.faults,
	}
	if e.lastTrans != nil {
		t := *e.lastTrans
		s.LastTransition = &t
	}
	return s
}

func (e *Engine) idleOutputs() Outputs {
	return Outputs{
		Outputs: controller.Outputs{
			State:           controller.StateIdle,
			Code:            controller.StateIdle.Code(),
			ReadyForUpdates: true,
		},
		Debug: e.obs.LastNormal(),
	}
}

func (e *Engine) recordCommit(tick uint64, prev, cfg config.Config) {
	changed := prev.Diff(cfg)
	if len(changed) == 0 {
		return
	}

	names := make([]string, len(changed))
	for i, f := range changed {
		names[i] = f.String()
	}
	words := e.syncer.CommittedWords()

	e.logger.Debug("configuration committed", "tick", tick, "changed", names)
	e.trace.Log(log.Event{
		Timestamp: e.stepTime,
		RunID:     e.runID,
		Tick:      tick,
		Component: log.ComponentSynchronizer,
		Category:  log.CategoryCommit,
		Commit:    &log.CommitEvent{Words: words[:], Changed: names},
	})
}

// handleTransition runs inside controller.Step with e.mu held.
func (e *Engine) handleTransition(t controller.Transition) {
	e.transitions++
	e.lastTrans = &t

	attrs := []any{
		"from", t.From.String(),
		"to", t.To.String(),
		"reason", t.Reason.String(),
		"tick", t.Tick,
	}
	if t.Check != "" {
		attrs = append(attrs, "check", t.Check)
	}
	e.logger.Info("state change", attrs...)

	e.trace.Log(log.Event{
		Timestamp: e.stepTime,
		RunID:     e.runID,
		Tick:      t.Tick,
		Component: log.ComponentController,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: t.From.String(),
			NewState: t.To.String(),
			OldCode:  t.From.Code(),
			NewCode:  t.To.Code(),
			Reason:   t.Reason.String(),
			Check:    t.Check,
		},
	})
	if e.metrics != nil {
		e.metrics.ObserveTransition(t.From.String(), t.To.String(), t.Reason.String())
	}
}

func (e *Engine) handleFault(t controller.Transition) {
	e.faults++
	e.logger.Warn("fault detected", "check", t.Check, "from", t.From.String(), "tick", t.Tick)
	if e.metrics != nil {
		e.metrics.ObserveFault(t.Check)
	}
}

func sampleEvent(in Inputs, out Outputs) *log.SampleEvent {
	return &log.SampleEvent{
		State:          out.State.String(),
		Code:           out.Code,
		Trigger:        out.Trigger,
		Intensity:      out.Intensity,
		Debug:          out.Debug,
		Feedback:       in.Feedback,
		GlobalEnable:   in.GlobalEnable,
		FiringComplete: out.FiringComplete,
		MonitorLatched: out.MonitorLatched,
		Ready:          out.ReadyForUpdates,
		Committed:      out.Committed,
	}
}
