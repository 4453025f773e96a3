// Package scenario runs scripted tick sequences against a probe engine and
// checks the outputs.
package scenario

import (
	"github.com/forge-instruments/probe-go/pkg/config"
)

// Scenario is one scripted run loaded from YAML.
type Scenario struct {
	// ID is the unique scenario identifier (e.g., "SC-FIRE-001").
	ID string `yaml:"id"`

	// Name is a human-readable name.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// TicksPerSecond is the controller tick rate.
	TicksPerSecond uint64 `yaml:"ticks_per_second"`

	// Rounding is the duration-to-ticks rounding mode (nearest, up, down).
	Rounding string `yaml:"rounding,omitempty"`

	// Config is the raw configuration loaded into the register bank before
	// the first tick.
	Config config.Config `yaml:"config"`

	// Inputs are the external inputs before any step overrides them.
	Inputs Inputs `yaml:"inputs"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Tags for filtering.
	Tags []string `yaml:"tags,omitempty"`
}

// Inputs are the external engine inputs.
type Inputs struct {
	GlobalEnable bool  `yaml:"global_enable"`
	Feedback     int16 `yaml:"feedback"`
}

// InputOverride changes inputs from a step onwards. Nil fields are kept.
type InputOverride struct {
	GlobalEnable *bool  `yaml:"global_enable,omitempty"`
	Feedback     *int16 `yaml:"feedback,omitempty"`
}

// Step writes raw configuration, optionally changes inputs, and runs a
// number of ticks.
type Step struct {
	// Name describes the step in reports.
	Name string `yaml:"name,omitempty"`

	// Write sets raw fields by name before the first tick of the step.
	// Booleans and integers are accepted.
	Write map[string]any `yaml:"write,omitempty"`

	// Words sets whole raw words by index after Write is applied.
	Words map[int]uint32 `yaml:"words,omitempty"`

	// Inputs overrides the external inputs.
	Inputs *InputOverride `yaml:"inputs,omitempty"`

	// Ticks is the number of ticks to run. Zero means one.
	Ticks int `yaml:"ticks,omitempty"`

	// Expect is checked after the last tick of the step.
	Expect Expect `yaml:"expect,omitempty"`

	// Always is checked after every tick of the step.
	Always Expect `yaml:"always,omitempty"`
}

// TickCount returns the number of ticks the step runs.
func (s Step) TickCount() int {
	if s.Ticks <= 0 {
		return 1
	}
	return s.Ticks
}

// Expect lists output expectations. Nil fields are not checked.
type Expect struct {
	State          *string `yaml:"state,omitempty"`
	Elapsed        *uint64 `yaml:"elapsed,omitempty"`
	Trigger        *int16  `yaml:"trigger,omitempty"`
	Intensity      *int16  `yaml:"intensity,omitempty"`
	Debug          *int16  `yaml:"debug,omitempty"`
	FiringComplete *bool   `yaml:"firing_complete,omitempty"`
	MonitorLatched *bool   `yaml:"monitor_latched,omitempty"`
	Fault          *bool   `yaml:"fault,omitempty"`
	Ready          *bool   `yaml:"ready,omitempty"`
	Committed      *bool   `yaml:"committed,omitempty"`
}

// Empty reports whether no expectation is set.
func (e Expect) Empty() bool {
	return e == Expect{}
}

// Failure is one unmet expectation.
type Failure struct {
	Step     int    `json:"step"`
	StepName string `json:"step_name,omitempty"`
	Tick     uint64 `json:"tick"`
	Key      string `json:"key"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Result is the outcome of one scenario run.
type Result struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Passed   bool      `json:"passed"`
	Ticks    uint64    `json:"ticks"`
	Failures []Failure `json:"failures,omitempty"`
}
