package log

import (
	"time"
)

// Event is one trace record. CBOR encoding uses integer keys for
// compactness.
type Event struct {
	// Timestamp is the wall-clock time the tick was evaluated.
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies one engine run (UUID).
	RunID string `cbor:"2,keyasint"`

	// Tick is the tick index the event belongs to.
	Tick uint64 `cbor:"3,keyasint"`

	// Component that produced the event.
	Component Component `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Commit      *CommitEvent      `cbor:"11,keyasint,omitempty"`
	Sample      *SampleEvent      `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Component identifies the part of the probe core that produced an event.
type Component uint8

const (
	// ComponentEngine is the tick driver composing the core.
	ComponentEngine Component = 0
	// ComponentSynchronizer is the configuration synchronizer.
	ComponentSynchronizer Component = 1
	// ComponentController is the probe state machine.
	ComponentController Component = 2
	// ComponentObserver is the state-to-voltage observer.
	ComponentObserver Component = 3
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentEngine:
		return "ENGINE"
	case ComponentSynchronizer:
		return "SYNC"
	case ComponentController:
		return "CONTROLLER"
	case ComponentObserver:
		return "OBSERVER"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a controller state change.
	CategoryState Category = 0
	// CategoryCommit indicates a configuration commit.
	CategoryCommit Category = 1
	// CategorySample indicates a per-tick output sample.
	CategorySample Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryCommit:
		return "COMMIT"
	case CategorySample:
		return "SAMPLE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory resolves a category name.
func ParseCategory(s string) (Category, bool) {
	for _, c := range []Category{CategoryState, CategoryCommit, CategorySample, CategoryError} {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// ParseComponent resolves a component name.
func ParseComponent(s string) (Component, bool) {
	for _, c := range []Component{ComponentEngine, ComponentSynchronizer, ComponentController, ComponentObserver} {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// StateChangeEvent captures a controller transition.
type StateChangeEvent struct {
	// OldState is the previous state name.
	OldState string `cbor:"1,keyasint"`

	// NewState is the new state name.
	NewState string `cbor:"2,keyasint"`

	// OldCode and NewCode are the 6-bit state codes.
	OldCode uint8 `cbor:"3,keyasint"`
	NewCode uint8 `cbor:"4,keyasint"`

	// Reason for the change.
	Reason string `cbor:"5,keyasint,omitempty"`

	// Check names the fault check that fired, if any.
	Check string `cbor:"6,keyasint,omitempty"`
}

// CommitEvent captures a configuration commit that changed at least one
// field.
type CommitEvent struct {
	// Words are the committed raw words.
	Words []uint32 `cbor:"1,keyasint"`

	// Changed lists the names of fields that differ from the previous
	// committed snapshot.
	Changed []string `cbor:"2,keyasint,omitempty"`
}

// SampleEvent captures the outputs of one tick.
type SampleEvent struct {
	State string `cbor:"1,keyasint"`
	Code  uint8  `cbor:"2,keyasint"`

	Trigger   int16 `cbor:"3,keyasint"`
	Intensity int16 `cbor:"4,keyasint"`
	Debug     int16 `cbor:"5,keyasint"`
	Feedback  int16 `cbor:"6,keyasint"`

	GlobalEnable   bool `cbor:"7,keyasint,omitempty"`
	FiringComplete bool `cbor:"8,keyasint,omitempty"`
	MonitorLatched bool `cbor:"9,keyasint,omitempty"`
	Ready          bool `cbor:"10,keyasint,omitempty"`
	Committed      bool `cbor:"11,keyasint,omitempty"`
}

// ErrorEventData captures errors from any component.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}

// Error codes used in ErrorEventData.
const (
	// ErrorCodeOverrun marks a tick that started later than its period.
	ErrorCodeOverrun = 1
)
