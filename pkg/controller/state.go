package controller

// CodeBits is the width of the state code.
const CodeBits = 6

// FaultCodeBase is the first state code of the reserved fault range.
// Every code at or above it denotes Fault.
const FaultCodeBase = 32

// State is a controller state. Its numeric value is the state code.
type State uint8

const (
	// StateIdle waits for arm_enable.
	StateIdle State = 0

	// StateArmed waits for the external trigger or the arm timeout.
	StateArmed State = 1

	// StateFiring drives the trigger and intensity pulses.
	StateFiring State = 2

	// StateCooldown holds outputs at zero for the cooldown interval.
	StateCooldown State = 3

	// StateFault is sticky until a fault_clear rising edge.
	StateFault State = 63
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateArmed:
		return "ARMED"
	case StateFiring:
		return "FIRING"
	case StateCooldown:
		return "COOLDOWN"
	case StateFault:
		return "FAULT"
	default:
		if s.IsFault() {
			return "FAULT"
		}
		return "UNKNOWN"
	}
}

// Code returns the 6-bit state code.
func (s State) Code() uint8 {
	return uint8(s) & (1<<CodeBits - 1)
}

// IsFault returns true for any code in the reserved fault range.
func (s State) IsFault() bool {
	return s.Code() >= FaultCodeBase
}

// ParseState resolves a state name as returned by String.
func ParseState(name string) (State, bool) {
	for _, s := range []State{StateIdle, StateArmed, StateFiring, StateCooldown, StateFault} {
		if s.String() == name {
			return s, true
		}
	}
	return 0, false
}

// Reason describes why a transition happened.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonArm
	ReasonTrigger
	ReasonFiringComplete
	ReasonRearm
	ReasonCooldownDone
	ReasonFaultDetected
	ReasonFaultCleared
	ReasonDisabled
)

// String returns a human-readable reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "NONE"
	case ReasonArm:
		return "ARM"
	case ReasonTrigger:
		return "TRIGGER"
	case ReasonFiringComplete:
		return "FIRING_COMPLETE"
	case ReasonRearm:
		return "REARM"
	case ReasonCooldownDone:
		return "COOLDOWN_DONE"
	case ReasonFaultDetected:
		return "FAULT_DETECTED"
	case ReasonFaultCleared:
		return "FAULT_CLEARED"
	case ReasonDisabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// Transition records one state change.
type Transition struct {
	From   State
	To     State
	Reason Reason

	// Check names the fault check that fired, for ReasonFaultDetected.
	Check string

	// Tick is the tick on which To was entered.
	Tick uint64
}
