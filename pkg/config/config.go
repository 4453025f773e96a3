// Package config defines the typed probe configuration shared by the raw
// register boundary, the synchronizer and the controller.
//
// A Config value is plain data. Raw configuration (written externally at any
// time) and committed configuration (owned by the synchronizer) are both
// represented as Config; they differ only in who is allowed to write them.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/forge-instruments/probe-go/pkg/datatype"
)

// ErrUnknownField is returned when a field name or ID is not recognized.
var ErrUnknownField = errors.New("unknown configuration field")

// Field identifies a configuration field.
type Field uint8

// Configuration fields in register order.
const (
	FieldArmEnable Field = iota + 1
	FieldExtTrigger
	FieldAutoRearm
	FieldFaultClear
	FieldTrigOutVoltage
	FieldTrigOutDuration
	FieldIntensityVoltage
	FieldIntensityDuration
	FieldTriggerWaitTimeout
	FieldCooldownInterval
	FieldMonitorEnable
	FieldMonitorExpectNegative
	FieldMonitorThreshold
	FieldMonitorWindowStart
	FieldMonitorWindowDuration
)

type fieldInfo struct {
	name string
	typ  datatype.Type
}

// Declared types are fixed at integration time.
var fieldTable = map[Field]fieldInfo{
	FieldArmEnable:             {"arm_enable", datatype.Boolean},
	FieldExtTrigger:            {"ext_trigger", datatype.Boolean},
	FieldAutoRearm:             {"auto_rearm", datatype.Boolean},
	FieldFaultClear:            {"fault_clear", datatype.Boolean},
	FieldTrigOutVoltage:        {"trig_out_voltage", datatype.MillivoltS16},
	FieldTrigOutDuration:       {"trig_out_duration", datatype.DurationNSU16},
	FieldIntensityVoltage:      {"intensity_voltage", datatype.MillivoltS16},
	FieldIntensityDuration:     {"intensity_duration", datatype.DurationNSU16},
	FieldTriggerWaitTimeout:    {"trigger_wait_timeout", datatype.DurationSU16},
	FieldCooldownInterval:      {"cooldown_interval", datatype.DurationUSU24},
	FieldMonitorEnable:         {"monitor_enable", datatype.Boolean},
	FieldMonitorExpectNegative: {"monitor_expect_negative", datatype.Boolean},
	FieldMonitorThreshold:      {"monitor_threshold", datatype.MillivoltS16},
	FieldMonitorWindowStart:    {"monitor_window_start", datatype.DurationNSU32},
	FieldMonitorWindowDuration: {"monitor_window_duration", datatype.DurationNSU32},
}

// Fields returns every configuration field in register order.
func Fields() []Field {
	fields := make([]Field, 0, len(fieldTable))
	for f := FieldArmEnable; f <= FieldMonitorWindowDuration; f++ {
		fields = append(fields, f)
	}
	return fields
}

// String returns the field name, which is also its YAML key.
func (f Field) String() string {
	if info, ok := fieldTable[f]; ok {
		return info.name
	}
	return "unknown"
}

// Type returns the declared type of the field.
func (f Field) Type() datatype.Type {
	return fieldTable[f].typ
}

// Valid returns true for a known field.
func (f Field) Valid() bool {
	_, ok := fieldTable[f]
	return ok
}

// FieldByName resolves a field by name (case-insensitive, '-' and '_' are
// interchangeable).
func FieldByName(name string) (Field, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for f, info := range fieldTable {
		if info.name == n {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Config holds every configuration field in its engineering unit.
// Durations are in the unit declared by the field type (see Field.Type).
type Config struct {
	ArmEnable  bool `yaml:"arm_enable"`
	ExtTrigger bool `yaml:"ext_trigger"`
	AutoRearm  bool `yaml:"auto_rearm"`
	FaultClear bool `yaml:"fault_clear"`

	// TrigOutVoltage is the trigger output level in millivolts.
	TrigOutVoltage int16 `yaml:"trig_out_voltage"`

	// TrigOutDuration is the trigger pulse length in nanoseconds.
	TrigOutDuration uint32 `yaml:"trig_out_duration"`

	// IntensityVoltage is the intensity output level in millivolts.
	IntensityVoltage int16 `yaml:"intensity_voltage"`

	// IntensityDuration is the intensity pulse length in nanoseconds.
	IntensityDuration uint32 `yaml:"intensity_duration"`

	// TriggerWaitTimeout is the maximum time spent Armed, in seconds.
	TriggerWaitTimeout uint32 `yaml:"trigger_wait_timeout"`

	// CooldownInterval is the time spent in Cooldown, in microseconds.
	CooldownInterval uint32 `yaml:"cooldown_interval"`

	MonitorEnable         bool `yaml:"monitor_enable"`
	MonitorExpectNegative bool `yaml:"monitor_expect_negative"`

	// MonitorThreshold is the comparator threshold in millivolts.
	MonitorThreshold int16 `yaml:"monitor_threshold"`

	// MonitorWindowStart is the window offset from Firing entry, in nanoseconds.
	MonitorWindowStart uint32 `yaml:"monitor_window_start"`

	// MonitorWindowDuration is the window length in nanoseconds.
	MonitorWindowDuration uint32 `yaml:"monitor_window_duration"`
}

// SafeDefaults returns the reset configuration: every output disabled and
// every duration zero.
func SafeDefaults() Config {
	return Config{}
}

// Value returns the field value as an integer. Booleans are 0 or 1.
// Unknown fields return 0.
func (c *Config) Value(f Field) int64 {
	switch f {
	case FieldArmEnable:
		return b2i(c.ArmEnable)
	case FieldExtTrigger:
		return b2i(c.ExtTrigger)
	case FieldAutoRearm:
		return b2i(c.AutoRearm)
	case FieldFaultClear:
		return b2i(c.FaultClear)
	case FieldTrigOutVoltage:
		return int64(c.TrigOutVoltage)
	case FieldTrigOutDuration:
		return int64(c.TrigOutDuration)
	case FieldIntensityVoltage:
		return int64(c.IntensityVoltage)
	case FieldIntensityDuration:
		return int64(c.IntensityDuration)
	case FieldTriggerWaitTimeout:
		return int64(c.TriggerWaitTimeout)
	case FieldCooldownInterval:
		return int64(c.CooldownInterval)
	case FieldMonitorEnable:
		return b2i(c.MonitorEnable)
	case FieldMonitorExpectNegative:
		return b2i(c.MonitorExpectNegative)
	case FieldMonitorThreshold:
		return int64(c.MonitorThreshold)
	case FieldMonitorWindowStart:
		return int64(c.MonitorWindowStart)
	case FieldMonitorWindowDuration:
		return int64(c.MonitorWindowDuration)
	default:
		return 0
	}
}

// SetValue stores v into the field. The value is reduced to the declared
// width of the field; no range checking is done.
func (c *Config) SetValue(f Field, v int64) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownField, f)
	}
	v = f.Type().Truncate(v)

	switch f {
	case FieldArmEnable:
		c.ArmEnable = v != 0
	case FieldExtTrigger:
		c.ExtTrigger = v != 0
	case FieldAutoRearm:
		c.AutoRearm = v != 0
	case FieldFaultClear:
		c.FaultClear = v != 0
	case FieldTrigOutVoltage:
		c.TrigOutVoltage = int16(v)
	case FieldTrigOutDuration:
		c.TrigOutDuration = uint32(v)
	case FieldIntensityVoltage:
		c.IntensityVoltage = int16(v)
	case FieldIntensityDuration:
		c.IntensityDuration = uint32(v)
	case FieldTriggerWaitTimeout:
		c.TriggerWaitTimeout = uint32(v)
	case FieldCooldownInterval:
		c.CooldownInterval = uint32(v)
	case FieldMonitorEnable:
		c.MonitorEnable = v != 0
	case FieldMonitorExpectNegative:
		c.MonitorExpectNegative = v != 0
	case FieldMonitorThreshold:
		c.MonitorThreshold = int16(v)
	case FieldMonitorWindowStart:
		c.MonitorWindowStart = uint32(v)
	case FieldMonitorWindowDuration:
		c.MonitorWindowDuration = uint32(v)
	}
	return nil
}

// Diff returns the fields whose values differ between c and other.
func (c *Config) Diff(other Config) []Field {
	var changed []Field
	for _, f := range Fields() {
		if c.Value(f) != other.Value(f) {
			changed = append(changed, f)
		}
	}
	return changed
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
