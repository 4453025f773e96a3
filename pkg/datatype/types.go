package datatype

// Unit is the engineering unit of a declared type.
type Unit uint8

const (
	// UnitNone is used by boolean flags.
	UnitNone Unit = iota

	// UnitMillivolt is a signed fixed-point millivolt value.
	UnitMillivolt

	// UnitNanosecond is a duration in nanoseconds.
	UnitNanosecond

	// UnitMicrosecond is a duration in microseconds.
	UnitMicrosecond

	// UnitMillisecond is a duration in milliseconds.
	UnitMillisecond

	// UnitSecond is a duration in seconds.
	UnitSecond
)

// String returns the unit suffix.
func (u Unit) String() string {
	switch u {
	case UnitNone:
		return ""
	case UnitMillivolt:
		return "mV"
	case UnitNanosecond:
		return "ns"
	case UnitMicrosecond:
		return "us"
	case UnitMillisecond:
		return "ms"
	case UnitSecond:
		return "s"
	default:
		return "?"
	}
}

// PerSecond returns how many of this unit make up one second.
// Returns 0 for units that are not durations.
func (u Unit) PerSecond() uint64 {
	switch u {
	case UnitNanosecond:
		return 1_000_000_000
	case UnitMicrosecond:
		return 1_000_000
	case UnitMillisecond:
		return 1_000
	case UnitSecond:
		return 1
	default:
		return 0
	}
}

// IsDuration returns true for time units.
func (u Unit) IsDuration() bool {
	return u.PerSecond() != 0
}

// Type is a declared fixed-width field type.
type Type uint8

const (
	// Boolean is a 1-bit flag.
	Boolean Type = iota + 1

	// MillivoltS16 is a 16-bit signed millivolt value.
	MillivoltS16

	// DurationNSU8 is an 8-bit nanosecond duration (0-255 ns).
	DurationNSU8

	// DurationNSU16 is a 16-bit nanosecond duration (0-65,535 ns).
	DurationNSU16

	// DurationNSU32 is a 32-bit nanosecond duration (0-4.29 s).
	DurationNSU32

	// DurationUSU8 is an 8-bit microsecond duration.
	DurationUSU8

	// DurationUSU16 is a 16-bit microsecond duration.
	DurationUSU16

	// DurationUSU24 is a 24-bit microsecond duration (0-16.7 s).
	DurationUSU24

	// DurationMSU8 is an 8-bit millisecond duration.
	DurationMSU8

	// DurationMSU16 is a 16-bit millisecond duration.
	DurationMSU16

	// DurationSU8 is an 8-bit second duration.
	DurationSU8

	// DurationSU16 is a 16-bit second duration.
	DurationSU16
)

type typeInfo struct {
	name   string
	width  uint
	signed bool
	unit   Unit
}

var typeTable = map[Type]typeInfo{
	Boolean:       {"boolean", 1, false, UnitNone},
	MillivoltS16:  {"millivolt_s16", 16, true, UnitMillivolt},
	DurationNSU8:  {"duration_ns_u8", 8, false, UnitNanosecond},
	DurationNSU16: {"duration_ns_u16", 16, false, UnitNanosecond},
	DurationNSU32: {"duration_ns_u32", 32, false, UnitNanosecond},
	DurationUSU8:  {"duration_us_u8", 8, false, UnitMicrosecond},
	DurationUSU16: {"duration_us_u16", 16, false, UnitMicrosecond},
	DurationUSU24: {"duration_us_u24", 24, false, UnitMicrosecond},
	DurationMSU8:  {"duration_ms_u8", 8, false, UnitMillisecond},
	DurationMSU16: {"duration_ms_u16", 16, false, UnitMillisecond},
	DurationSU8:   {"duration_s_u8", 8, false, UnitSecond},
	DurationSU16:  {"duration_s_u16", 16, false, UnitSecond},
}

// String returns the type name.
func (t Type) String() string {
	if info, ok := typeTable[t]; ok {
		return info.name
	}
	return "UNKNOWN"
}

// Width returns the declared bit width. Returns 0 for unknown types.
func (t Type) Width() uint {
	return typeTable[t].width
}

// Signed returns true if the type is two's-complement signed.
func (t Type) Signed() bool {
	return typeTable[t].signed
}

// Unit returns the engineering unit of the type.
func (t Type) Unit() Unit {
	return typeTable[t].unit
}

// Valid returns true for a known type.
func (t Type) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// Mask returns the bit mask covering the declared width.
func (t Type) Mask() uint64 {
	w := t.Width()
	if w >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << w) - 1
}

// Truncate reduces v to the declared width, sign-extending signed types.
// Values that do not fit wrap around exactly as they would in a register.
func (t Type) Truncate(v int64) int64 {
	w := t.Width()
	if w == 0 || w >= 64 {
		return v
	}
	u := uint64(v) & t.Mask()
	if t.Signed() && u&(uint64(1)<<(w-1)) != 0 {
		return int64(u | ^t.Mask())
	}
	return int64(u)
}
