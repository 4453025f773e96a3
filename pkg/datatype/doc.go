// Package datatype defines the declared semantic types of probe
// configuration fields and the conversions the control core needs.
//
// Every raw configuration field has a fixed declared type: a boolean flag,
// a signed millivolt value, or an unsigned duration in a declared unit
// (nanoseconds, microseconds, milliseconds or seconds) at a declared bit
// width. Types are fixed at integration time and never renegotiated.
//
// # Tick Conversion
//
// Durations are converted to controller ticks with
//
//	ticks = round(value × ticksPerSecond / unitsPerSecond)
//
// using 128-bit intermediate arithmetic so that wide values at high tick
// rates cannot overflow. The rounding mode defaults to round-half-up and
// can be switched to ceiling or floor.
//
// # Voltage Codes
//
// Analog channels are 16-bit signed codes over a symmetric full-scale
// range. Scale converts between millivolts and codes, saturating at the
// code limits the way a DAC does.
package datatype
