// Package log provides structured trace capture for the probe core.
//
// This package defines the Logger interface and Event types for capturing
// what the core did on each tick: controller transitions, configuration
// commits, output samples and errors. It is separate from operational
// logging (slog); the trace is a complete machine-readable record for
// debugging and analysis.
//
// # Basic Usage
//
// Engines are configured with a Logger implementation:
//
//	// For development: log to console via slog
//	probe.WithTrace(log.NewSlogAdapter(slog.Default()))
//
//	// For bench runs: write to binary file
//	fl, _ := log.NewFileLogger("/var/log/probe/run.plog")
//	probe.WithTrace(fl)
//
//	// Both: use MultiLogger
//	probe.WithTrace(log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl))
//
// # Event Types
//
//   - State: controller transitions (StateChangeEvent)
//   - Commit: configuration commits that changed a field (CommitEvent)
//   - Sample: per-tick outputs, when sampling is enabled (SampleEvent)
//   - Error: tick overruns and other driver errors (ErrorEventData)
//
// # File Format
//
// Trace files are a stream of CBOR-encoded events with the .plog extension.
// The probe-log CLI tool provides viewing, filtering, and export.
package log
