package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates an adapter that logs at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter logging at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event as one slog record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("run_id", event.RunID),
		slog.Uint64("tick", event.Tick),
		slog.String("component", event.Component.String()),
		slog.String("category", event.Category.String()),
	}

	switch {
	case event.StateChange != nil:
		sc := event.StateChange
		attrs = append(attrs,
			slog.String("old_state", sc.OldState),
			slog.String("new_state", sc.NewState),
			slog.Uint64("code", uint64(sc.NewCode)),
		)
		if sc.Reason != "" {
			attrs = append(attrs, slog.String("reason", sc.Reason))
		}
		if sc.Check != "" {
			attrs = append(attrs, slog.String("check", sc.Check))
		}
	case event.Commit != nil:
		attrs = append(attrs, slog.Any("changed", event.Commit.Changed))
	case event.Sample != nil:
		s := event.Sample
		attrs = append(attrs,
			slog.String("state", s.State),
			slog.Int("trigger", int(s.Trigger)),
			slog.Int("intensity", int(s.Intensity)),
			slog.Int("debug", int(s.Debug)),
			slog.Int("feedback", int(s.Feedback)),
		)
		if s.MonitorLatched {
			attrs = append(attrs, slog.Bool("monitor_latched", true))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
		if event.Error.Code != nil {
			attrs = append(attrs, slog.Int("error_code", *event.Error.Code))
		}
	}

	a.logger.LogAttrs(context.Background(), a.level, "trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
