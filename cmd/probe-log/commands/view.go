// Package commands implements the probe-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/forge-instruments/probe-go/pkg/log"
)

// RunView writes the events of path matching opts in human-readable form.
func RunView(path string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes one event as a header line and indented details.
func formatEvent(w io.Writer, event log.Event) {
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [run:%s] tick %-10d %-10s %s\n",
		ts, shortenRunID(event.RunID), event.Tick, event.Component, event.Category)

	switch {
	case event.StateChange != nil:
		formatStateChange(w, event.StateChange)
	case event.Commit != nil:
		formatCommit(w, event.Commit)
	case event.Sample != nil:
		formatSample(w, event.Sample)
	case event.Error != nil:
		formatError(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenRunID returns the first 8 characters of the run ID.
func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChange(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  %s (%d) -> %s (%d)\n", sc.OldState, sc.OldCode, sc.NewState, sc.NewCode)
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
	if sc.Check != "" {
		fmt.Fprintf(w, "  Check: %s\n", sc.Check)
	}
}

func formatCommit(w io.Writer, c *log.CommitEvent) {
	if len(c.Changed) > 0 {
		fmt.Fprintf(w, "  Changed: %s\n", strings.Join(c.Changed, ", "))
	}
	if len(c.Words) > 0 {
		words := make([]string, len(c.Words))
		for i, v := range c.Words {
			words[i] = fmt.Sprintf("%08X", v)
		}
		fmt.Fprintf(w, "  Words: %s\n", strings.Join(words, " "))
	}
}

func formatSample(w io.Writer, s *log.SampleEvent) {
	fmt.Fprintf(w, "  State: %s (%d)\n", s.State, s.Code)
	fmt.Fprintf(w, "  Trigger: %d  Intensity: %d  Debug: %d\n", s.Trigger, s.Intensity, s.Debug)
	fmt.Fprintf(w, "  Feedback: %d\n", s.Feedback)

	var flags []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"enable", s.GlobalEnable},
		{"ready", s.Ready},
		{"committed", s.Committed},
		{"firing_complete", s.FiringComplete},
		{"monitor_latched", s.MonitorLatched},
	} {
		if f.set {
			flags = append(flags, f.name)
		}
	}
	if len(flags) > 0 {
		fmt.Fprintf(w, "  Flags: %s\n", strings.Join(flags, " "))
	}
}

func formatError(w io.Writer, e *log.ErrorEventData) {
	fmt.Fprintf(w, "  Error: %s\n", e.Message)
	if e.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *e.Code)
	}
	if e.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", e.Context)
	}
}
