package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/forge-instruments/probe-go/pkg/log"
)

func TestCollect(t *testing.T) {
	path := createTestLogFile(t, testTrace())

	stats, err := Collect(path)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if stats.TotalEvents != 5 {
		t.Errorf("TotalEvents = %d, want 5", stats.TotalEvents)
	}
	if stats.EventsByCategory[log.CategoryState] != 2 {
		t.Errorf("state events = %d, want 2", stats.EventsByCategory[log.CategoryState])
	}
	if stats.EventsByComponent[log.ComponentEngine] != 2 {
		t.Errorf("engine events = %d, want 2", stats.EventsByComponent[log.ComponentEngine])
	}
	if stats.TransitionsByState["FIRING"] != 1 || stats.TransitionsByState["ARMED"] != 1 {
		t.Errorf("transitions = %v", stats.TransitionsByState)
	}
	if stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
	if len(stats.Runs) != 2 {
		t.Fatalf("Runs = %d, want 2", len(stats.Runs))
	}

	run := stats.Runs["run-aaaa-1111"]
	if run.Events != 4 || run.Commits != 1 || run.FirstTick != 0 || run.LastTick != 11 {
		t.Errorf("run summary = %+v", run)
	}
	if got := stats.TimeRange.End.Sub(stats.TimeRange.Start); got != 20*time.Millisecond {
		t.Errorf("time range = %v, want 20ms", got)
	}
}

func TestStatsCountsFaultChecks(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Category: log.CategoryState, StateChange: &log.StateChangeEvent{OldState: "ARMED", NewState: "FAULT", Check: "armed_timeout"}},
		{Timestamp: ts, Category: log.CategoryState, StateChange: &log.StateChangeEvent{OldState: "FAULT", NewState: "IDLE"}},
		{Timestamp: ts, Category: log.CategoryState, StateChange: &log.StateChangeEvent{OldState: "ARMED", NewState: "FAULT", Check: "armed_timeout"}},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "Faults by Check:") {
		t.Error("expected fault section in output")
	}
	if !strings.Contains(output, "armed_timeout:") {
		t.Errorf("expected armed_timeout count, got: %s", output)
	}
	if !strings.Contains(output, "FAULT:") || !strings.Contains(output, "IDLE:") {
		t.Errorf("expected transition counts, got: %s", output)
	}
}

func TestStatsOutput(t *testing.T) {
	path := createTestLogFile(t, testTrace())

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"=== Probe Trace Statistics ===",
		"Total Events: 5",
		"CONTROLLER:",
		"SAMPLE:",
		"Runs: 2",
		"[run-aaaa] 4 events, ticks 0-11, 1 commits",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("expected zero events, got: %s", buf.String())
	}
}
