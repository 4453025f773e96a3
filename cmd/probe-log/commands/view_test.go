package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/forge-instruments/probe-go/pkg/log"
)

func TestFormatStateChangeEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		RunID:     "abc12345-6789-0123-4567-890abcdef012",
		Tick:      42,
		Component: log.ComponentController,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: "ARMED", OldCode: 1,
			NewState: "FAULT", NewCode: 63,
			Reason: "fault", Check: "armed_timeout",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z",
		"[run:abc12345]",
		"tick 42",
		"CONTROLLER",
		"STATE",
		"ARMED (1) -> FAULT (63)",
		"Reason: fault",
		"Check: armed_timeout",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestFormatCommitEvent(t *testing.T) {
	event := log.Event{
		RunID:     "short",
		Component: log.ComponentSynchronizer,
		Category:  log.CategoryCommit,
		Commit:    &log.CommitEvent{Words: []uint32{0x3, 0x2710}, Changed: []string{"arm_enable", "ext_trigger"}},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "[run:short]") {
		t.Errorf("expected unshortened run ID, got: %s", output)
	}
	if !strings.Contains(output, "Changed: arm_enable, ext_trigger") {
		t.Errorf("expected changed fields, got: %s", output)
	}
	if !strings.Contains(output, "Words: 00000003 00002710") {
		t.Errorf("expected hex words, got: %s", output)
	}
}

func TestFormatSampleEvent(t *testing.T) {
	event := log.Event{
		Component: log.ComponentEngine,
		Category:  log.CategorySample,
		Sample: &log.SampleEvent{
			State: "COOLDOWN", Code: 3,
			Trigger: 0, Intensity: 0, Debug: 12288, Feedback: -40,
			GlobalEnable: true, Committed: true,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "State: COOLDOWN (3)") {
		t.Errorf("expected state line, got: %s", output)
	}
	if !strings.Contains(output, "Debug: 12288") {
		t.Errorf("expected debug value, got: %s", output)
	}
	if !strings.Contains(output, "Feedback: -40") {
		t.Errorf("expected feedback, got: %s", output)
	}
	if !strings.Contains(output, "Flags: enable committed") {
		t.Errorf("expected flags, got: %s", output)
	}
}

func TestFormatErrorEvent(t *testing.T) {
	code := log.ErrorCodeOverrun
	event := log.Event{
		Component: log.ComponentEngine,
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Message: "tick overrun", Code: &code, Context: "run"},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "Error: tick overrun") {
		t.Errorf("expected error message, got: %s", output)
	}
	if !strings.Contains(output, "Code: 1") {
		t.Errorf("expected error code, got: %s", output)
	}
	if !strings.Contains(output, "Context: run") {
		t.Errorf("expected context, got: %s", output)
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, testTrace())

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{Component: "engine"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if strings.Contains(output, "CONTROLLER") {
		t.Errorf("controller events should be filtered out: %s", output)
	}
	if !strings.Contains(output, "SAMPLE") || !strings.Contains(output, "ERROR") {
		t.Errorf("expected engine events: %s", output)
	}
}
