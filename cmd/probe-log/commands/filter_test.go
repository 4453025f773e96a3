package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forge-instruments/probe-go/pkg/log"
)

func TestFilterOptionsBuild(t *testing.T) {
	f, err := FilterOptions{
		RunID:     "run-1",
		Component: "controller",
		Category:  "State",
		State:     "firing",
		TickStart: "10",
		TickEnd:   "20",
		TimeStart: "2026-01-28T10:00:00Z",
		TimeEnd:   "2026-01-28T11:00:00Z",
	}.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if f.RunID != "run-1" {
		t.Errorf("RunID = %q", f.RunID)
	}
	if f.Component == nil || *f.Component != log.ComponentController {
		t.Errorf("Component = %v", f.Component)
	}
	if f.Category == nil || *f.Category != log.CategoryState {
		t.Errorf("Category = %v", f.Category)
	}
	if f.State != "FIRING" {
		t.Errorf("State = %q, want upper-cased", f.State)
	}
	if f.TickStart == nil || *f.TickStart != 10 || f.TickEnd == nil || *f.TickEnd != 20 {
		t.Errorf("tick range = %v..%v", f.TickStart, f.TickEnd)
	}
	if f.TimeStart == nil || f.TimeEnd == nil || !f.TimeStart.Before(*f.TimeEnd) {
		t.Errorf("time range = %v..%v", f.TimeStart, f.TimeEnd)
	}
}

func TestFilterOptionsBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		opts FilterOptions
	}{
		{"component", FilterOptions{Component: "transport"}},
		{"category", FilterOptions{Category: "message"}},
		{"tick-start", FilterOptions{TickStart: "-1"}},
		{"tick-end", FilterOptions{TickEnd: "ten"}},
		{"time-start", FilterOptions{TimeStart: "yesterday"}},
		{"time-end", FilterOptions{TimeEnd: "2026-01-28"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.opts.Build(); err == nil {
				t.Errorf("expected error for %+v", tt.opts)
			}
		})
	}
}

func TestParseComponentFlag(t *testing.T) {
	for in, want := range map[string]log.Component{
		"engine":     log.ComponentEngine,
		"SYNC":       log.ComponentSynchronizer,
		"Controller": log.ComponentController,
		"observer":   log.ComponentObserver,
	} {
		got, err := ParseComponentFlag(in)
		if err != nil {
			t.Errorf("ParseComponentFlag(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseComponentFlag(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRunFilterWritesSubset(t *testing.T) {
	path := createTestLogFile(t, testTrace())
	out := filepath.Join(t.TempDir(), "filtered.plog")

	var buf bytes.Buffer
	if err := RunFilter(path, out, FilterOptions{RunID: "run-aaaa-1111", TickStart: "10"}, &buf); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Filtered 2 events to "+out) {
		t.Errorf("unexpected summary: %s", buf.String())
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	var ticks []uint64
	for {
		e, err := reader.Next()
		if err != nil {
			break
		}
		ticks = append(ticks, e.Tick)
	}
	if len(ticks) != 2 || ticks[0] != 10 || ticks[1] != 11 {
		t.Errorf("filtered ticks = %v, want [10 11]", ticks)
	}
}

func TestRunFilterByState(t *testing.T) {
	path := createTestLogFile(t, testTrace())
	out := filepath.Join(t.TempDir(), "firing.plog")

	var buf bytes.Buffer
	if err := RunFilter(path, out, FilterOptions{State: "firing"}, &buf); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	// The ARMED->FIRING transition and the FIRING sample.
	if !strings.Contains(buf.String(), "Filtered 2 events") {
		t.Errorf("unexpected summary: %s", buf.String())
	}
}

func TestRunFilterBadOptions(t *testing.T) {
	path := createTestLogFile(t, testTrace())
	out := filepath.Join(t.TempDir(), "x.plog")

	var buf bytes.Buffer
	if err := RunFilter(path, out, FilterOptions{Category: "bogus"}, &buf); err == nil {
		t.Error("expected error for unknown category")
	}
}
