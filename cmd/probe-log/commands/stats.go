package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/forge-instruments/probe-go/pkg/log"
)

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents        int
	EventsByComponent  map[log.Component]int
	EventsByCategory   map[log.Category]int
	Runs               map[string]*RunSummary
	TransitionsByState map[string]int
	FaultsByCheck      map[string]int
	Errors             int
	TimeRange          struct {
		Start time.Time
		End   time.Time
	}
}

// RunSummary holds statistics for a single engine run.
type RunSummary struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	FirstTick uint64
	LastTick  uint64
	Commits   int
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

// Collect reads every event of path into a Stats.
func Collect(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByComponent:  make(map[log.Component]int),
		EventsByCategory:   make(map[log.Category]int),
		Runs:               make(map[string]*RunSummary),
		TransitionsByState: make(map[string]int),
		FaultsByCheck:      make(map[string]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByComponent[event.Component]++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		run, ok := stats.Runs[event.RunID]
		if !ok {
			run = &RunSummary{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
				FirstTick: event.Tick,
				LastTick:  event.Tick,
			}
			stats.Runs[event.RunID] = run
		}
		run.Events++
		if event.Timestamp.After(run.LastSeen) {
			run.LastSeen = event.Timestamp
		}
		if event.Tick < run.FirstTick {
			run.FirstTick = event.Tick
		}
		if event.Tick > run.LastTick {
			run.LastTick = event.Tick
		}

		switch {
		case event.StateChange != nil:
			stats.TransitionsByState[event.StateChange.NewState]++
			if event.StateChange.Check != "" {
				stats.FaultsByCheck[event.StateChange.Check]++
			}
		case event.Commit != nil:
			run.Commits++
		case event.Error != nil:
			stats.Errors++
		}
	}

	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Probe Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Component:")
	for _, c := range []log.Component{log.ComponentEngine, log.ComponentSynchronizer, log.ComponentController, log.ComponentObserver} {
		if count := stats.EventsByComponent[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, c := range []log.Category{log.CategoryState, log.CategoryCommit, log.CategorySample, log.CategoryError} {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.TransitionsByState) > 0 {
		fmt.Fprintln(w, "Transitions into:")
		for _, s := range sortedKeys(stats.TransitionsByState) {
			fmt.Fprintf(w, "  %-12s %d\n", s+":", stats.TransitionsByState[s])
		}
		fmt.Fprintln(w)
	}

	if len(stats.FaultsByCheck) > 0 {
		fmt.Fprintln(w, "Faults by Check:")
		for _, c := range sortedKeys(stats.FaultsByCheck) {
			fmt.Fprintf(w, "  %-16s %d\n", c+":", stats.FaultsByCheck[c])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Runs: %d\n", len(stats.Runs))
	if len(stats.Runs) > 0 {
		type runInfo struct {
			id    string
			stats *RunSummary
		}
		runs := make([]runInfo, 0, len(stats.Runs))
		for id, rs := range stats.Runs {
			runs = append(runs, runInfo{id, rs})
		}
		sort.Slice(runs, func(i, j int) bool {
			return runs[i].stats.FirstSeen.Before(runs[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, r := range runs {
			fmt.Fprintf(w, "  [%s] %d events, ticks %d-%d, %d commits\n",
				shortenRunID(r.id), r.stats.Events, r.stats.FirstTick, r.stats.LastTick, r.stats.Commits)
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
