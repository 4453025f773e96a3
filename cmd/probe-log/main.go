// Command probe-log views and analyzes probe trace files.
//
// Trace files are written by probe-sim with the -trace flag. Each file is a
// stream of CBOR-encoded events (.plog).
//
// Usage:
//
//	probe-log <command> [flags] <file.plog>
//
// Commands:
//
//	view     View trace in human-readable format
//	export   Export trace to JSONL or CSV format
//	filter   Filter trace and write to new file
//	stats    Show statistics about the trace
//
// Examples:
//
//	# View all events
//	probe-log view run.plog
//
//	# View only state changes
//	probe-log view -category state run.plog
//
//	# View samples taken while firing, from tick 1000
//	probe-log view -category sample -state firing -tick-start 1000 run.plog
//
//	# Export to CSV
//	probe-log export -format csv -o run.csv run.plog
//
//	# Keep only one run
//	probe-log filter -run-id 1f2e3d4c-... -o single.plog run.plog
//
//	# Show statistics
//	probe-log stats run.plog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/forge-instruments/probe-go/cmd/probe-log/commands"
)

const usage = `probe-log - Probe Trace Analyzer

Usage:
  probe-log <command> [flags] <file.plog>

Commands:
  view     View trace in human-readable format
  export   Export trace to JSONL or CSV format
  filter   Filter trace and write to new file
  stats    Show statistics about the trace

Use "probe-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// filterFlags registers the shared filter flags on fs.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	var o commands.FilterOptions
	fs.StringVar(&o.RunID, "run-id", "", "Filter by run ID")
	fs.StringVar(&o.Component, "component", "", "Filter by component (engine, sync, controller, observer)")
	fs.StringVar(&o.Category, "category", "", "Filter by category (state, commit, sample, error)")
	fs.StringVar(&o.State, "state", "", "Filter by controller state (idle, armed, firing, cooldown, fault)")
	fs.StringVar(&o.TickStart, "tick-start", "", "Keep events at or after this tick")
	fs.StringVar(&o.TickEnd, "tick-end", "", "Keep events before this tick")
	fs.StringVar(&o.TimeStart, "time-start", "", "Keep events at or after this time (RFC3339)")
	fs.StringVar(&o.TimeEnd, "time-end", "", "Keep events before this time (RFC3339)")
	return &o
}

func newFlagSet(name, summary, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "probe-log %s - %s\n\nUsage:\n  probe-log %s\n\nFlags:\n", name, summary, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func tracePath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	fs := newFlagSet("view", "View trace in human-readable format", "view [flags] <file.plog>")
	opts := filterFlags(fs)
	path := tracePath(fs, args)

	if err := commands.RunView(path, *opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := newFlagSet("export", "Export trace to JSONL or CSV format", "export [flags] <file.plog>")
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	opts := filterFlags(fs)
	path := tracePath(fs, args)

	if err := commands.RunExport(path, *format, *output, *opts); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter trace and write to new file", "filter [flags] -o <out.plog> <file.plog>")
	output := fs.String("o", "", "Output file (required)")
	opts := filterFlags(fs)
	path := tracePath(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunFilter(path, *output, *opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the trace", "stats <file.plog>")
	path := tracePath(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
