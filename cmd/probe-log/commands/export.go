package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/forge-instruments/probe-go/pkg/log"
)

// RunExport exports the events of path matching opts in the given format.
// An empty output writes to stdout.
func RunExport(path, format, output string, opts FilterOptions) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{
	"timestamp", "run_id", "tick", "component", "category",
	"state", "code", "trigger", "intensity", "debug", "detail",
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

func csvRow(event log.Event) []string {
	row := []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.RunID,
		strconv.FormatUint(event.Tick, 10),
		event.Component.String(),
		event.Category.String(),
		"", "", "", "", "", "",
	}

	switch {
	case event.StateChange != nil:
		sc := event.StateChange
		row[5] = sc.NewState
		row[6] = strconv.Itoa(int(sc.NewCode))
		row[10] = sc.OldState + "->" + sc.NewState + " " + sc.Reason
		if sc.Check != "" {
			row[10] += " " + sc.Check
		}
	case event.Sample != nil:
		s := event.Sample
		row[5] = s.State
		row[6] = strconv.Itoa(int(s.Code))
		row[7] = strconv.Itoa(int(s.Trigger))
		row[8] = strconv.Itoa(int(s.Intensity))
		row[9] = strconv.Itoa(int(s.Debug))
	case event.Commit != nil:
		row[10] = fmt.Sprint(event.Commit.Changed)
	case event.Error != nil:
		row[10] = event.Error.Message
	}
	return row
}
