package scenario

import (
	"encoding/json"
	"fmt"
	"io"
)

// Summary counts scenario outcomes.
type Summary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summarize counts passed and failed results.
func Summarize(results []*Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Passed {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// WriteText writes a human-readable report. With verbose set every failure
// is listed, otherwise only the first of each scenario.
func WriteText(w io.Writer, results []*Result, verbose bool) {
	for _, r := range results {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %s", status, r.ID)
		if r.Name != "" {
			fmt.Fprintf(w, " - %s", r.Name)
		}
		fmt.Fprintf(w, " (%d ticks)\n", r.Ticks)

		for i, f := range r.Failures {
			if i > 0 && !verbose {
				fmt.Fprintf(w, "       ... %d more\n", len(r.Failures)-1)
				break
			}
			step := fmt.Sprintf("step %d", f.Step)
			if f.StepName != "" {
				step += " (" + f.StepName + ")"
			}
			fmt.Fprintf(w, "       %s tick %d: %s = %s, want %s\n", step, f.Tick, f.Key, f.Actual, f.Expected)
		}
	}

	s := Summarize(results)
	fmt.Fprintf(w, "\n--- Summary ---\n")
	fmt.Fprintf(w, "Total:  %d\n", s.Total)
	fmt.Fprintf(w, "Passed: %d\n", s.Passed)
	fmt.Fprintf(w, "Failed: %d\n", s.Failed)
}

type jsonReport struct {
	Summary Summary   `json:"summary"`
	Results []*Result `json:"results"`
}

// WriteJSON writes results and their summary as one JSON document.
func WriteJSON(w io.Writer, results []*Result, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(jsonReport{Summary: Summarize(results), Results: results})
}
