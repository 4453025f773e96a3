package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/forge-instruments/probe-go/pkg/log"
)

// FilterOptions holds the textual filter flags shared by view, export and
// filter.
type FilterOptions struct {
	RunID     string
	Component string
	Category  string
	State     string
	TickStart string
	TickEnd   string
	TimeStart string
	TimeEnd   string
}

// Build converts the options to a log.Filter.
func (o FilterOptions) Build() (log.Filter, error) {
	filter := log.Filter{
		RunID: o.RunID,
		State: strings.ToUpper(o.State),
	}

	if o.Component != "" {
		c, err := ParseComponentFlag(o.Component)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Component = &c
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}

	if o.TickStart != "" {
		v, err := strconv.ParseUint(o.TickStart, 10, 64)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid tick-start: %w", err)
		}
		filter.TickStart = &v
	}
	if o.TickEnd != "" {
		v, err := strconv.ParseUint(o.TickEnd, 10, 64)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid tick-end: %w", err)
		}
		filter.TickEnd = &v
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// ParseComponentFlag parses a component name (engine, sync, controller,
// observer).
func ParseComponentFlag(s string) (log.Component, error) {
	c, ok := log.ParseComponent(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("unknown component: %s (valid: engine, sync, controller, observer)", s)
	}
	return c, nil
}

// ParseCategoryFlag parses a category name (state, commit, sample, error).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("unknown category: %s (valid: state, commit, sample, error)", s)
	}
	return c, nil
}

// RunFilter copies the events of path matching opts to output and reports
// how many were written to w.
func RunFilter(path, output string, opts FilterOptions, w io.Writer) error {
	filter, err := opts.Build()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = logger.Close()
			return fmt.Errorf("failed to read event: %w", err)
		}
		logger.Log(event)
		count++
	}

	if err := logger.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(w, "Filtered %d events to %s\n", count, output)
	return nil
}
