package log

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects trace events. Empty/nil fields match everything.
type Filter struct {
	// RunID filters by exact run ID.
	RunID string

	// Component filters by producing component.
	Component *Component

	// Category filters by event category.
	Category *Category

	// TickStart keeps events at or after this tick.
	TickStart *uint64

	// TickEnd keeps events before this tick.
	TickEnd *uint64

	// TimeStart keeps events at or after this time.
	TimeStart *time.Time

	// TimeEnd keeps events before this time.
	TimeEnd *time.Time

	// State keeps state changes into or out of this state, and samples
	// taken in it.
	State string
}

// Matches returns true if the event matches all filter criteria.
func (f *Filter) Matches(event Event) bool {
	if f.RunID != "" && event.RunID != f.RunID {
		return false
	}
	if f.Component != nil && event.Component != *f.Component {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.TickStart != nil && event.Tick < *f.TickStart {
		return false
	}
	if f.TickEnd != nil && event.Tick >= *f.TickEnd {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	if f.State != "" && !f.matchesState(event) {
		return false
	}
	return true
}

func (f *Filter) matchesState(event Event) bool {
	switch {
	case event.StateChange != nil:
		return event.StateChange.OldState == f.State || event.StateChange.NewState == f.State
	case event.Sample != nil:
		return event.Sample.State == f.State
	default:
		return false
	}
}

// Reader streams trace events from a CBOR file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader creates a Reader over every event in the file.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader creates a Reader that returns only events matching
// filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		filter:  filter,
	}, nil
}

// Next returns the next matching event, or io.EOF.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
