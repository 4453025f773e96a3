package log

import "sync"

// MemoryLogger keeps events in memory. It is used by the interactive shell
// to show recent activity and by tests.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
	limit  int
}

// NewMemoryLogger creates a MemoryLogger keeping at most limit events.
// A limit of zero keeps everything.
func NewMemoryLogger(limit int) *MemoryLogger {
	return &MemoryLogger{limit: limit}
}

// Log stores the event, dropping the oldest when the limit is reached.
func (m *MemoryLogger) Log(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)
	if m.limit > 0 && len(m.events) > m.limit {
		m.events = append(m.events[:0], m.events[len(m.events)-m.limit:]...)
	}
}

// Events returns a copy of the stored events, oldest first.
func (m *MemoryLogger) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Filter returns the stored events matching f.
func (m *MemoryLogger) Filter(f Filter) []Event {
	var out []Event
	for _, e := range m.Events() {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops every stored event.
func (m *MemoryLogger) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}

// Compile-time interface satisfaction check.
var _ Logger = (*MemoryLogger)(nil)
