// Package configsync bridges the always-writable raw register bank and the
// committed configuration read by the controller.
//
// The synchronizer is the only writer of the committed snapshot. On every
// tick it either replaces the whole snapshot with a decode of the raw words,
// or leaves it untouched. It performs no validation and cannot fail; the
// worst it can do is stall by not committing.
package configsync

import (
	"github.com/forge-instruments/probe-go/pkg/config"
	"github.com/forge-instruments/probe-go/pkg/register"
)

// Source provides a consistent copy of the raw configuration words.
// *register.Bank implements Source.
type Source interface {
	Snapshot() register.Words
}

// Synchronizer latches raw configuration into a committed snapshot.
type Synchronizer struct {
	layout    *register.Layout
	committed config.Config
	words     register.Words

	commits uint64
	stalls  uint64
}

// New creates a synchronizer whose committed snapshot holds safe defaults.
// A nil layout selects register.DefaultLayout.
func New(layout *register.Layout) *Synchronizer {
	if layout == nil {
		layout = register.DefaultLayout()
	}
	s := &Synchronizer{layout: layout}
	s.Reset()
	return s
}

// Step runs one tick. When both globalEnable and ready are set, every raw
// field is copied into the committed snapshot; otherwise nothing changes.
// It returns the committed snapshot and whether a commit happened.
func (s *Synchronizer) Step(src Source, globalEnable, ready bool) (config.Config, bool) {
	if !globalEnable || !ready || src == nil {
		s.stalls++
		return s.committed, false
	}

	// One snapshot, one decode: all fields come from the same instant.
	w := src.Snapshot()
	s.words = w
	s.committed = s.layout.Decode(w)
	s.commits++
	return s.committed, true
}

// Reset forces the committed snapshot to safe defaults.
func (s *Synchronizer) Reset() {
	s.committed = config.SafeDefaults()
	s.words = s.layout.Encode(s.committed)
	s.commits = 0
	s.stalls = 0
}

// Committed returns the committed snapshot.
func (s *Synchronizer) Committed() config.Config {
	return s.committed
}

// CommittedWords returns the raw words of the last commit.
func (s *Synchronizer) CommittedWords() register.Words {
	return s.words
}

// Layout returns the layout used to decode raw words.
func (s *Synchronizer) Layout() *register.Layout {
	return s.layout
}

// Commits returns the number of ticks on which a commit happened.
func (s *Synchronizer) Commits() uint64 {
	return s.commits
}

// Stalls returns the number of ticks on which committing was withheld.
func (s *Synchronizer) Stalls() uint64 {
	return s.stalls
}
