package register

import (
	"fmt"
	"sync"

	"github.com/forge-instruments/probe-go/pkg/config"
)

// Bank is the raw configuration register file. Any goroutine may write it at
// any time; readers always see a consistent copy of all words.
type Bank struct {
	mu     sync.RWMutex
	layout *Layout
	words  Words
	writes uint64
}

// NewBank creates a bank using layout, initialized to the encoding of safe
// defaults. A nil layout selects DefaultLayout.
func NewBank(layout *Layout) *Bank {
	if layout == nil {
		layout = DefaultLayout()
	}
	return &Bank{
		layout: layout,
		words:  layout.Encode(config.SafeDefaults()),
	}
}

// Layout returns the bank's layout.
func (b *Bank) Layout() *Layout {
	return b.layout
}

// Write stores a whole word.
func (b *Bank) Write(word int, value uint32) error {
	if word < 0 || word >= NumWords {
		return fmt.Errorf("%w: %d", ErrWordIndex, word)
	}
	b.mu.Lock()
	b.words[word] = value
	b.writes++
	b.mu.Unlock()
	return nil
}

// WriteField stores one field, leaving the rest of its word untouched.
func (b *Bank) WriteField(f config.Field, value int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.layout.SetFieldValue(&b.words, f, value) {
		return fmt.Errorf("%w: %d", config.ErrUnknownField, f)
	}
	b.writes++
	return nil
}

// Load replaces every word with the encoding of cfg.
func (b *Bank) Load(cfg config.Config) {
	w := b.layout.Encode(cfg)
	b.mu.Lock()
	b.words = w
	b.writes++
	b.mu.Unlock()
}

// Store replaces every word.
func (b *Bank) Store(w Words) {
	b.mu.Lock()
	b.words = w
	b.writes++
	b.mu.Unlock()
}

// Read returns a single word.
func (b *Bank) Read(word int) (uint32, error) {
	if word < 0 || word >= NumWords {
		return 0, fmt.Errorf("%w: %d", ErrWordIndex, word)
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.words[word], nil
}

// Snapshot returns a copy of all words taken under one lock.
func (b *Bank) Snapshot() Words {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.words
}

// Config decodes the current raw words.
func (b *Bank) Config() config.Config {
	return b.layout.Decode(b.Snapshot())
}

// Writes returns the number of write operations applied to the bank.
func (b *Bank) Writes() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}
