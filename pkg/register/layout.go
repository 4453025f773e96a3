// Package register implements the fixed-width word boundary of the probe
// configuration.
//
// Configuration is exchanged with the outside world as a small array of
// 32-bit words. A Layout assigns every configuration field a word and a bit
// range; Encode and Decode are the only code that knows about bit packing.
// Bank is the always-writable raw register store that external writers
// mutate and the synchronizer snapshots.
package register

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/forge-instruments/probe-go/pkg/config"
)

// NumWords is the number of configuration words.
const NumWords = 11

// WordBits is the width of a configuration word.
const WordBits = 32

// Words holds the packed raw configuration.
type Words [NumWords]uint32

// Layout errors.
var (
	ErrWordIndex      = errors.New("word index out of range")
	ErrFieldOverflow  = errors.New("field does not fit in word")
	ErrFieldOverlap   = errors.New("fields overlap")
	ErrDuplicateField = errors.New("field placed twice")
	ErrMissingField   = errors.New("field not placed")
)

// Placement locates one field inside the word array.
type Placement struct {
	Field config.Field
	Word  int
	Shift uint
}

// Width returns the declared bit width of the placed field.
func (p Placement) Width() uint {
	return p.Field.Type().Width()
}

func (p Placement) mask() uint32 {
	return uint32(p.Field.Type().Mask()) << p.Shift
}

// Layout is a validated set of placements covering every field.
type Layout struct {
	placements []Placement
	byField    map[config.Field]Placement
}

// NewLayout validates placements and builds a layout. Every configuration
// field must be placed exactly once, fully inside its word, without
// overlapping any other field.
func NewLayout(placements ...Placement) (*Layout, error) {
	l := &Layout{
		placements: make([]Placement, 0, len(placements)),
		byField:    make(map[config.Field]Placement, len(placements)),
	}
	var used Words

	for _, p := range placements {
		if !p.Field.Valid() {
			return nil, fmt.Errorf("%w: %d", config.ErrUnknownField, p.Field)
		}
		if p.Word < 0 || p.Word >= NumWords {
			return nil, fmt.Errorf("%w: %s at word %d", ErrWordIndex, p.Field, p.Word)
		}
		if p.Shift+p.Width() > WordBits {
			return nil, fmt.Errorf("%w: %s needs bits %d..%d of word %d",
				ErrFieldOverflow, p.Field, p.Shift, p.Shift+p.Width()-1, p.Word)
		}
		if _, dup := l.byField[p.Field]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, p.Field)
		}
		m := p.mask()
		if used[p.Word]&m != 0 {
			return nil, fmt.Errorf("%w: %s in word %d", ErrFieldOverlap, p.Field, p.Word)
		}
		used[p.Word] |= m
		l.byField[p.Field] = p
		l.placements = append(l.placements, p)
	}

	for _, f := range config.Fields() {
		if _, ok := l.byField[f]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingField, f)
		}
	}

	sort.SliceStable(l.placements, func(i, j int) bool {
		a, b := l.placements[i], l.placements[j]
		if a.Word != b.Word {
			return a.Word < b.Word
		}
		return a.Shift < b.Shift
	})
	return l, nil
}

// DefaultLayout returns the Control0..Control10 assignment used by the
// probe driver. Every field is LSB-aligned in its word.
func DefaultLayout() *Layout {
	l, err := NewLayout(
		Placement{config.FieldArmEnable, 0, 0},
		Placement{config.FieldExtTrigger, 0, 1},
		Placement{config.FieldAutoRearm, 0, 2},
		Placement{config.FieldFaultClear, 0, 3},
		Placement{config.FieldTrigOutVoltage, 1, 0},
		Placement{config.FieldTrigOutDuration, 2, 0},
		Placement{config.FieldIntensityVoltage, 3, 0},
		Placement{config.FieldIntensityDuration, 4, 0},
		Placement{config.FieldTriggerWaitTimeout, 5, 0},
		Placement{config.FieldCooldownInterval, 6, 0},
		Placement{config.FieldMonitorEnable, 7, 0},
		Placement{config.FieldMonitorExpectNegative, 7, 1},
		Placement{config.FieldMonitorThreshold, 8, 0},
		Placement{config.FieldMonitorWindowStart, 9, 0},
		Placement{config.FieldMonitorWindowDuration, 10, 0},
	)
	if err != nil {
		panic("register: invalid default layout: " + err.Error())
	}
	return l
}

// Placement returns where a field lives.
func (l *Layout) Placement(f config.Field) (Placement, bool) {
	p, ok := l.byField[f]
	return p, ok
}

// Placements returns all placements ordered by word and bit.
func (l *Layout) Placements() []Placement {
	out := make([]Placement, len(l.placements))
	copy(out, l.placements)
	return out
}

// WriteTable renders a human-readable packing table.
func (l *Layout) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tBITS\tFIELD\tTYPE")
	for _, p := range l.placements {
		bits := fmt.Sprintf("%d", p.Shift)
		if p.Width() > 1 {
			bits = fmt.Sprintf("%d:%d", p.Shift+p.Width()-1, p.Shift)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.Word, bits, p.Field, p.Field.Type())
	}
	return tw.Flush()
}
