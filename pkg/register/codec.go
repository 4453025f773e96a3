package register

import (
	"github.com/forge-instruments/probe-go/pkg/config"
)

// Encode packs cfg into words. Each value is reduced modulo its declared
// width; bits not covered by any field are zero.
func (l *Layout) Encode(cfg config.Config) Words {
	var w Words
	for _, p := range l.placements {
		v := uint32(uint64(cfg.Value(p.Field)) & p.Field.Type().Mask())
		w[p.Word] |= v << p.Shift
	}
	return w
}

// Decode unpacks words into a Config. Signed fields are sign-extended and
// bits not covered by any field are ignored.
func (l *Layout) Decode(w Words) config.Config {
	var cfg config.Config
	for _, p := range l.placements {
		raw := (w[p.Word] & p.mask()) >> p.Shift
		// SetValue only fails for unknown fields and NewLayout rejects those.
		_ = cfg.SetValue(p.Field, int64(raw))
	}
	return cfg
}

// FieldValue extracts a single field from words.
func (l *Layout) FieldValue(w Words, f config.Field) (int64, bool) {
	p, ok := l.byField[f]
	if !ok {
		return 0, false
	}
	raw := (w[p.Word] & p.mask()) >> p.Shift
	return f.Type().Truncate(int64(raw)), true
}

// SetFieldValue stores a single field into words, leaving every other bit
// untouched.
func (l *Layout) SetFieldValue(w *Words, f config.Field, v int64) bool {
	p, ok := l.byField[f]
	if !ok {
		return false
	}
	bits := uint32(uint64(v)&f.Type().Mask()) << p.Shift
	w[p.Word] = w[p.Word]&^p.mask() | bits
	return true
}
