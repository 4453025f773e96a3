package observer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-instruments/probe-go/pkg/datatype"
)

const faultCode = 63

func newObserver(t *testing.T, mutate func(*Params)) *Observer {
	t.Helper()
	p := DefaultParams()
	if mutate != nil {
		mutate(&p)
	}
	o, err := New(p)
	require.NoError(t, err)
	return o
}

func TestDefaultTable(t *testing.T) {
	o := newObserver(t, nil)

	table := o.Table()
	require.Len(t, table, 64)
	assert.Equal(t, []int16{0, 4096, 8192, 12288, 16384}, table[:5])
	for _, v := range table[5:] {
		assert.Zero(t, v)
	}
	assert.True(t, o.SignFlip())
}

func TestLookupMonotonicAndEndpoints(t *testing.T) {
	for _, spacing := range []float64{0.25, 0.5, 1.0} {
		o := newObserver(t, func(p *Params) { p.Spacing = spacing })
		n := o.Params().NormalCodes()

		for i := 1; i < n; i++ {
			prev, _ := o.Lookup(uint8(i - 1))
			cur, _ := o.Lookup(uint8(i))
			assert.Less(t, prev, cur, "spacing %.2f, code %d", spacing, i)
		}

		first, _ := o.Lookup(0)
		last, _ := o.Lookup(uint8(n - 1))
		assert.Equal(t, int16(0), first, "spacing %.2f", spacing)
		assert.InDelta(t, int32(2500), o.Millivolts(last), 1, "spacing %.2f", spacing)
	}

	o := newObserver(t, nil)
	first, _ := o.Lookup(0)
	last, _ := o.Lookup(4)
	assert.Equal(t, int16(0), first)
	assert.InDelta(t, int32(2500), o.Millivolts(last), 1)
}

func TestSignFlip(t *testing.T) {
	o := newObserver(t, nil)

	for _, k := range []uint8{1, 2, 3, 4} {
		t.Run(string(rune('0'+k)), func(t *testing.T) {
			o.Reset()
			want, _ := o.Lookup(k)

			assert.Equal(t, want, o.Step(k))
			for i := 0; i < 20; i++ {
				assert.Equal(t, -want, o.Step(faultCode))
			}
			assert.Equal(t, want, o.LastNormal())
		})
	}
}

func TestSignFlipTracksMostRecentNormalCode(t *testing.T) {
	o := newObserver(t, nil)

	o.Step(1)
	o.Step(2)
	o.Step(3)
	v3, _ := o.Lookup(3)
	assert.Equal(t, -v3, o.Step(faultCode))

	o.Step(0)
	assert.Equal(t, int16(0), o.Step(faultCode), "fault from Idle reads as ground")

	// Any code in the fault range flips.
	o.Step(2)
	v2, _ := o.Lookup(2)
	assert.Equal(t, -v2, o.Step(40))
	assert.Equal(t, -v2, o.Step(5))
}

func TestNoSignFlipWhenThresholdCoversAllCodes(t *testing.T) {
	o := newObserver(t, func(p *Params) { p.FaultThreshold = 64 })
	assert.False(t, o.SignFlip())
	assert.Equal(t, 64, o.Params().NormalCodes())

	top, _ := o.Lookup(faultCode)
	assert.Equal(t, top, o.Step(faultCode))
	assert.Positive(t, top)
	assert.InDelta(t, int32(2500), o.Millivolts(top), 1)
}

func TestSingleNormalCode(t *testing.T) {
	o := newObserver(t, func(p *Params) {
		p.FaultThreshold = 1
		p.VMin = 1000
		p.VMax = 1000
	})
	v, _ := o.Lookup(0)
	assert.Equal(t, datatype.OutputScale().FloatToCode(1000), v)
	assert.Equal(t, -v, o.Step(faultCode))
}

func TestOutOfTableCodesAreFaults(t *testing.T) {
	o := newObserver(t, func(p *Params) { p.TotalCodes = 8 })
	o.Step(3)
	v3, _ := o.Lookup(3)

	_, ok := o.Lookup(9)
	assert.False(t, ok)
	assert.Equal(t, -v3, o.Step(9))
}

func TestSpacingAboveOneIsRejected(t *testing.T) {
	for _, spacing := range []float64{1.5, 2.0} {
		p := DefaultParams()
		p.Spacing = spacing
		_, err := New(p)
		assert.ErrorIs(t, err, ErrIndistinguishable, "spacing %.1f", spacing)
	}
}

func TestSpacingHonoursNonDefaultRange(t *testing.T) {
	o := newObserver(t, func(p *Params) {
		p.VMin = -1000
		p.VMax = 1000
		p.Spacing = 0.9
	})

	first, _ := o.Lookup(0)
	last, _ := o.Lookup(4)
	assert.InDelta(t, int32(-1000), o.Millivolts(first), 1)
	assert.InDelta(t, int32(1000), o.Millivolts(last), 1)
	for _, v := range o.Table()[:5] {
		assert.LessOrEqual(t, o.Millivolts(v), int32(1000))
	}
}

func TestIndistinguishable(t *testing.T) {
	// Spacing 2 asks for twice the nominal step.
	_, err := New(Params{
		TotalCodes:     64,
		FaultThreshold: 5,
		VMin:           0,
		VMax:           4000,
		Spacing:        2.0,
	})
	assert.ErrorIs(t, err, ErrIndistinguishable)

	_, err = New(Params{
		TotalCodes:     64,
		FaultThreshold: 5,
		VMax:           2500,
		Spacing:        1.0,
		GuardBand:      700,
	})
	assert.ErrorIs(t, err, ErrIndistinguishable)

	_, err = New(Params{
		TotalCodes:     64,
		FaultThreshold: 5,
		VMax:           2500,
		Spacing:        1.0,
		GuardBand:      600,
	})
	assert.NoError(t, err)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Params)
		wantErr error
	}{
		{"zero codes", func(p *Params) { p.TotalCodes = 0 }, ErrInvalidCodes},
		{"too many codes", func(p *Params) { p.TotalCodes = 300 }, ErrInvalidCodes},
		{"zero threshold", func(p *Params) { p.FaultThreshold = 0 }, ErrInvalidCodes},
		{"zero spacing", func(p *Params) { p.Spacing = 0 }, ErrInvalidSpacing},
		{"inverted range", func(p *Params) { p.VMin, p.VMax = 2500, 0 }, ErrInvalidRange},
		{"negative scale", func(p *Params) { p.Scale = datatype.Scale{FullScale: -5} }, ErrInvalidScale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			_, err := New(p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestReset(t *testing.T) {
	o := newObserver(t, func(p *Params) { p.VMin = 500 })
	idle, _ := o.Lookup(0)
	assert.Equal(t, idle, o.LastNormal())

	o.Step(4)
	require.NotEqual(t, idle, o.LastNormal())

	o.Reset()
	assert.Equal(t, idle, o.LastNormal())
	assert.Equal(t, -idle, o.Step(faultCode))
}
