package configsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge-instruments/probe-go/pkg/config"
	"github.com/forge-instruments/probe-go/pkg/register"
)

// countingSource records how often it was sampled.
type countingSource struct {
	words register.Words
	reads int
}

func (c *countingSource) Snapshot() register.Words {
	c.reads++
	return c.words
}

func TestNewStartsAtSafeDefaults(t *testing.T) {
	s := New(nil)
	assert.Equal(t, config.SafeDefaults(), s.Committed())
	assert.Equal(t, register.Words{}, s.CommittedWords())
	assert.NotNil(t, s.Layout())
}

func TestCommitRequiresBothFlags(t *testing.T) {
	bank := register.NewBank(nil)
	require.NoError(t, bank.WriteField(config.FieldArmEnable, 1))

	tests := []struct {
		name         string
		globalEnable bool
		ready        bool
		wantCommit   bool
	}{
		{"both low", false, false, false},
		{"enable only", true, false, false},
		{"ready only", false, true, false},
		{"both high", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(nil)
			cfg, committed := s.Step(bank, tt.globalEnable, tt.ready)
			assert.Equal(t, tt.wantCommit, committed)
			assert.Equal(t, tt.wantCommit, cfg.ArmEnable)
		})
	}
}

func TestConfigIsolationWhileNotReady(t *testing.T) {
	bank := register.NewBank(nil)
	s := New(nil)

	bank.Load(config.Config{TrigOutDuration: 80, CooldownInterval: 5})
	before, committed := s.Step(bank, true, true)
	require.True(t, committed)

	// Many writes while the controller withholds readiness.
	for i := 0; i < 100; i++ {
		require.NoError(t, bank.WriteField(config.FieldTrigOutDuration, int64(i)))
		require.NoError(t, bank.Write(6, uint32(i*3)))
		require.NoError(t, bank.WriteField(config.FieldAutoRearm, int64(i%2)))

		cfg, committed := s.Step(bank, true, false)
		assert.False(t, committed)
		assert.Equal(t, before, cfg)
	}
	assert.Equal(t, before, s.Committed())

	// Readiness reasserted: the latest raw values appear all at once.
	cfg, committed := s.Step(bank, true, true)
	require.True(t, committed)
	assert.Equal(t, uint32(99), cfg.TrigOutDuration)
	assert.Equal(t, uint32(297), cfg.CooldownInterval)
	assert.True(t, cfg.AutoRearm)
}

func TestStallDoesNotSampleSource(t *testing.T) {
	src := &countingSource{}
	s := New(nil)

	s.Step(src, false, true)
	s.Step(src, true, false)
	assert.Zero(t, src.reads)

	s.Step(src, true, true)
	assert.Equal(t, 1, src.reads)

	assert.Equal(t, uint64(1), s.Commits())
	assert.Equal(t, uint64(2), s.Stalls())
}

func TestNilSourceStalls(t *testing.T) {
	s := New(nil)
	_, committed := s.Step(nil, true, true)
	assert.False(t, committed)
}

func TestPassesOutOfRangeValuesThrough(t *testing.T) {
	src := &countingSource{}
	src.words[1] = 0x8000 // most negative millivolt value
	src.words[5] = 0xFFFF

	s := New(nil)
	cfg, _ := s.Step(src, true, true)
	assert.Equal(t, int16(-32768), cfg.TrigOutVoltage)
	assert.Equal(t, uint32(0xFFFF), cfg.TriggerWaitTimeout)
}

func TestReset(t *testing.T) {
	src := &countingSource{}
	src.words[0] = 0xF
	s := New(nil)
	s.Step(src, true, true)
	require.True(t, s.Committed().FaultClear)

	s.Reset()
	assert.Equal(t, config.SafeDefaults(), s.Committed())
	assert.Zero(t, s.Commits())
	assert.Zero(t, s.Stalls())
}
