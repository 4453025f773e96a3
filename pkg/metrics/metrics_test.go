package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveTick(t *testing.T) {
	c := NewCollector("")

	c.ObserveTick(1, true, false)
	c.ObserveTick(2, false, true)
	c.ObserveTick(63, false, true)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.ticks))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.stalls))
	assert.Equal(t, 63.0, testutil.ToFloat64(c.state))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.latched))
}

func TestObserveTransitionsAndFaults(t *testing.T) {
	c := NewCollector("bench")

	c.ObserveTransition("IDLE", "ARMED", "ARM")
	c.ObserveTransition("IDLE", "ARMED", "ARM")
	c.ObserveTransition("ARMED", "FAULT", "FAULT_DETECTED")
	c.ObserveFault("armed_timeout")
	c.ObserveFault("")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.transitions.WithLabelValues("IDLE", "ARMED", "ARM")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.faults.WithLabelValues("armed_timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.faults.WithLabelValues("unknown")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.transitions))
}

func TestRegistryExposition(t *testing.T) {
	c := NewCollector("")
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	c.ObserveOverrun()
	c.ObserveStepDuration(3 * time.Microsecond)

	expected := `
# HELP probe_driver_tick_overruns_total Ticks that started later than their period.
# TYPE probe_driver_tick_overruns_total counter
probe_driver_tick_overruns_total 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "probe_driver_tick_overruns_total")
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "probe_driver_step_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Registering the same collector twice is rejected.
	assert.Error(t, reg.Register(c))
}

func TestHandler(t *testing.T) {
	c := NewCollector("")
	c.ObserveTick(3, true, false)

	srv := httptest.NewServer(Handler(NewRegistry(c)))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "probe_ticks_total 1")
	assert.Contains(t, string(body), "probe_controller_state_code 3")
	assert.Contains(t, string(body), "go_goroutines")
}
