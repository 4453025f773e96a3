// Package metrics exposes probe core telemetry as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "probe"

// Collector holds the probe metrics. It implements prometheus.Collector so
// it can be registered with any registry.
type Collector struct {
	ticks        prometheus.Counter
	transitions  *prometheus.CounterVec
	faults       *prometheus.CounterVec
	commits      prometheus.Counter
	stalls       prometheus.Counter
	overruns     prometheus.Counter
	state        prometheus.Gauge
	latched      prometheus.Gauge
	stepDuration prometheus.Histogram
}

// NewCollector creates the probe metrics under namespace. An empty
// namespace selects DefaultNamespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Collector{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total ticks evaluated.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "transitions_total",
			Help:      "Controller state transitions.",
		}, []string{"from", "to", "reason"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "faults_total",
			Help:      "Fault entries by the check that fired.",
		}, []string{"check"}),
		commits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "commits_total",
			Help:      "Ticks on which the raw configuration was committed.",
		}),
		stalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "stalls_total",
			Help:      "Ticks on which committing was withheld.",
		}),
		overruns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "tick_overruns_total",
			Help:      "Ticks that started later than their period.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "state_code",
			Help:      "Current controller state code.",
		}),
		latched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "controller",
			Name:      "monitor_latched",
			Help:      "1 while the monitor latch is set.",
		}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "step_duration_seconds",
			Help:      "Wall-clock time spent evaluating one tick.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
	}
}

func (c *Collector) all() []prometheus.Collector {
	return []prometheus.Collector{
		c.ticks, c.transitions, c.faults, c.commits, c.stalls,
		c.overruns, c.state, c.latched, c.stepDuration,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.all() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.all() {
		m.Collect(ch)
	}
}

// ObserveTick records the outcome of one tick.
func (c *Collector) ObserveTick(code uint8, committed, monitorLatched bool) {
	c.ticks.Inc()
	c.state.Set(float64(code))
	if committed {
		c.commits.Inc()
	} else {
		c.stalls.Inc()
	}
	if monitorLatched {
		c.latched.Set(1)
	} else {
		c.latched.Set(0)
	}
}

// ObserveTransition records a state change.
func (c *Collector) ObserveTransition(from, to, reason string) {
	c.transitions.WithLabelValues(from, to, reason).Inc()
}

// ObserveFault records a fault entry.
func (c *Collector) ObserveFault(check string) {
	if check == "" {
		check = "unknown"
	}
	c.faults.WithLabelValues(check).Inc()
}

// ObserveOverrun records a late tick.
func (c *Collector) ObserveOverrun() {
	c.overruns.Inc()
}

// ObserveStepDuration records how long one tick took to evaluate.
func (c *Collector) ObserveStepDuration(d time.Duration) {
	c.stepDuration.Observe(d.Seconds())
}

// NewRegistry returns a registry holding c and the Go runtime collectors.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(c, collectors.NewGoCollector())
	return reg
}

// Handler serves the metrics in reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Compile-time interface satisfaction check.
var _ prometheus.Collector = (*Collector)(nil)
