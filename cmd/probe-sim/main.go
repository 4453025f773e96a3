// Command probe-sim runs the probe control core in software.
//
// The core is stepped from a wall-clock ticker. Raw configuration comes from
// a YAML file and can be changed at runtime from the interactive shell.
// Scenario files can be run instead, in which case a pass/fail report is
// printed and the exit status reflects the outcome.
//
// Usage:
//
//	probe-sim [flags]
//
// Flags:
//
//	-config string          Raw configuration file (YAML)
//	-ticks-per-second uint  Controller tick rate used for duration conversion (default 1000)
//	-rate duration          Wall-clock interval between ticks (default 1ms)
//	-ticks uint             Stop after this many ticks (0 runs until interrupted)
//	-rounding string        Duration rounding: nearest, up, down (default "nearest")
//	-enable                 Initial global enable (default true)
//	-trace string           Write CBOR trace events to this file (.plog)
//	-trace-samples          Include one sample event per tick in the trace
//	-log-level string       Log level: debug, info, warn, error (default "info")
//	-metrics-addr string    Serve Prometheus metrics on this address
//	-scenario string        Run a scenario file or directory and exit
//	-json                   Print the scenario report as JSON
//	-interactive            Start the interactive shell
//
// Examples:
//
//	# Run the shipped scenarios
//	probe-sim -scenario pkg/scenario/testdata
//
//	# Run at 1 kHz with an interactive shell and a trace
//	probe-sim -config probe.yaml -interactive -trace run.plog
//
//	# Expose metrics while running
//	probe-sim -config probe.yaml -metrics-addr :9090
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/forge-instruments/probe-go/cmd/probe-sim/interactive"
	"github.com/forge-instruments/probe-go/pkg/config"
	"github.com/forge-instruments/probe-go/pkg/datatype"
	plog "github.com/forge-instruments/probe-go/pkg/log"
	"github.com/forge-instruments/probe-go/pkg/metrics"
	"github.com/forge-instruments/probe-go/pkg/probe"
	"github.com/forge-instruments/probe-go/pkg/register"
	"github.com/forge-instruments/probe-go/pkg/scenario"
)

// Options holds the command-line configuration.
type Options struct {
	ConfigFile     string
	TicksPerSecond uint64
	Rate           time.Duration
	Ticks          uint64
	Rounding       string
	Enable         bool
	TraceFile      string
	TraceSamples   bool
	LogLevel       string
	MetricsAddr    string
	Scenario       string
	JSON           bool
	Interactive    bool
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigFile, "config", "", "Raw configuration file (YAML)")
	flag.Uint64Var(&opts.TicksPerSecond, "ticks-per-second", 1000, "Controller tick rate used for duration conversion")
	flag.DurationVar(&opts.Rate, "rate", time.Millisecond, "Wall-clock interval between ticks")
	flag.Uint64Var(&opts.Ticks, "ticks", 0, "Stop after this many ticks (0 runs until interrupted)")
	flag.StringVar(&opts.Rounding, "rounding", "nearest", "Duration rounding: nearest, up, down")
	flag.BoolVar(&opts.Enable, "enable", true, "Initial global enable")
	flag.StringVar(&opts.TraceFile, "trace", "", "Write CBOR trace events to this file (.plog)")
	flag.BoolVar(&opts.TraceSamples, "trace-samples", false, "Include one sample event per tick in the trace")
	flag.StringVar(&opts.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&opts.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	flag.StringVar(&opts.Scenario, "scenario", "", "Run a scenario file or directory and exit")
	flag.BoolVar(&opts.JSON, "json", false, "Print the scenario report as JSON")
	flag.BoolVar(&opts.Interactive, "interactive", false, "Start the interactive shell")
}

func main() {
	flag.Parse()

	if err := validateOptions(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
		os.Exit(2)
	}

	var code int
	if opts.Scenario != "" {
		code = runScenarios(opts, os.Stdout)
	} else {
		code = runEngine(opts)
	}
	os.Exit(code)
}

func validateOptions(o Options) error {
	if o.TicksPerSecond == 0 {
		return errors.New("ticks-per-second must be positive")
	}
	if o.Rate <= 0 {
		return errors.New("rate must be positive")
	}
	if _, err := datatype.ParseRounding(o.Rounding); err != nil {
		return err
	}
	if _, err := parseLevel(o.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, _ := parseLevel(level)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// openTrace returns the trace sink for o and a function that closes it.
func openTrace(o Options) (plog.Logger, func(), error) {
	if o.TraceFile == "" {
		return plog.NoopLogger{}, func() {}, nil
	}
	fl, err := plog.NewFileLogger(o.TraceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace: %w", err)
	}
	return fl, func() { _ = fl.Close() }, nil
}

func loadScenarios(path string) ([]*scenario.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return scenario.LoadDirectory(path)
	}
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	return []*scenario.Scenario{sc}, nil
}

func runScenarios(o Options, out io.Writer) int {
	logger := newLogger(os.Stderr, o.LogLevel)

	scenarios, err := loadScenarios(o.Scenario)
	if err != nil {
		logger.Error("failed to load scenarios", "error", err)
		return 2
	}

	trace, closeTrace, err := openTrace(o)
	if err != nil {
		logger.Error("failed to open trace", "error", err)
		return 2
	}
	defer closeTrace()

	results, err := scenario.RunAll(scenarios,
		probe.WithLogger(logger),
		probe.WithTrace(trace),
		probe.WithTraceSamples(o.TraceSamples))
	if err != nil {
		logger.Error("scenario run failed", "error", err)
		return 2
	}

	if o.JSON {
		if err := scenario.WriteJSON(out, results, true); err != nil {
			logger.Error("failed to write report", "error", err)
			return 2
		}
	} else {
		scenario.WriteText(out, results, o.LogLevel == "debug")
	}

	if scenario.Summarize(results).Failed > 0 {
		return 1
	}
	return 0
}

func runEngine(o Options) int {
	var shell *interactive.Shell
	logOut := io.Writer(os.Stderr)
	if o.Interactive {
		var err error
		shell, err = interactive.New()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start shell: %v\n", err)
			return 2
		}
		logOut = shell.Stderr()
	}
	logger := newLogger(logOut, o.LogLevel)

	cfg := config.SafeDefaults()
	if o.ConfigFile != "" {
		var err error
		cfg, err = config.Load(o.ConfigFile)
		if err != nil {
			logger.Error("failed to load configuration", "error", err)
			return 2
		}
	}

	params := probe.DefaultParams(o.TicksPerSecond)
	params.Controller.Rounding, _ = datatype.ParseRounding(o.Rounding)

	bank := register.NewBank(params.Layout)
	bank.Load(cfg)

	trace, closeTrace, err := openTrace(o)
	if err != nil {
		logger.Error("failed to open trace", "error", err)
		return 2
	}
	defer closeTrace()

	engineOpts := []probe.Option{
		probe.WithLogger(logger),
		probe.WithTrace(trace),
		probe.WithTraceSamples(o.TraceSamples),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if o.MetricsAddr != "" {
		collector := metrics.NewCollector("")
		engineOpts = append(engineOpts, probe.WithMetrics(collector))
		srv := serveMetrics(o.MetricsAddr, collector, logger)
		defer shutdown(srv)
	}

	engine, err := probe.New(bank, params, engineOpts...)
	if err != nil {
		logger.Error("failed to create engine", "error", err)
		return 2
	}

	logger.Info("probe-sim starting",
		"run_id", engine.RunID(),
		"ticks_per_second", o.TicksPerSecond,
		"rate", o.Rate,
		"config", o.ConfigFile)

	inputs := probe.NewInputLatch(probe.Inputs{GlobalEnable: o.Enable})

	done := make(chan error, 1)
	go func() {
		done <- engine.Run(ctx, o.Rate, inputs, o.Ticks)
	}()

	if shell != nil {
		go shell.Run(ctx, cancel, interactive.Target{Engine: engine, Bank: bank, Inputs: inputs})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("engine stopped", "error", err)
			return 1
		}
	}

	s := engine.Status()
	logger.Info("probe-sim stopped", "ticks", s.Tick, "state", s.State.String(), "faults", s.Faults)
	return 0
}

func serveMetrics(addr string, c *metrics.Collector, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(metrics.NewRegistry(c)))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
