package scenario

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/forge-instruments/probe-go/pkg/config"
	"github.com/forge-instruments/probe-go/pkg/datatype"
	"github.com/forge-instruments/probe-go/pkg/probe"
	"github.com/forge-instruments/probe-go/pkg/register"
)

// Run executes sc on a fresh engine. Engine options such as a trace sink
// are passed through. The error is non-nil only when the scenario cannot
// be set up; unmet expectations are reported in the result.
func Run(sc *Scenario, opts ...probe.Option) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	params := probe.DefaultParams(sc.TicksPerSecond)
	rounding, err := datatype.ParseRounding(sc.Rounding)
	if err != nil {
		return nil, err
	}
	params.Controller.Rounding = rounding

	bank := register.NewBank(params.Layout)
	bank.Load(sc.Config)

	e, err := probe.New(bank, params, opts...)
	if err != nil {
		return nil, err
	}

	res := &Result{ID: sc.ID, Name: sc.Name, Passed: true}
	in := probe.Inputs{GlobalEnable: sc.Inputs.GlobalEnable, Feedback: sc.Inputs.Feedback}

	for i, st := range sc.Steps {
		if err := applyWrites(bank, st); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if st.Inputs != nil {
			if st.Inputs.GlobalEnable != nil {
				in.GlobalEnable = *st.Inputs.GlobalEnable
			}
			if st.Inputs.Feedback != nil {
				in.Feedback = *st.Inputs.Feedback
			}
		}

		n := st.TickCount()
		for k := 0; k < n; k++ {
			out := e.Step(in)
			res.Ticks++
			elapsed := e.Status().Elapsed

			if !st.Always.Empty() {
				res.check(i, st.Name, out, elapsed, st.Always)
			}
			if k == n-1 {
				res.check(i, st.Name, out, elapsed, st.Expect)
			}
		}
	}

	res.Passed = len(res.Failures) == 0
	return res, nil
}

func applyWrites(bank *register.Bank, st Step) error {
	names := make([]string, 0, len(st.Write))
	for name := range st.Write {
		names = append(names, name)
	}
	// Field order keeps overlapping custom layouts deterministic.
	sort.Strings(names)

	for _, name := range names {
		f, err := config.FieldByName(name)
		if err != nil {
			return err
		}
		v, err := toInt64(st.Write[name])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := bank.WriteField(f, v); err != nil {
			return err
		}
	}

	words := make([]int, 0, len(st.Words))
	for w := range st.Words {
		words = append(words, w)
	}
	sort.Ints(words)
	for _, w := range words {
		if err := bank.Write(w, st.Words[w]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Result) check(step int, name string, out probe.Outputs, elapsed uint64, e Expect) {
	fail := func(key, want, got string) {
		r.Failures = append(r.Failures, Failure{
			Step:     step + 1,
			StepName: name,
			Tick:     out.Tick,
			Key:      key,
			Expected: want,
			Actual:   got,
		})
	}
	checkInt := func(key string, want *int16, got int16) {
		if want != nil && *want != got {
			fail(key, strconv.Itoa(int(*want)), strconv.Itoa(int(got)))
		}
	}
	checkBool := func(key string, want *bool, got bool) {
		if want != nil && *want != got {
			fail(key, strconv.FormatBool(*want), strconv.FormatBool(got))
		}
	}

	if e.State != nil && !strings.EqualFold(*e.State, out.State.String()) {
		fail("state", strings.ToUpper(*e.State), out.State.String())
	}
	if e.Elapsed != nil && *e.Elapsed != elapsed {
		fail("elapsed", strconv.FormatUint(*e.Elapsed, 10), strconv.FormatUint(elapsed, 10))
	}
	checkInt("trigger", e.Trigger, out.Trigger)
	checkInt("intensity", e.Intensity, out.Intensity)
	checkInt("debug", e.Debug, out.Debug)
	checkBool("firing_complete", e.FiringComplete, out.FiringComplete)
	checkBool("monitor_latched", e.MonitorLatched, out.MonitorLatched)
	checkBool("fault", e.Fault, out.Fault)
	checkBool("ready", e.Ready, out.ReadyForUpdates)
	checkBool("committed", e.Committed, out.Committed)
}

// RunAll runs every scenario and collects the results. Setup errors stop
// the run.
func RunAll(scenarios []*Scenario, opts ...probe.Option) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, sc := range scenarios {
		res, err := Run(sc, opts...)
		if err != nil {
			return results, fmt.Errorf("%s: %w", sc.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}
