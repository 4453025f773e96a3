// Package interactive provides the interactive command-line interface
// for probe-sim.
package interactive

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"

	"github.com/forge-instruments/probe-go/pkg/config"
	"github.com/forge-instruments/probe-go/pkg/probe"
	"github.com/forge-instruments/probe-go/pkg/register"
)

// Target is what the shell operates on.
type Target struct {
	Engine *probe.Engine
	Bank   *register.Bank
	Inputs *probe.InputLatch
}

// Shell handles interactive mode for probe-sim.
type Shell struct {
	rl  *readline.Instance
	out io.Writer
	t   Target
}

// New creates a shell reading from the terminal.
func New() (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "probe> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{rl: rl, out: rl.Stdout()}, nil
}

func completer() readline.AutoCompleter {
	fields := make([]readline.PrefixCompleterInterface, 0, len(config.Fields()))
	for _, f := range config.Fields() {
		fields = append(fields, readline.PcItem(f.String()))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("status"),
		readline.PcItem("read", append([]readline.PrefixCompleterInterface{readline.PcItem("all")}, fields...)...),
		readline.PcItem("write", fields...),
		readline.PcItem("word"),
		readline.PcItem("layout"),
		readline.PcItem("timing"),
		readline.PcItem("table"),
		readline.PcItem("enable", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem("feedback"),
		readline.PcItem("arm"),
		readline.PcItem("disarm"),
		readline.PcItem("trigger"),
		readline.PcItem("release"),
		readline.PcItem("clear"),
		readline.PcItem("reset"),
		readline.PcItem("load"),
		readline.PcItem("save"),
		readline.PcItem("quit"),
	)
}

// Stdout returns a writer that coordinates with the readline prompt.
func (s *Shell) Stdout() io.Writer {
	if s.rl == nil {
		return s.out
	}
	return s.rl.Stdout()
}

// Stderr returns a writer that coordinates with the readline prompt. Log
// output should go here to avoid corrupting the prompt.
func (s *Shell) Stderr() io.Writer {
	if s.rl == nil {
		return s.out
	}
	return s.rl.Stderr()
}

// Run starts the command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc, t Target) {
	defer s.rl.Close()
	s.t = t

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if !s.Execute(line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the shell should
// exit.
func (s *Shell) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "status", "s":
		s.cmdStatus()
	case "read", "r":
		s.cmdRead(args)
	case "write", "w":
		s.cmdWrite(args)
	case "word":
		s.cmdWord(args)
	case "layout":
		if err := s.t.Engine.Layout().WriteTable(s.out); err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	case "timing":
		s.cmdTiming()
	case "table":
		s.cmdTable()
	case "enable", "en":
		s.cmdEnable(args)
	case "feedback", "fb":
		s.cmdFeedback(args)
	case "arm":
		s.writeField(config.FieldArmEnable, 1)
	case "disarm":
		s.writeField(config.FieldArmEnable, 0)
	case "trigger", "fire":
		s.writeField(config.FieldExtTrigger, 1)
	case "release":
		s.writeField(config.FieldExtTrigger, 0)
	case "clear":
		s.cmdClear()
	case "reset":
		s.t.Engine.Reset()
		fmt.Fprintln(s.out, "Engine reset")
	case "load":
		s.cmdLoad(args)
	case "save":
		s.cmdSave(args)
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return false
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
Probe Commands:
  Inspection:
    status               - Show state, outputs and counters
    read <field>|all     - Show raw and committed values
    word <n> [value]     - Read or write a raw register word
    layout               - Show the register layout
    timing               - Show committed durations in ticks
    table                - Show the observer code table

  Configuration:
    write <field> <val>  - Write a raw field (numbers, true/false, on/off)
    arm | disarm         - Set or clear arm_enable
    trigger | release    - Set or clear ext_trigger
    clear                - Toggle fault_clear (a rising edge clears Fault)
    load <file>          - Load raw configuration from YAML
    save <file>          - Save raw configuration to YAML

  Inputs:
    enable on|off        - Set global enable
    feedback <code>      - Set the monitor feedback code

  General:
    reset                - Reset the engine to power-on state
    help                 - Show this help
    quit                 - Exit`)
}

func (s *Shell) cmdStatus() {
	st := s.t.Engine.Status()
	in := s.t.Inputs.Inputs()
	out := st.Last

	fmt.Fprintf(s.out, "Run:        %s\n", st.RunID)
	fmt.Fprintf(s.out, "Tick:       %d\n", st.Tick)
	fmt.Fprintf(s.out, "State:      %s (code %d, elapsed %d)\n", st.State, st.State.Code(), st.Elapsed)
	fmt.Fprintf(s.out, "Enable:     %t\n", in.GlobalEnable)
	fmt.Fprintf(s.out, "Feedback:   %d\n", in.Feedback)
	fmt.Fprintf(s.out, "Trigger:    %d\n", out.Trigger)
	fmt.Fprintf(s.out, "Intensity:  %d\n", out.Intensity)
	fmt.Fprintf(s.out, "Debug:      %d (%d mV)\n", out.Debug, s.t.Engine.Observer().Millivolts(out.Debug))
	fmt.Fprintf(s.out, "Ready:      %t\n", out.ReadyForUpdates)
	fmt.Fprintf(s.out, "Monitor:    latched=%t\n", out.MonitorLatched)
	fmt.Fprintf(s.out, "Commits:    %d (stalls %d)\n", st.Commits, st.Stalls)
	fmt.Fprintf(s.out, "Faults:     %d\n", st.Faults)
	if tr := st.LastTransition; tr != nil {
		fmt.Fprintf(s.out, "Last:       %s -> %s (%s) at tick %d", tr.From, tr.To, tr.Reason, tr.Tick)
		if tr.Check != "" {
			fmt.Fprintf(s.out, " [%s]", tr.Check)
		}
		fmt.Fprintln(s.out)
	}
}

func (s *Shell) cmdRead(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: read <field>|all")
		return
	}

	fields := config.Fields()
	if args[0] != "all" {
		f, err := config.FieldByName(args[0])
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fields = []config.Field{f}
	}

	raw := s.t.Bank.Config()
	committed := s.t.Engine.Status().Committed

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tRAW\tCOMMITTED\tTYPE")
	for _, f := range fields {
		mark := ""
		if raw.Value(f) != committed.Value(f) {
			mark = " *"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d%s\t%s\n", f, raw.Value(f), committed.Value(f), mark, f.Type())
	}
	_ = tw.Flush()
}

func (s *Shell) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: write <field> <value>")
		fmt.Fprintln(s.out, "  Example: write trig_out_voltage 2500")
		return
	}

	f, err := config.FieldByName(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	v, err := parseValue(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid value: %v\n", err)
		return
	}
	s.writeField(f, v)
}

func (s *Shell) writeField(f config.Field, v int64) {
	if err := s.t.Bank.WriteField(f, v); err != nil {
		fmt.Fprintf(s.out, "Write failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "%s = %d\n", f, v)
}

func (s *Shell) cmdWord(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: word <n> [value]")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid word index: %s\n", args[0])
		return
	}

	if len(args) == 1 {
		v, err := s.t.Bank.Read(n)
		if err != nil {
			fmt.Fprintf(s.out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "word %d = 0x%08X\n", n, v)
		return
	}

	v, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid value: %s\n", args[1])
		return
	}
	if err := s.t.Bank.Write(n, uint32(v)); err != nil {
		fmt.Fprintf(s.out, "Write failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "word %d = 0x%08X\n", n, v)
}

func (s *Shell) cmdTiming() {
	tm := s.t.Engine.Timing(s.t.Engine.Status().Committed)
	fmt.Fprintf(s.out, "Trigger pulse:   %d ticks\n", tm.TrigOut)
	fmt.Fprintf(s.out, "Intensity pulse: %d ticks\n", tm.Intensity)
	fmt.Fprintf(s.out, "Firing:          %d ticks\n", tm.Firing())
	fmt.Fprintf(s.out, "Arm timeout:     %d ticks\n", tm.ArmTimeout)
	fmt.Fprintf(s.out, "Cooldown:        %d ticks\n", tm.Cooldown)
	fmt.Fprintf(s.out, "Monitor window:  %d +%d ticks\n", tm.WindowStart, tm.WindowLength)
}

func (s *Shell) cmdTable() {
	obs := s.t.Engine.Observer()
	p := obs.Params()
	fmt.Fprintf(s.out, "Codes: %d, fault threshold %d, sign flip %t\n", p.TotalCodes, p.FaultThreshold, obs.SignFlip())
	for i, v := range obs.Table() {
		if i >= p.FaultThreshold {
			break
		}
		fmt.Fprintf(s.out, "  %2d: %6d (%d mV)\n", i, v, obs.Millivolts(v))
	}
}

func (s *Shell) cmdEnable(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(s.out, "Enable: %t\n", s.t.Inputs.Inputs().GlobalEnable)
		return
	}
	v, err := parseValue(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "Usage: enable on|off")
		return
	}
	s.t.Inputs.SetGlobalEnable(v != 0)
	fmt.Fprintf(s.out, "Enable: %t\n", v != 0)
}

func (s *Shell) cmdFeedback(args []string) {
	if len(args) < 1 {
		fmt.Fprintf(s.out, "Feedback: %d\n", s.t.Inputs.Inputs().Feedback)
		return
	}
	v, err := strconv.ParseInt(args[0], 0, 16)
	if err != nil {
		fmt.Fprintf(s.out, "Invalid feedback code: %s\n", args[0])
		return
	}
	s.t.Inputs.SetFeedback(int16(v))
	fmt.Fprintf(s.out, "Feedback: %d\n", v)
}

func (s *Shell) cmdClear() {
	if s.t.Bank.Config().FaultClear {
		s.writeField(config.FieldFaultClear, 0)
		fmt.Fprintln(s.out, "fault_clear released; run clear again to send an edge")
		return
	}
	s.writeField(config.FieldFaultClear, 1)
}

func (s *Shell) cmdLoad(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: load <file>")
		return
	}
	cfg, err := config.Load(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Load failed: %v\n", err)
		return
	}
	s.t.Bank.Load(cfg)
	fmt.Fprintf(s.out, "Loaded %s\n", args[0])
}

func (s *Shell) cmdSave(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: save <file>")
		return
	}
	data, err := config.Marshal(s.t.Bank.Config())
	if err != nil {
		fmt.Fprintf(s.out, "Save failed: %v\n", err)
		return
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		fmt.Fprintf(s.out, "Save failed: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Saved %s\n", args[0])
}

// parseValue accepts integers in any base strconv understands and boolean
// words.
func parseValue(s string) (int64, error) {
	switch strings.ToLower(s) {
	case "true", "on", "yes":
		return 1, nil
	case "false", "off", "no":
		return 0, nil
	}
	return strconv.ParseInt(s, 0, 64)
}
