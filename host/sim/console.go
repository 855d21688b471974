package sim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"syringepump/core"
)

// Console interprets simulator commands, one per line.
type Console struct {
	sim    *Sim
	out    io.Writer
	prompt bool
}

// NewConsole returns a console writing its replies to out. With prompt set
// a "> " is printed before each line is read.
func NewConsole(s *Sim, out io.Writer, prompt bool) *Console {
	return &Console{sim: s, out: out, prompt: prompt}
}

// errQuit ends Run without an error
var errQuit = errors.New("quit")

// Run executes every line of r until EOF or quit. Command errors are
// reported on the output and do not stop the loop.
func (c *Console) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for {
		if c.prompt {
			fmt.Fprint(c.out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		err := c.Exec(scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

// Exec runs a single command line
func (c *Console) Exec(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "quit", "exit", "q":
		return errQuit

	case "help", "?":
		c.printHelp()
		return nil

	case "write", "w":
		if len(args) != 2 {
			return errors.New("usage: write <register> <value>")
		}
		return c.write(args[0], args[1])

	case "read", "r":
		if len(args) != 1 {
			return errors.New("usage: read <register>")
		}
		return c.read(args[0])

	case "regs":
		for _, info := range core.Registers() {
			if err := c.read(info.Name); err != nil {
				return err
			}
		}
		return nil

	case "press", "release":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <push|pull|reset>", cmd)
		}
		line, err := buttonLine(args[0])
		if err != nil {
			return err
		}
		// buttons are active low
		c.sim.Lines.SetInput(line, cmd == "release")
		return nil

	case "switch":
		if len(args) != 2 {
			return errors.New("usage: switch <forward|reverse> <on|off>")
		}
		on, err := onOff(args[1])
		if err != nil {
			return err
		}
		switch args[0] {
		case "forward":
			c.sim.Lines.SetInput(core.LineSwForward, on)
		case "reverse":
			c.sim.Lines.SetInput(core.LineSwReverse, on)
		default:
			return fmt.Errorf("unknown switch %q", args[0])
		}
		return nil

	case "input":
		if len(args) != 1 {
			return errors.New("usage: input <on|off>")
		}
		on, err := onOff(args[0])
		if err != nil {
			return err
		}
		c.sim.Lines.SetInput(core.LineIn0, on)
		return nil

	case "external":
		if len(args) != 1 {
			return errors.New("usage: external <on|off>")
		}
		on, err := onOff(args[0])
		if err != nil {
			return err
		}
		// EN_DRIVER_UC is active low
		c.sim.Lines.SetInput(core.LineEnDriverUC, !on)
		return nil

	case "tick":
		n := 1
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return fmt.Errorf("invalid tick count %q", args[0])
			}
			n = v
		}
		c.sim.Advance(n)
		return nil

	case "run":
		if len(args) != 1 {
			return errors.New("usage: run <duration>")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil || d < 0 {
			return fmt.Errorf("invalid duration %q", args[0])
		}
		c.sim.Advance(c.sim.Ticks(d))
		return nil

	case "events":
		for _, e := range c.sim.Events.Drain() {
			fmt.Fprintf(c.out, "event tick=%d %s=%d\n", e.Tick, e.Address, e.Value)
		}
		if n := c.sim.Events.Dropped(); n > 0 {
			fmt.Fprintf(c.out, "%d events dropped\n", n)
		}
		return nil

	case "trace":
		for _, evt := range c.sim.Dev.Trace() {
			fmt.Fprintf(c.out, "%8d %-12s %d %d\n", evt.Tick, core.TraceName(evt.Kind), evt.Value1, evt.Value2)
		}
		return nil

	case "state":
		c.printState()
		return nil

	case "defaults":
		return c.sim.Dev.ResetRegisters()

	case "fault":
		c.sim.Dev.Fault()
		fmt.Fprintln(c.out, "outputs driven to safe state")
		return nil
	}

	return fmt.Errorf("unknown command %q (type 'help' for available commands)", parts[0])
}

func (c *Console) write(name, value string) error {
	info, err := findRegister(name)
	if err != nil {
		return err
	}
	switch info.Type {
	case core.TypeU8:
		v, err := strconv.ParseUint(value, 0, 8)
		if err != nil {
			return fmt.Errorf("%s: %w", info.Name, err)
		}
		return c.sim.Dev.WriteU8(info.Address, uint8(v))
	case core.TypeU16:
		v, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("%s: %w", info.Name, err)
		}
		return c.sim.Dev.WriteU16(info.Address, uint16(v))
	default:
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return fmt.Errorf("%s: %w", info.Name, err)
		}
		return c.sim.Dev.WriteFloat(info.Address, float32(v))
	}
}

func (c *Console) read(name string) error {
	info, err := findRegister(name)
	if err != nil {
		return err
	}
	switch info.Type {
	case core.TypeU8:
		v, err := c.sim.Dev.ReadU8(info.Address)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s = %d\n", info.Name, v)
	case core.TypeU16:
		v, err := c.sim.Dev.ReadU16(info.Address)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s = %d\n", info.Name, v)
	default:
		v, err := c.sim.Dev.ReadFloat(info.Address)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s = %g\n", info.Name, v)
	}
	return nil
}

func (c *Console) printState() {
	st := c.sim.Dev.Status()
	fmt.Fprintf(c.out, "tick=%d dir=%s step=%t driver=%t\n", st.Tick, st.Direction, st.StepHigh, st.DriverEnabled)
	fmt.Fprintf(c.out, "protocol=%t remaining=%d homing=%t external=%t faulted=%t\n",
		st.ProtocolRunning, st.Remaining, st.Homing, st.External, st.Faulted)
	fmt.Fprintf(c.out, "switches fwd=%t rev=%t input=%t outputs=%02b\n",
		st.SwitchForward, st.SwitchReverse, st.Input, st.Outputs)
	fmt.Fprintf(c.out, "steps=%d dropped=%d pulses=%d\n", st.Steps, st.Dropped, c.sim.Lines.StepCount())
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, "Available commands:")
	fmt.Fprintln(c.out, "  write <reg> <value>          - Write a register (name or address)")
	fmt.Fprintln(c.out, "  read <reg>                   - Read a register")
	fmt.Fprintln(c.out, "  regs                         - Read every register")
	fmt.Fprintln(c.out, "  press|release <button>       - push, pull or reset")
	fmt.Fprintln(c.out, "  switch <forward|reverse> <on|off>")
	fmt.Fprintln(c.out, "  input <on|off>               - Drive digital input 0")
	fmt.Fprintln(c.out, "  external <on|off>            - External controller takeover")
	fmt.Fprintln(c.out, "  tick [n]                     - Advance n ticks")
	fmt.Fprintln(c.out, "  run <duration>               - Advance by a duration, e.g. 250ms")
	fmt.Fprintln(c.out, "  events                       - Print pending events")
	fmt.Fprintln(c.out, "  trace                        - Dump the timing ring")
	fmt.Fprintln(c.out, "  state                        - Engine summary")
	fmt.Fprintln(c.out, "  defaults                     - Restore register defaults")
	fmt.Fprintln(c.out, "  fault                        - Drive outputs to the safe state")
	fmt.Fprintln(c.out, "  quit                         - Exit")
}

// findRegister accepts a register name in any case or a numeric address
func findRegister(name string) (core.RegisterInfo, error) {
	if info, ok := core.LookupRegister(strings.ToUpper(name)); ok {
		return info, nil
	}
	addr, err := strconv.ParseUint(name, 0, 8)
	if err == nil {
		for _, info := range core.Registers() {
			if info.Address == core.Address(addr) {
				return info, nil
			}
		}
	}
	return core.RegisterInfo{}, fmt.Errorf("unknown register %q", name)
}

func buttonLine(name string) (core.Line, error) {
	switch name {
	case "push":
		return core.LineButPush, nil
	case "pull":
		return core.LineButPull, nil
	case "reset":
		return core.LineButReset, nil
	}
	return 0, fmt.Errorf("unknown button %q", name)
}

func onOff(s string) (bool, error) {
	switch s {
	case "on", "1":
		return true, nil
	case "off", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
