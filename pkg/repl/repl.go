// Package repl provides an interactive console for the regvm engine.
//
// Lines that are not commands accumulate as program source; `run` loads
// and executes the buffer. When the machine blocks on input the console
// says so; feed it with `in <n>` and `run` again to resume the same
// instruction.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/akhildatla/regvm/pkg/isa"
	"github.com/akhildatla/regvm/pkg/trace"
	"github.com/akhildatla/regvm/pkg/vm"
)

const prompt = "regvm> "

// REPL provides an interactive Read-Eval-Print Loop over one Vm.
type REPL struct {
	machine *vm.Vm
	tracer  *trace.Tracer
	source  strings.Builder
	loaded  bool
}

// New creates a REPL running the basic instruction set.
func New() *REPL {
	return NewWith(isa.Basic(), vm.Config{})
}

// NewWith creates a REPL over a custom instruction set and machine
// configuration; cfg.Parser is overridden with p.
func NewWith(p vm.Parser, cfg vm.Config) *REPL {
	cfg.Parser = p
	cfg.SuppressUnheardErrors = true
	return &REPL{machine: vm.New(cfg)}
}

// Start runs the REPL loop until EOF or `quit`.
func (r *REPL) Start(in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "regvm console")
	fmt.Fprintln(out, "Type 'help' for available commands, 'quit' to exit")
	fmt.Fprintln(out)

	for {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if r.handleCommand(line, out) {
			return
		}
	}
}

// handleCommand processes one line; it returns true when the REPL
// should exit.
func (r *REPL) handleCommand(line string, out io.Writer) bool {
	trimmed := strings.TrimSpace(line)
	parts := strings.Fields(trimmed)
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case "quit", "exit":
		return true

	case "help":
		r.printHelp(out)

	case "run":
		r.run(out)

	case "step":
		r.step(out)

	case "regs":
		r.printRegisters(out)

	case "in":
		if len(parts) != 2 {
			fmt.Fprintln(out, "usage: in <integer>")
			break
		}
		n, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			fmt.Fprintf(out, "not an integer: %s\n", parts[1])
			break
		}
		if err := r.machine.EnqueueInput(n); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}

	case "out":
		for _, v := range r.machine.DequeueAllOutput() {
			fmt.Fprintf(out, "%v\n", v)
		}

	case "list":
		fmt.Fprint(out, r.source.String())

	case "clear":
		r.source.Reset()
		r.loaded = false

	case "reset":
		r.machine.Reset()

	case "load":
		if len(parts) != 2 {
			fmt.Fprintln(out, "usage: load <file>")
			break
		}
		data, err := os.ReadFile(parts[1])
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			break
		}
		r.source.Reset()
		r.source.Write(data)
		r.loaded = false
		fmt.Fprintf(out, "loaded %s\n", parts[1])

	case "trace":
		if len(parts) == 2 && parts[1] == "on" {
			r.tracer = trace.Attach(r.machine)
			fmt.Fprintln(out, "tracing on")
			break
		}
		if r.tracer == nil {
			fmt.Fprintln(out, "tracing is off; use 'trace on' before running")
			break
		}
		fmt.Fprint(out, r.tracer.Table())

	default:
		// Not a command: program source.
		r.source.WriteString(line)
		r.source.WriteString("\n")
		r.loaded = false
	}

	return false
}

func (r *REPL) ensureLoaded(out io.Writer) bool {
	if r.loaded {
		return true
	}
	if strings.TrimSpace(r.source.String()) == "" {
		fmt.Fprintln(out, "no program; type instructions or 'load <file>' first")
		return false
	}
	if err := r.machine.Load(r.source.String()); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return false
	}
	r.loaded = true
	return true
}

func (r *REPL) run(out io.Writer) {
	if !r.ensureLoaded(out) {
		return
	}
	if err := r.machine.Run(); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	r.report(out)
}

func (r *REPL) step(out io.Writer) {
	if !r.ensureLoaded(out) {
		return
	}
	if err := r.machine.Step(); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(out, "ip=%d state=%s\n", r.machine.IP(), r.machine.State())
	if r.machine.State() == vm.StateBlocked {
		fmt.Fprintln(out, "blocked: feed input with 'in <n>', then 'run' or 'step'")
	}
}

func (r *REPL) report(out io.Writer) {
	switch r.machine.State() {
	case vm.StateTerminated:
		if err := r.machine.Err(); err != nil {
			fmt.Fprintf(out, "crashed: %v\n", err)
		} else {
			fmt.Fprintln(out, "terminated")
		}
		for _, v := range r.machine.DequeueAllOutput() {
			fmt.Fprintf(out, "%v\n", v)
		}
	case vm.StateBlocked:
		fmt.Fprintln(out, "blocked: feed input with 'in <n>', then 'run' to resume")
	default:
		fmt.Fprintf(out, "state=%s ip=%d\n", r.machine.State(), r.machine.IP())
	}
}

func (r *REPL) printRegisters(out io.Writer) {
	regs := r.machine.ExportRegisters()
	names := make([]string, 0, len(regs))
	for name := range regs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "%s = %v\n", name, regs[name])
	}
	fmt.Fprintf(out, "ip = %d\n", r.machine.IP())
}

func (r *REPL) printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  run           load the program buffer and run it")
	fmt.Fprintln(out, "  step          execute a single instruction")
	fmt.Fprintln(out, "  regs          show registers and instruction pointer")
	fmt.Fprintln(out, "  in <n>        enqueue an input value")
	fmt.Fprintln(out, "  out           drain and print the output queue")
	fmt.Fprintln(out, "  list          show the program buffer")
	fmt.Fprintln(out, "  clear         empty the program buffer")
	fmt.Fprintln(out, "  reset         reset the machine (keeps the program)")
	fmt.Fprintln(out, "  load <file>   replace the program buffer with a file")
	fmt.Fprintln(out, "  trace on      start recording an execution trace")
	fmt.Fprintln(out, "  trace         print the recorded trace")
	fmt.Fprintln(out, "  quit          exit")
	fmt.Fprintln(out, "Anything else is appended to the program buffer.")
}
