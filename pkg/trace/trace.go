// Package trace records VM execution history into a dataframe for
// inspection and export.
//
// A Tracer subscribes to the engine's step hooks and appends one row per
// executed cycle: the step index, the instruction pointer, the opcode
// token (or a patch marker), and a snapshot of each traced register.
// Patched offsets still appear because the step hooks fire for them; the
// operation hooks, which do not fire for patches, are how the tracer
// tells the two apart.
package trace

import (
	"context"
	"fmt"
	"io"
	"sort"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"

	"github.com/akhildatla/regvm/pkg/vm"
)

// Tracer accumulates one row per executed cycle of a single Vm.
type Tracer struct {
	regNames []string

	steps  []int64
	ips    []int64
	tokens []string
	regs   map[string][]string

	pendingIP int
	opFired   bool
	step      int64
}

// Attach creates a Tracer and subscribes it to v. The given register
// names become the trace's register columns; with none given, the
// registers declared on v at attach time are traced (in lazy-register
// mode, name the registers explicitly since they may not exist yet).
func Attach(v *vm.Vm, registers ...string) *Tracer {
	if len(registers) == 0 {
		for name := range v.ExportRegisters() {
			registers = append(registers, name)
		}
		sort.Strings(registers)
	}

	t := &Tracer{
		regNames: registers,
		regs:     make(map[string][]string, len(registers)),
	}

	v.Subscribe(vm.HookBeforeStep, func(v *vm.Vm) {
		t.pendingIP = v.IP()
		t.opFired = false
	})
	v.Subscribe(vm.HookBeforeOp, func(v *vm.Vm) {
		t.opFired = true
	})
	v.Subscribe(vm.HookAfterStep, func(v *vm.Vm) {
		t.record(v)
	})

	return t
}

func (t *Tracer) record(v *vm.Vm) {
	t.steps = append(t.steps, t.step)
	t.step++
	t.ips = append(t.ips, int64(t.pendingIP))
	t.tokens = append(t.tokens, t.token(v))

	snapshot := v.ExportRegisters()
	for _, name := range t.regNames {
		val, ok := snapshot[name]
		s := "0"
		if ok {
			s = fmt.Sprintf("%v", val)
		}
		t.regs[name] = append(t.regs[name], s)
	}
}

func (t *Tracer) token(v *vm.Vm) string {
	if !t.opFired {
		return "(patch)"
	}
	switch prog := v.Program().(type) {
	case *vm.ListProgram:
		return prog.Token(t.pendingIP)
	case *vm.MemProgram:
		cell, err := prog.Get(t.pendingIP)
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%d", cell)
	default:
		return ""
	}
}

// Len returns the number of recorded rows.
func (t *Tracer) Len() int { return len(t.steps) }

// Frame builds the trace as a dataframe with columns step, ip, op, and
// one column per traced register.
func (t *Tracer) Frame() *dataframe.DataFrame {
	series := []dataframe.Series{
		dataframe.NewSeriesInt64("step", nil, anySlice(t.steps)...),
		dataframe.NewSeriesInt64("ip", nil, anySlice(t.ips)...),
		dataframe.NewSeriesString("op", nil, anyStrings(t.tokens)...),
	}
	for _, name := range t.regNames {
		series = append(series, dataframe.NewSeriesString(name, nil, anyStrings(t.regs[name])...))
	}
	return dataframe.NewDataFrame(series...)
}

// Table renders the trace as a human-readable table.
func (t *Tracer) Table() string {
	return t.Frame().Table()
}

// WriteCSV writes the trace as CSV.
func (t *Tracer) WriteCSV(w io.Writer) error {
	return exports.ExportToCSV(context.Background(), w, t.Frame())
}

func anySlice(vals []int64) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func anyStrings(vals []string) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}
