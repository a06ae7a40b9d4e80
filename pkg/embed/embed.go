// Package embed provides the one-call Go embedding API for regvm.
//
// Pass a program and its input values, get the output values. The
// default instruction set is isa.Basic; anything else goes through
// Options.
//
// Basic usage:
//
//	out, err := embed.Run(`
//	    set a 3
//	    add a 4
//	    out a
//	`, nil)
//
// With options:
//
//	out, err := embed.RunWithOptions(source, embed.Options{
//	    Parser: isa.Mem(),
//	    Advance: vm.AdvanceNever,
//	    Inputs: []int64{5},
//	})
package embed

import (
	"errors"

	"github.com/akhildatla/regvm/pkg/isa"
	"github.com/akhildatla/regvm/pkg/vm"
)

// Common errors
var (
	// ErrStarved means the program blocked on input after consuming
	// everything the caller supplied.
	ErrStarved = errors.New("program blocked with no input left")
)

// Run executes source on the basic instruction set with the given input
// values queued, runs to termination, and returns the drained output.
func Run(source string, inputs []int64) ([]int64, error) {
	return RunWithOptions(source, Options{Inputs: inputs})
}

// Options configures execution behavior for RunWithOptions.
type Options struct {
	// Parser is the instruction set. Nil means isa.Basic().
	Parser vm.Parser

	// Advance is the IP auto-advance policy.
	Advance vm.AdvanceMode

	// BigInt selects the arbitrary-precision numeric domain.
	BigInt bool

	// Registers fixes the register set (strict mode) when non-nil.
	Registers []string

	// Inputs is queued before the run starts.
	Inputs []int64
}

// RunWithOptions builds a Vm, loads source, seeds the input queue, runs
// the program to termination, and returns the drained output values.
// A program that crashes returns the recorded error; a program that
// blocks after exhausting its input fails with ErrStarved.
func RunWithOptions(source string, opts Options) ([]int64, error) {
	parser := opts.Parser
	if parser == nil {
		parser = isa.Basic()
	}

	machine := vm.New(vm.Config{
		Parser:    parser,
		Advance:   opts.Advance,
		BigInt:    opts.BigInt,
		Registers: opts.Registers,
		// Supervised: inspect machine.Err() after the run instead of
		// having Run re-raise it.
		SuppressUnheardErrors: true,
	})

	if err := machine.Load(source); err != nil {
		return nil, err
	}
	for _, in := range opts.Inputs {
		if err := machine.EnqueueInput(in); err != nil {
			return nil, err
		}
	}

	for {
		if err := machine.Run(); err != nil {
			return nil, err
		}
		switch machine.State() {
		case vm.StateTerminated:
			if err := machine.Err(); err != nil {
				return nil, err
			}
			return drain(machine)
		case vm.StateBlocked:
			return nil, ErrStarved
		case vm.StateReady:
			// A hook halted the run; resume.
		}
	}
}

func drain(machine *vm.Vm) ([]int64, error) {
	raw := machine.DequeueAllOutput()
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		n, err := machine.ToInt(v)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
