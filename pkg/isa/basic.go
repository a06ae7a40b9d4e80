// Package isa provides instruction sets for the regvm engine.
//
// Each instruction set is a plugin: a function that registers opcode
// handlers on a Parser and returns it. Handlers resolve reg-or-literal
// operands with Vm.Eval and do arithmetic through the Vm's domain
// helpers, so every set works unchanged in both the int64 and the
// arbitrary-precision domains.
package isa

import (
	"fmt"

	"github.com/akhildatla/regvm/pkg/vm"
)

// Basic returns a text parser for a small general-purpose register
// machine:
//
//	set r x    r = x
//	add r x    r += x
//	sub r x    r -= x
//	mul r x    r *= x
//	mod r x    r %= x
//	jgz x y    if x > 0, jump y instructions relative
//	jnz x y    if x != 0, jump y instructions relative
//	in  r      r = next input value (blocks when none is queued)
//	out x      append x to the output queue
//	nop        do nothing
//	hlt        terminate normally
//
// Operands written as integers are literals; anything else names a
// register.
func Basic() *vm.TextParser {
	p := vm.NewTextParser()

	p.Opcode("set", func(v *vm.Vm, args []vm.Arg) error {
		if err := wantArgs("set", args, 2); err != nil {
			return err
		}
		val, err := v.Eval(args[1])
		if err != nil {
			return err
		}
		return v.SetRegister(args[0].Reg, val)
	})

	p.Opcode("add", func(v *vm.Vm, args []vm.Arg) error {
		if err := wantArgs("add", args, 2); err != nil {
			return err
		}
		val, err := v.Eval(args[1])
		if err != nil {
			return err
		}
		return v.AddRegister(args[0].Reg, val)
	})

	p.Opcode("sub", func(v *vm.Vm, args []vm.Arg) error {
		if err := wantArgs("sub", args, 2); err != nil {
			return err
		}
		val, err := v.Eval(args[1])
		if err != nil {
			return err
		}
		return v.AddRegister(args[0].Reg, v.Sub(v.FromInt(0), val))
	})

	p.Opcode("mul", func(v *vm.Vm, args []vm.Arg) error {
		if err := wantArgs("mul", args, 2); err != nil {
			return err
		}
		cur, err := v.GetRegister(args[0].Reg)
		if err != nil {
			return err
		}
		val, err := v.Eval(args[1])
		if err != nil {
			return err
		}
		return v.SetRegister(args[0].Reg, v.Mul(cur, val))
	})

	p.Opcode("mod", func(v *vm.Vm, args []vm.Arg) error {
		if err := wantArgs("mod", args, 2); err != nil {
			return err
		}
		cur, err := v.GetRegister(args[0].Reg)
		if err != nil {
			return err
		}
		val, err := v.Eval(args[1])
		if err != nil {
			return err
		}
		rem, err := v.Mod(cur, val)
		if err != nil {
			return err
		}
		return v.SetRegister(args[0].Reg, rem)
	})

	p.Opcode("jgz", jumpIf("jgz", func(sign int) bool { return sign > 0 }))
	p.Opcode("jnz", jumpIf("jnz", func(sign int) bool { return sign != 0 }))

	p.Opcode("in", func(v *vm.Vm, args []vm.Arg) error {
		if err := wantArgs("in", args, 1); err != nil {
			return err
		}
		val, ok, err := v.ReadInput()
		if err != nil {
			return err
		}
		if !ok {
			// Blocked: leave everything untouched so this instruction
			// re-executes once input arrives.
			return nil
		}
		return v.SetRegister(args[0].Reg, val)
	})

	p.Opcode("out", func(v *vm.Vm, args []vm.Arg) error {
		if err := wantArgs("out", args, 1); err != nil {
			return err
		}
		val, err := v.Eval(args[0])
		if err != nil {
			return err
		}
		return v.Output(val)
	})

	p.Opcode("nop", func(v *vm.Vm, args []vm.Arg) error {
		return nil
	})

	p.Opcode("hlt", func(v *vm.Vm, args []vm.Arg) error {
		return v.Terminate(nil)
	})

	return p
}

// jumpIf builds a conditional relative-jump handler. The jump sets the
// IP itself, so under the default AdvanceUnchanged policy the engine
// does not advance it again.
func jumpIf(name string, taken func(sign int) bool) vm.Handler {
	return func(v *vm.Vm, args []vm.Arg) error {
		if err := wantArgs(name, args, 2); err != nil {
			return err
		}
		cond, err := v.Eval(args[0])
		if err != nil {
			return err
		}
		if !taken(v.Sign(cond)) {
			return nil
		}
		dist, err := v.Eval(args[1])
		if err != nil {
			return err
		}
		n, err := v.ToInt(dist)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		v.SetIP(v.IP() + int(n))
		return nil
	}
}

func wantArgs(name string, args []vm.Arg, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: want %d operands, got %d", name, n, len(args))
	}
	return nil
}
