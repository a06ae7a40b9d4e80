package isa

import (
	"fmt"

	"github.com/akhildatla/regvm/pkg/vm"
)

// Mem returns a parser for a word-addressed machine whose code and data
// share one comma-separated memory image, so programs can rewrite
// themselves:
//
//	1 a b c    mem[c] = mem[a] + mem[b]
//	2 a b c    mem[c] = mem[a] * mem[b]
//	3 a        mem[a] = next input value (blocks when none is queued)
//	4 a        append mem[a] to the output queue
//	99         terminate normally
//
// Every handler advances the IP past its own operands, so a Vm running
// this set uses AdvanceNever. Running off mapped memory terminates
// normally.
func Mem() *vm.MemParser {
	p := vm.NewMemParser()

	p.Opcode("1", memBinOp(func(v *vm.Vm, a, b int64) int64 { return a + b }))
	p.Opcode("2", memBinOp(func(v *vm.Vm, a, b int64) int64 { return a * b }))

	p.Opcode("3", func(v *vm.Vm, args []vm.Arg) error {
		mem, err := memOf(v)
		if err != nil {
			return err
		}
		dst, err := mem.Get(v.IP() + 1)
		if err != nil {
			return err
		}
		val, ok, err := v.ReadInput()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		n, err := v.ToInt(val)
		if err != nil {
			return err
		}
		if err := mem.Set(int(dst), n); err != nil {
			return err
		}
		v.SetIP(v.IP() + 2)
		return nil
	})

	p.Opcode("4", func(v *vm.Vm, args []vm.Arg) error {
		mem, err := memOf(v)
		if err != nil {
			return err
		}
		src, err := mem.Get(v.IP() + 1)
		if err != nil {
			return err
		}
		val, err := mem.Get(int(src))
		if err != nil {
			return err
		}
		if err := v.Output(v.FromInt(val)); err != nil {
			return err
		}
		v.SetIP(v.IP() + 2)
		return nil
	})

	p.Opcode("99", func(v *vm.Vm, args []vm.Arg) error {
		return v.Terminate(nil)
	})

	return p
}

func memOf(v *vm.Vm) (*vm.MemProgram, error) {
	mem, ok := v.Program().(*vm.MemProgram)
	if !ok {
		return nil, fmt.Errorf("mem isa: program is %T, want *vm.MemProgram", v.Program())
	}
	return mem, nil
}

func memBinOp(apply func(v *vm.Vm, a, b int64) int64) vm.Handler {
	return func(v *vm.Vm, args []vm.Arg) error {
		mem, err := memOf(v)
		if err != nil {
			return err
		}
		ip := v.IP()
		var ptr [3]int64
		for i := range ptr {
			p, err := mem.Get(ip + 1 + i)
			if err != nil {
				return err
			}
			ptr[i] = p
		}
		a, err := mem.Get(int(ptr[0]))
		if err != nil {
			return err
		}
		b, err := mem.Get(int(ptr[1]))
		if err != nil {
			return err
		}
		if err := mem.Set(int(ptr[2]), apply(v, a, b)); err != nil {
			return err
		}
		v.SetIP(ip + 4)
		return nil
	}
}
