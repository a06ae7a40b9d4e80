package isa

import "github.com/akhildatla/regvm/pkg/vm"

// BindIPRegister aliases the named register to the instruction pointer,
// for instruction sets whose jumps go through an ordinary register.
// Before each fetch the register is loaded with the current IP, so
// handlers reading it see the executing offset. After dispatch the IP is
// taken back from the register, so a handler that assigns it jumps;
// under vm.AdvanceUnchanged a handler that leaves it alone falls through
// to the next instruction as usual.
//
// The binding is per-Vm. A register value that does not fit an int
// offset terminates the machine with the conversion error.
func BindIPRegister(v *vm.Vm, name string) {
	v.Subscribe(vm.HookBeforeStep, func(v *vm.Vm) {
		if err := v.SetRegister(name, v.FromInt(int64(v.IP()))); err != nil {
			v.Terminate(err)
		}
	})

	v.Subscribe(vm.HookAfterOp, func(v *vm.Vm) {
		val, err := v.GetRegister(name)
		if err != nil {
			v.Terminate(err)
			return
		}
		n, err := v.ToInt(val)
		if err != nil {
			v.Terminate(err)
			return
		}
		v.SetIP(int(n))
	})

	v.Subscribe(vm.HookAfterStep, func(v *vm.Vm) {
		if err := v.SetRegister(name, v.FromInt(int64(v.IP()))); err != nil {
			v.Terminate(err)
		}
	})
}
