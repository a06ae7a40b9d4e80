package vm

import (
	"errors"
	"strings"
	"testing"
)

// memTestParser registers a tiny word-addressed instruction set:
//
//	1 a b c   mem[c] = mem[a] + mem[b]
//	7 a       output mem[a]
//	8 a b     mem[a] = b  (store immediate, used for self-modification)
//	99        halt
//
// All handlers manage the IP themselves, so machines built on it run
// under AdvanceNever.
func memTestParser() *MemParser {
	p := NewMemParser()

	cell := func(v *Vm, offset int) (int64, error) {
		return v.Program().(*MemProgram).Get(offset)
	}

	p.Opcode("1", func(v *Vm, args []Arg) error {
		mem := v.Program().(*MemProgram)
		ip := v.IP()
		a, err := cell(v, ip+1)
		if err != nil {
			return err
		}
		b, err := cell(v, ip+2)
		if err != nil {
			return err
		}
		c, err := cell(v, ip+3)
		if err != nil {
			return err
		}
		x, err := mem.Get(int(a))
		if err != nil {
			return err
		}
		y, err := mem.Get(int(b))
		if err != nil {
			return err
		}
		if err := mem.Set(int(c), x+y); err != nil {
			return err
		}
		v.SetIP(ip + 4)
		return nil
	})

	p.Opcode("7", func(v *Vm, args []Arg) error {
		a, err := cell(v, v.IP()+1)
		if err != nil {
			return err
		}
		val, err := cell(v, int(a))
		if err != nil {
			return err
		}
		if err := v.Output(val); err != nil {
			return err
		}
		v.SetIP(v.IP() + 2)
		return nil
	})

	p.Opcode("8", func(v *Vm, args []Arg) error {
		mem := v.Program().(*MemProgram)
		ip := v.IP()
		a, err := cell(v, ip+1)
		if err != nil {
			return err
		}
		b, err := cell(v, ip+2)
		if err != nil {
			return err
		}
		if err := mem.Set(int(a), b); err != nil {
			return err
		}
		v.SetIP(ip + 3)
		return nil
	})

	p.Opcode("99", func(v *Vm, args []Arg) error {
		return v.Terminate(nil)
	})

	return p
}

func TestMemParse(t *testing.T) {
	p := memTestParser()
	prog, err := p.Parse("1,2,3\n4, 5 ,6")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mem := prog.(*MemProgram)
	if mem.Len() != 6 {
		t.Fatalf("expected 6 cells, got %d", mem.Len())
	}
	for i, want := range []int64{1, 2, 3, 4, 5, 6} {
		got, err := mem.Get(i)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if got != want {
			t.Errorf("cell %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestMemParseInvalidCell(t *testing.T) {
	p := memTestParser()
	_, err := p.Parse("1,2,abc")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if !strings.Contains(err.Error(), "abc") {
		t.Errorf("expected offending token in error, got %v", err)
	}
}

func TestMemParseSeparatorAndExtra(t *testing.T) {
	p := memTestParser()
	p.SetSeparator(" ")
	p.SetExtraMemory(3)

	prog, err := p.Parse("99 5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mem := prog.(*MemProgram)
	if mem.Len() != 5 {
		t.Fatalf("expected 5 cells (2 parsed + 3 extra), got %d", mem.Len())
	}
	if got, _ := mem.Get(4); got != 0 {
		t.Errorf("expected zeroed extra cell, got %d", got)
	}
}

func TestMemProgramAddAndOutput(t *testing.T) {
	// 1 7 8 9: mem[9] = mem[7] + mem[8]; 7 9: output mem[9]; 99: halt.
	v := New(Config{Parser: memTestParser(), Advance: AdvanceNever})
	if err := v.Load("1,7,8,9,7,9,99,30,40,0"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := v.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := drainInts(t, v)
	if len(out) != 1 || out[0] != 70 {
		t.Errorf("expected [70], got %v", out)
	}
}

func TestMemProgramSelfModification(t *testing.T) {
	// "8 3 99" stores 99 into cell 3, overwriting the upcoming output
	// opcode. Execution reaches offset 3 and halts instead of emitting.
	v := New(Config{Parser: memTestParser(), Advance: AdvanceNever})
	if err := v.Load("8,3,99,7,5,0"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := v.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.State() != StateTerminated || v.Err() != nil {
		t.Fatalf("expected clean termination, state=%s err=%v", v.State(), v.Err())
	}
	if v.OutputLen() != 0 {
		t.Errorf("overwritten instruction still executed: %v", v.CloneOutput())
	}
	if got, _ := v.Program().(*MemProgram).Get(3); got != 99 {
		t.Errorf("expected cell 3 rewritten to 99, got %d", got)
	}
}

func TestMemProgramRunsOffMemory(t *testing.T) {
	// No halt opcode: execution walks past the last cell and terminates
	// normally.
	v := New(Config{Parser: memTestParser(), Advance: AdvanceNever})
	if err := v.Load("8,4,5,8,4,6"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := v.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if v.State() != StateTerminated {
		t.Fatalf("expected terminated, got %s", v.State())
	}
	if v.Err() != nil {
		t.Errorf("running off memory must not record an error, got %v", v.Err())
	}
}

func TestMemProgramUnknownOpcode(t *testing.T) {
	v := New(Config{Parser: memTestParser(), Advance: AdvanceNever})
	if err := v.Load("42"); err != nil {
		t.Fatalf("load: %v", err)
	}
	err := v.Run()
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Errorf("expected ErrUnknownOpcode, got %v", err)
	}
	if v.State() != StateTerminated {
		t.Errorf("expected terminated, got %s", v.State())
	}
}

func TestMemProgramGetSetBounds(t *testing.T) {
	p := memTestParser()
	prog, err := p.Parse("1,2,3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mem := prog.(*MemProgram)

	if _, err := mem.Get(-1); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("get -1: expected ErrOffsetOutOfRange, got %v", err)
	}
	if _, err := mem.Get(3); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("get 3: expected ErrOffsetOutOfRange, got %v", err)
	}
	if err := mem.Set(3, 1); !errors.Is(err, ErrOffsetOutOfRange) {
		t.Errorf("set 3: expected ErrOffsetOutOfRange, got %v", err)
	}
	if err := mem.Set(0, 9); err != nil {
		t.Fatalf("set 0: %v", err)
	}
	if got, _ := mem.Get(0); got != 9 {
		t.Errorf("expected 9, got %d", got)
	}
}
