package vm

import (
	"errors"
	"math/big"
	"testing"
)

func TestBigDomainArithmetic(t *testing.T) {
	p := testParser()
	p.Opcode("mul", func(v *Vm, args []Arg) error {
		val, err := v.Eval(args[1])
		if err != nil {
			return err
		}
		cur, err := v.GetRegister(args[0].Reg)
		if err != nil {
			return err
		}
		return v.SetRegister(args[0].Reg, v.Mul(cur, val))
	})

	// 10^20 does not fit in int64.
	source := "set A 10000000000\nmul A A\nout A"

	v := New(Config{Parser: p, BigInt: true})
	if err := v.Load(source); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := v.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := v.DequeueAllOutput()
	if len(out) != 1 {
		t.Fatalf("expected 1 output, got %d", len(out))
	}
	want, _ := new(big.Int).SetString("100000000000000000000", 10)
	if out[0].(*big.Int).Cmp(want) != 0 {
		t.Errorf("expected %s, got %v", want, out[0])
	}
}

func TestFixedDomainWrapsOnOverflow(t *testing.T) {
	v := New(Config{Parser: testParser()})
	got := v.Mul(v.FromInt(1<<62), v.FromInt(4))
	if n, _ := v.ToInt(got); n != 0 {
		t.Errorf("expected two's-complement wrap to 0, got %d", n)
	}
}

func TestDivMod(t *testing.T) {
	for _, bigInt := range []bool{false, true} {
		v := New(Config{Parser: testParser(), BigInt: bigInt})

		q, err := v.Div(v.FromInt(-7), v.FromInt(2))
		if err != nil {
			t.Fatalf("div: %v", err)
		}
		if n, _ := v.ToInt(q); n != -3 {
			t.Errorf("bigInt=%v: expected truncation toward zero (-3), got %d", bigInt, n)
		}

		r, err := v.Mod(v.FromInt(-7), v.FromInt(2))
		if err != nil {
			t.Fatalf("mod: %v", err)
		}
		if n, _ := v.ToInt(r); n != -1 {
			t.Errorf("bigInt=%v: expected remainder with dividend's sign (-1), got %d", bigInt, n)
		}

		if _, err := v.Div(v.FromInt(1), v.FromInt(0)); !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("bigInt=%v: expected ErrDivisionByZero, got %v", bigInt, err)
		}
		if _, err := v.Mod(v.FromInt(1), v.FromInt(0)); !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("bigInt=%v: expected ErrDivisionByZero, got %v", bigInt, err)
		}
	}
}

func TestCmpAndSign(t *testing.T) {
	for _, bigInt := range []bool{false, true} {
		v := New(Config{Parser: testParser(), BigInt: bigInt})

		if got := v.Cmp(v.FromInt(1), v.FromInt(2)); got != -1 {
			t.Errorf("bigInt=%v: Cmp(1,2) = %d", bigInt, got)
		}
		if got := v.Cmp(v.FromInt(2), v.FromInt(2)); got != 0 {
			t.Errorf("bigInt=%v: Cmp(2,2) = %d", bigInt, got)
		}
		if got := v.Sign(v.FromInt(-5)); got != -1 {
			t.Errorf("bigInt=%v: Sign(-5) = %d", bigInt, got)
		}
		if got := v.Sign(v.FromInt(0)); got != 0 {
			t.Errorf("bigInt=%v: Sign(0) = %d", bigInt, got)
		}
	}
}

func TestToIntOverflow(t *testing.T) {
	v := New(Config{Parser: testParser(), BigInt: true})
	huge := new(big.Int).Lsh(big.NewInt(1), 80)
	if _, err := v.ToInt(huge); !errors.Is(err, ErrNotAnInteger) {
		t.Errorf("expected ErrNotAnInteger, got %v", err)
	}
}

func TestStateAndModeStrings(t *testing.T) {
	if StateBlocked.String() != "blocked" || StateTerminated.String() != "terminated" {
		t.Error("unexpected state strings")
	}
	if AdvanceUnchanged.String() != "unchanged" || AdvanceNever.String() != "never" || AdvanceAlways.String() != "always" {
		t.Error("unexpected advance mode strings")
	}
}
