package vm

import (
	"fmt"
	"math/big"
	"strconv"
)

// Value holds one machine word. The concrete type is fixed by the Vm's
// numeric domain at construction: int64 for fixed-width machines,
// *big.Int for arbitrary-precision machines.
type Value any

// domain performs the numeric operations for one value domain. Exactly
// one implementation is selected when the Vm is constructed; registers
// and I/O queues hold only values produced by it.
type domain interface {
	zero() Value
	coerce(v Value) (Value, error)
	fromInt64(n int64) Value
	toInt64(v Value) (int64, error)
	add(a, b Value) Value
	sub(a, b Value) Value
	mul(a, b Value) Value
	div(a, b Value) (Value, error)
	mod(a, b Value) (Value, error)
	cmp(a, b Value) int
}

// fixedDomain is the default 64-bit integer domain.
type fixedDomain struct{}

func (fixedDomain) zero() Value { return int64(0) }

func (fixedDomain) coerce(v Value) (Value, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case *big.Int:
		if n.IsInt64() {
			return n.Int64(), nil
		}
		return nil, fmt.Errorf("%w: %s overflows int64", ErrNotAnInteger, n)
	default:
		return nil, fmt.Errorf("%w: %v (%T)", ErrNotAnInteger, v, v)
	}
}

func (fixedDomain) fromInt64(n int64) Value { return n }

func (fixedDomain) toInt64(v Value) (int64, error) {
	n, ok := v.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: %v (%T)", ErrNotAnInteger, v, v)
	}
	return n, nil
}

func (fixedDomain) add(a, b Value) Value { return a.(int64) + b.(int64) }
func (fixedDomain) sub(a, b Value) Value { return a.(int64) - b.(int64) }
func (fixedDomain) mul(a, b Value) Value { return a.(int64) * b.(int64) }

func (fixedDomain) div(a, b Value) (Value, error) {
	if b.(int64) == 0 {
		return nil, ErrDivisionByZero
	}
	return a.(int64) / b.(int64), nil
}

func (fixedDomain) mod(a, b Value) (Value, error) {
	if b.(int64) == 0 {
		return nil, ErrDivisionByZero
	}
	return a.(int64) % b.(int64), nil
}

func (fixedDomain) cmp(a, b Value) int {
	x, y := a.(int64), b.(int64)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// bigDomain is the arbitrary-precision integer domain. Stored values are
// never aliased: coerce copies incoming *big.Int values and every
// operation allocates its result, so callers cannot mutate register or
// queue contents from the outside.
type bigDomain struct{}

func (bigDomain) zero() Value { return new(big.Int) }

func (bigDomain) coerce(v Value) (Value, error) {
	switch n := v.(type) {
	case *big.Int:
		return new(big.Int).Set(n), nil
	case int64:
		return big.NewInt(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	default:
		return nil, fmt.Errorf("%w: %v (%T)", ErrNotAnInteger, v, v)
	}
}

func (bigDomain) fromInt64(n int64) Value { return big.NewInt(n) }

func (bigDomain) toInt64(v Value) (int64, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("%w: %v (%T)", ErrNotAnInteger, v, v)
	}
	if !n.IsInt64() {
		return 0, fmt.Errorf("%w: %s overflows int64", ErrNotAnInteger, n)
	}
	return n.Int64(), nil
}

func (bigDomain) add(a, b Value) Value {
	return new(big.Int).Add(a.(*big.Int), b.(*big.Int))
}

func (bigDomain) sub(a, b Value) Value {
	return new(big.Int).Sub(a.(*big.Int), b.(*big.Int))
}

func (bigDomain) mul(a, b Value) Value {
	return new(big.Int).Mul(a.(*big.Int), b.(*big.Int))
}

func (bigDomain) div(a, b Value) (Value, error) {
	if b.(*big.Int).Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return new(big.Int).Quo(a.(*big.Int), b.(*big.Int)), nil
}

func (bigDomain) mod(a, b Value) (Value, error) {
	if b.(*big.Int).Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	return new(big.Int).Rem(a.(*big.Int), b.(*big.Int)), nil
}

func (bigDomain) cmp(a, b Value) int {
	return a.(*big.Int).Cmp(b.(*big.Int))
}

// isIntToken reports whether tok matches the integer-literal grammar:
// an optional sign followed by one or more decimal digits.
func isIntToken(tok string) bool {
	if tok == "" {
		return false
	}
	digits := tok
	if tok[0] == '-' || tok[0] == '+' {
		digits = tok[1:]
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

func parseInt(tok string) (int64, bool) {
	if !isIntToken(tok) {
		return 0, false
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
