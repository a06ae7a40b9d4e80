package vm

import "fmt"

// registerBank holds the named register slots for one Vm.
//
// In strict mode the set of names is fixed at construction and access to
// any other name fails with ErrUnknownRegister. In lazy mode unknown
// names spring into existence at the domain's zero value on first access.
type registerBank struct {
	dom    domain
	values map[string]Value
	strict bool
}

func newRegisterBank(dom domain, names []string) *registerBank {
	b := &registerBank{
		dom:    dom,
		values: make(map[string]Value),
		strict: names != nil,
	}
	for _, name := range names {
		b.values[name] = dom.zero()
	}
	return b
}

func (b *registerBank) has(name string) bool {
	_, ok := b.values[name]
	return ok
}

func (b *registerBank) get(name string) (Value, error) {
	v, ok := b.values[name]
	if !ok {
		if b.strict {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRegister, name)
		}
		v = b.dom.zero()
		b.values[name] = v
	}
	return v, nil
}

func (b *registerBank) set(name string, v Value) error {
	if b.strict {
		if _, ok := b.values[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRegister, name)
		}
	}
	coerced, err := b.dom.coerce(v)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	b.values[name] = coerced
	return nil
}

func (b *registerBank) add(name string, delta Value) error {
	cur, err := b.get(name)
	if err != nil {
		return err
	}
	coerced, err := b.dom.coerce(delta)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}
	b.values[name] = b.dom.add(cur, coerced)
	return nil
}

// export returns a snapshot of all name->value pairs. Values are copied
// through the domain so the snapshot cannot alias live register state.
func (b *registerBank) export() map[string]Value {
	out := make(map[string]Value, len(b.values))
	for name, v := range b.values {
		copied, _ := b.dom.coerce(v)
		out[name] = copied
	}
	return out
}

// reset zeroes every register without removing declarations.
func (b *registerBank) reset() {
	for name := range b.values {
		b.values[name] = b.dom.zero()
	}
}
