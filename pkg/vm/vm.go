// Package vm implements a generic register-machine virtual machine.
//
// The framework is a pluggable interpreter core: a Parser turns source
// text into a Program, and the Vm steps through the Program while owning
// the instruction pointer, the named register bank, and FIFO input and
// output queues. Instruction sets are plugins: each registers its opcode
// handlers on a Parser and drives the same engine.
//
// Basic usage:
//
//	p := vm.NewTextParser()
//	p.Opcode("set", func(v *vm.Vm, args []vm.Arg) error { ... })
//
//	v := vm.New(vm.Config{Parser: p})
//	if err := v.Load(source); err != nil { ... }
//	if err := v.Run(); err != nil { ... }
//	out := v.DequeueAllOutput()
//
// Execution is single-threaded and cooperative. A handler that needs
// input when none is queued suspends the machine (StateBlocked) and
// returns control to the caller of Step or Run; the caller supplies
// input with EnqueueInput and re-invokes Step or Run, which re-executes
// the same instruction.
package vm

import "fmt"

// State is the execution lifecycle state of a Vm.
type State uint8

const (
	StateReady      State = iota // can execute
	StateRunning                 // mid fetch-execute loop
	StateBlocked                 // suspended awaiting input
	StateTerminated              // halted, optionally carrying an error
)

// String returns the string representation of a state.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// AdvanceMode is the instruction-pointer auto-advance policy.
type AdvanceMode uint8

const (
	// AdvanceUnchanged advances the IP by one after a cycle only if the
	// handler left it exactly as it was; a handler that jumped is assumed
	// to have set the new target itself. This is the default.
	AdvanceUnchanged AdvanceMode = iota

	// AdvanceNever leaves the IP entirely to the handlers.
	AdvanceNever

	// AdvanceAlways advances the IP by one after every cycle regardless
	// of handler behavior.
	AdvanceAlways
)

// String returns the string representation of an advance mode.
func (m AdvanceMode) String() string {
	switch m {
	case AdvanceUnchanged:
		return "unchanged"
	case AdvanceNever:
		return "never"
	case AdvanceAlways:
		return "always"
	default:
		return "unknown"
	}
}

// Hook identifies one of the engine's synchronous extension points.
//
// The four step hooks fire within each cycle in a fixed order:
// HookBeforeStep (before fetch), HookBeforeOp (after fetch, before
// dispatch), HookAfterOp (after dispatch), HookAfterStep (after the
// IP-advance logic). A patched offset fires the step hooks but not the
// operation hooks, since no Program dispatch happens; this asymmetry is
// part of the contract. The remaining hooks are lifecycle
// notifications.
type Hook uint8

const (
	HookBeforeStep Hook = iota
	HookBeforeOp
	HookAfterOp
	HookAfterStep
	HookBlocked    // the machine suspended awaiting input
	HookUnblocked  // EnqueueInput released a blocked machine
	HookOutput     // a value was appended to the output queue
	HookTerminated // the machine halted
)

// Config holds the construction-time choices for a Vm. The zero value is
// usable: int64 domain, lazy registers, AdvanceUnchanged, a fresh
// TextParser, and unheard termination errors re-raised from Step/Run.
type Config struct {
	// BigInt selects arbitrary-precision integers for all registers and
	// I/O values.
	BigInt bool

	// Advance is the instruction-pointer auto-advance policy.
	Advance AdvanceMode

	// Parser is the instruction set. Nil means a new TextParser.
	Parser Parser

	// Registers, when non-nil, fixes the register set and enables strict
	// mode: access to any other name fails with ErrUnknownRegister. Nil
	// enables lazy mode.
	Registers []string

	// SuppressUnheardErrors disables re-raising a handler error from
	// Step/Run when no HookTerminated listener is subscribed. Supervised
	// batch execution sets this and inspects Err instead.
	SuppressUnheardErrors bool
}

// Vm is the execution engine. It owns the instruction pointer, register
// bank, loaded Program, I/O queues, patches, and hook subscriptions; none
// of these are shared between Vm instances.
type Vm struct {
	cfg     Config
	dom     domain
	regs    *registerBank
	parser  Parser
	program Program

	ip    int
	state State
	err   error

	input   []Value
	outputs []Value

	patches   map[int]func(*Vm) error
	listeners map[Hook][]func(*Vm)

	haltReq bool
}

// New creates a Vm with the given configuration. The machine starts in
// StateReady with IP 0 and all declared registers at the domain's zero.
func New(cfg Config) *Vm {
	var dom domain = fixedDomain{}
	if cfg.BigInt {
		dom = bigDomain{}
	}
	if cfg.Parser == nil {
		cfg.Parser = NewTextParser()
	}
	return &Vm{
		cfg:       cfg,
		dom:       dom,
		regs:      newRegisterBank(dom, cfg.Registers),
		parser:    cfg.Parser,
		patches:   make(map[int]func(*Vm) error),
		listeners: make(map[Hook][]func(*Vm)),
	}
}

// State returns the current lifecycle state.
func (v *Vm) State() State { return v.state }

// Err returns the error recorded at termination, or nil. A terminated Vm
// with a nil Err ran off the end of its program normally.
func (v *Vm) Err() error { return v.err }

// Parser returns the Vm's parser.
func (v *Vm) Parser() Parser { return v.parser }

// Program returns the loaded Program, or nil before Load.
func (v *Vm) Program() Program { return v.program }

// IP returns the instruction pointer.
func (v *Vm) IP() int { return v.ip }

// SetIP sets the instruction pointer.
func (v *Vm) SetIP(offset int) { v.ip = offset }

// Subscribe registers fn on the given hook. Listeners fire synchronously
// in subscription order.
func (v *Vm) Subscribe(h Hook, fn func(*Vm)) {
	v.listeners[h] = append(v.listeners[h], fn)
}

func (v *Vm) fire(h Hook) {
	for _, fn := range v.listeners[h] {
		fn(v)
	}
}

// Load parses source through the Vm's parser, installs the resulting
// Program, and resets the machine. On a parse failure nothing is
// installed and the previous program, if any, stays loaded.
func (v *Vm) Load(source string) error {
	prog, err := v.parser.Parse(source)
	if err != nil {
		return err
	}
	v.program = prog
	v.Reset()
	return nil
}

// Reset returns the machine to StateReady with all registers zeroed, the
// IP at 0, both queues cleared, and any recorded error cleared. Loaded
// program, patches, and hook subscriptions survive.
func (v *Vm) Reset() {
	v.regs.reset()
	v.ip = 0
	v.input = v.input[:0]
	v.outputs = v.outputs[:0]
	v.err = nil
	v.state = StateReady
	v.haltReq = false
}

// Patch installs fn as a replacement for the Program instruction at
// offset. When execution reaches that offset, fn runs instead of
// Program.Execute; the step hooks and IP-advance policy still apply, the
// operation hooks do not.
func (v *Vm) Patch(offset int, fn func(*Vm) error) {
	v.patches[offset] = fn
}

// Terminate transitions unconditionally to StateTerminated, records err
// (or clears the record when err is nil), and fires HookTerminated. A
// non-nil err is returned to the caller when no HookTerminated listener
// is subscribed and unheard errors are not suppressed.
func (v *Vm) Terminate(err error) error {
	v.terminate(err)
	if err != nil && v.unheard() {
		return err
	}
	return nil
}

func (v *Vm) terminate(err error) {
	v.state = StateTerminated
	v.err = err
	v.fire(HookTerminated)
}

func (v *Vm) unheard() bool {
	return len(v.listeners[HookTerminated]) == 0 && !v.cfg.SuppressUnheardErrors
}

// Halt requests that a running Run loop stop between cycles and return
// the machine to StateReady. It is meant to be called from a hook; the
// current instruction always completes. Outside a run it does nothing.
func (v *Vm) Halt() {
	if v.state == StateRunning {
		v.haltReq = true
	}
}

// Step performs exactly one fetch-execute cycle. Unless that cycle left
// the machine blocked or terminated, it returns to StateReady. Step
// fails with ErrIllegalState while running, blocked, or terminated.
func (v *Vm) Step() error {
	if err := v.begin(); err != nil {
		return err
	}
	v.cycle()
	if v.state == StateRunning {
		v.state = StateReady
	}
	v.haltReq = false
	return v.surface()
}

// Run loops fetch-execute cycles until the state becomes anything other
// than StateRunning: normal or erroneous termination, a blocking read,
// or a Halt request. It fails with ErrIllegalState under the same
// conditions as Step.
func (v *Vm) Run() error {
	if err := v.begin(); err != nil {
		return err
	}
	for v.state == StateRunning {
		v.cycle()
		if v.haltReq {
			v.haltReq = false
			if v.state == StateRunning {
				v.state = StateReady
			}
			break
		}
	}
	return v.surface()
}

// begin validates the entry state and transitions to StateRunning.
func (v *Vm) begin() error {
	if v.state != StateReady {
		return fmt.Errorf("%w: cannot execute while %s", ErrIllegalState, v.state)
	}
	if v.program == nil {
		return ErrNoProgram
	}
	v.state = StateRunning
	return nil
}

// surface re-raises a handler error recorded during this invocation when
// nobody is listening for termination, per Config.SuppressUnheardErrors.
func (v *Vm) surface() error {
	if v.state == StateTerminated && v.err != nil && v.unheard() {
		return v.err
	}
	return nil
}

// cycle is one fetch-execute iteration. Entry state is StateRunning;
// exit state is StateRunning (normal completion), StateBlocked, or
// StateTerminated.
func (v *Vm) cycle() {
	v.fire(HookBeforeStep)
	if v.state != StateRunning {
		return
	}

	if v.ip < 0 || v.ip >= v.program.Len() {
		// Ran off the program: normal termination.
		v.terminate(nil)
		return
	}

	ipBefore := v.ip

	var err error
	if patch, ok := v.patches[v.ip]; ok {
		err = patch(v)
	} else {
		v.fire(HookBeforeOp)
		err = v.program.Execute(v, v.ip)
		if err == nil && v.state != StateTerminated {
			v.fire(HookAfterOp)
		}
	}

	if err != nil {
		v.terminate(err)
		return
	}
	if v.state == StateTerminated {
		return
	}

	// IP advance policy applies only while still running; a handler that
	// blocked keeps its IP so the same instruction re-executes on resume.
	if v.state == StateRunning {
		switch v.cfg.Advance {
		case AdvanceUnchanged:
			if v.ip == ipBefore {
				v.ip++
			}
		case AdvanceAlways:
			v.ip++
		case AdvanceNever:
		}
	}

	v.fire(HookAfterStep)
}

// ===== Registers =====

// HasRegister reports whether name is declared. It never fails.
func (v *Vm) HasRegister(name string) bool { return v.regs.has(name) }

// GetRegister returns the current value of name. In strict mode an
// undeclared name fails with ErrUnknownRegister; in lazy mode it springs
// into existence at zero.
func (v *Vm) GetRegister(name string) (Value, error) { return v.regs.get(name) }

// SetRegister stores val in name. It fails with ErrUnknownRegister under
// the same condition as GetRegister and with ErrNotAnInteger when val is
// not a whole number in the configured domain.
func (v *Vm) SetRegister(name string, val Value) error { return v.regs.set(name, val) }

// AddRegister adds delta to name, with the same failure modes as
// SetRegister.
func (v *Vm) AddRegister(name string, delta Value) error { return v.regs.add(name, delta) }

// ExportRegisters returns a snapshot of all current name->value pairs.
func (v *Vm) ExportRegisters() map[string]Value { return v.regs.export() }

// Eval resolves a decoded argument: a literal evaluates to itself (in
// the Vm's domain), a register reference to the register's current
// value.
func (v *Vm) Eval(a Arg) (Value, error) {
	if a.IsLit() {
		return v.dom.fromInt64(a.Lit), nil
	}
	return v.regs.get(a.Reg)
}

// ===== Input / output =====

// EnqueueInput appends val to the input queue. If the machine was
// blocked it returns to StateReady and HookUnblocked fires; execution is
// not resumed, the client calls Step or Run again. Fails with
// ErrIllegalState after termination and ErrNotAnInteger for values
// outside the domain.
func (v *Vm) EnqueueInput(val Value) error {
	if v.state == StateTerminated {
		return fmt.Errorf("%w: input after termination", ErrIllegalState)
	}
	coerced, err := v.dom.coerce(val)
	if err != nil {
		return err
	}
	v.input = append(v.input, coerced)
	if v.state == StateBlocked {
		v.state = StateReady
		v.fire(HookUnblocked)
	}
	return nil
}

// InputLen returns the number of queued input values.
func (v *Vm) InputLen() int { return len(v.input) }

// ReadInput is called by opcode handlers to consume the next input
// value. The three outcomes are: a value (ok true); would-block (ok
// false, nil error) — the machine is now StateBlocked and the handler
// must return without completing its side effects, leaving the IP
// unchanged so the instruction re-executes once unblocked; or an
// ErrIllegalState error when called while already blocked or terminated.
func (v *Vm) ReadInput() (val Value, ok bool, err error) {
	if v.state == StateBlocked || v.state == StateTerminated {
		return nil, false, fmt.Errorf("%w: read while %s", ErrIllegalState, v.state)
	}
	if len(v.input) == 0 {
		v.state = StateBlocked
		v.fire(HookBlocked)
		return nil, false, nil
	}
	val = v.input[0]
	v.input = v.input[1:]
	return val, true, nil
}

// Output appends val to the output queue and fires HookOutput. Output is
// never drained implicitly; clients dequeue it explicitly. Same failure
// modes as EnqueueInput, plus ErrIllegalState while blocked.
func (v *Vm) Output(val Value) error {
	if v.state == StateBlocked || v.state == StateTerminated {
		return fmt.Errorf("%w: output while %s", ErrIllegalState, v.state)
	}
	coerced, err := v.dom.coerce(val)
	if err != nil {
		return err
	}
	v.outputs = append(v.outputs, coerced)
	v.fire(HookOutput)
	return nil
}

// OutputLen returns the number of queued output values.
func (v *Vm) OutputLen() int { return len(v.outputs) }

// CloneOutput returns a copy of the output queue without draining it.
func (v *Vm) CloneOutput() []Value {
	return append([]Value(nil), v.outputs...)
}

// DequeueOutput removes and returns the front output value; ok is false
// when the queue is empty.
func (v *Vm) DequeueOutput() (val Value, ok bool) {
	if len(v.outputs) == 0 {
		return nil, false
	}
	val = v.outputs[0]
	v.outputs = v.outputs[1:]
	return val, true
}

// DequeueAllOutput removes and returns the whole output queue in program
// order.
func (v *Vm) DequeueAllOutput() []Value {
	out := v.outputs
	v.outputs = nil
	return out
}

// ===== Domain arithmetic =====
//
// Handlers do arithmetic through the Vm so they stay agnostic of the
// numeric domain chosen at construction.

// FromInt converts a plain integer into the Vm's domain.
func (v *Vm) FromInt(n int64) Value { return v.dom.fromInt64(n) }

// ToInt converts a domain value to int64, failing when it does not fit.
func (v *Vm) ToInt(val Value) (int64, error) { return v.dom.toInt64(val) }

// Add returns a + b.
func (v *Vm) Add(a, b Value) Value { return v.dom.add(a, b) }

// Sub returns a - b.
func (v *Vm) Sub(a, b Value) Value { return v.dom.sub(a, b) }

// Mul returns a * b.
func (v *Vm) Mul(a, b Value) Value { return v.dom.mul(a, b) }

// Div returns a / b truncated toward zero, or ErrDivisionByZero.
func (v *Vm) Div(a, b Value) (Value, error) { return v.dom.div(a, b) }

// Mod returns a % b with the sign of a, or ErrDivisionByZero.
func (v *Vm) Mod(a, b Value) (Value, error) { return v.dom.mod(a, b) }

// Cmp returns -1, 0, or 1 comparing a against b.
func (v *Vm) Cmp(a, b Value) int { return v.dom.cmp(a, b) }

// Sign returns -1, 0, or 1 for the sign of val.
func (v *Vm) Sign(val Value) int { return v.dom.cmp(val, v.dom.zero()) }
