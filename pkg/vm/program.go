package vm

import (
	"bytes"
	"fmt"
)

// Program is an immutable parsed representation of source code, owned by
// the Vm that loaded it. Len is the addressable extent, which is not
// always the instruction count: a word-addressed machine's length is its
// memory size.
type Program interface {
	Len() int

	// Execute decodes and runs the instruction at offset, mutating v
	// through its public register/IO/pointer operations.
	Execute(v *Vm, offset int) error
}

// instruction is one decoded {operation, arguments} record.
type instruction struct {
	token string
	h     Handler
	args  []Arg
}

// ListProgram stores instructions as a flat list of decoded records. It
// is the Program produced by TextParser.
type ListProgram struct {
	code []instruction
}

// Len returns the number of instructions.
func (p *ListProgram) Len() int { return len(p.code) }

// Execute runs the instruction at offset. An offset outside [0, Len)
// fails with ErrOffsetOutOfRange.
func (p *ListProgram) Execute(v *Vm, offset int) error {
	if offset < 0 || offset >= len(p.code) {
		return fmt.Errorf("%w: %d (program length %d)", ErrOffsetOutOfRange, offset, len(p.code))
	}
	in := p.code[offset]
	return in.h(v, in.args)
}

// Token returns the opcode token at offset, for instruction-set-specific
// inspection such as scanning for a particular opcode. It returns ""
// when offset is out of range.
func (p *ListProgram) Token(offset int) string {
	if offset < 0 || offset >= len(p.code) {
		return ""
	}
	return p.code[offset].token
}

// Args returns a copy of the decoded arguments at offset.
func (p *ListProgram) Args(offset int) []Arg {
	if offset < 0 || offset >= len(p.code) {
		return nil
	}
	return append([]Arg(nil), p.code[offset].args...)
}

// Disassemble renders the program back as one instruction per line with
// offsets, for diagnostics.
func (p *ListProgram) Disassemble() string {
	var buf bytes.Buffer
	for i, in := range p.code {
		fmt.Fprintf(&buf, "%04d: %s", i, in.token)
		for j, a := range in.args {
			if j == 0 {
				buf.WriteByte(' ')
			} else {
				buf.WriteString(", ")
			}
			buf.WriteString(a.String())
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}
