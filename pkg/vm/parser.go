package vm

import (
	"fmt"
	"strings"
)

// Handler implements one opcode. It receives the executing Vm and the
// instruction's decoded arguments, and mutates the machine only through
// the Vm's public register/IO/pointer operations. A returned error
// terminates the machine with that error recorded.
type Handler func(v *Vm, args []Arg) error

// Parser converts source text into a Program and owns the opcode table
// for one instruction set. A Parser carries no per-program state: one
// instance can parse many programs and be shared across Vm instances.
type Parser interface {
	// Opcode registers a handler under the given token. Re-registering
	// the same token overwrites silently, so instruction-set variants can
	// override base behavior.
	Opcode(token string, h Handler)

	// Parse decodes the entire source eagerly. It fails with ErrParse if
	// any line cannot be tokenized or references an unregistered opcode;
	// a partially-invalid program is never produced.
	Parse(source string) (Program, error)
}

// Arg is one decoded instruction argument: either a register reference
// or an integer literal. Handlers resolve either form with Vm.Eval.
type Arg struct {
	Reg string // register name; empty when the argument is a literal
	Lit int64  // literal value; valid only when Reg is empty
}

// IsLit reports whether the argument is an integer literal.
func (a Arg) IsLit() bool { return a.Reg == "" }

func (a Arg) String() string {
	if a.IsLit() {
		return fmt.Sprintf("%d", a.Lit)
	}
	return a.Reg
}

// TextParser is the default Parser for newline-delimited assembly-style
// source. Each non-empty line is one instruction: the opcode separator
// splits the opcode token from the remainder, and the argument separator
// splits the remainder into argument tokens. A token matching the
// integer-literal grammar becomes a literal argument; any other token is
// a register-name argument.
type TextParser struct {
	ops    map[string]Handler
	opSep  string
	argSep string
}

// NewTextParser creates a text parser with both separators set to a
// single space.
func NewTextParser() *TextParser {
	return &TextParser{
		ops:    make(map[string]Handler),
		opSep:  " ",
		argSep: " ",
	}
}

// SetSeparators overrides the opcode and argument separators.
func (p *TextParser) SetSeparators(opSep, argSep string) {
	p.opSep = opSep
	p.argSep = argSep
}

// Opcode registers a handler under token. Last write wins.
func (p *TextParser) Opcode(token string, h Handler) {
	p.ops[token] = h
}

// Parse decodes source into a ListProgram.
func (p *TextParser) Parse(source string) (Program, error) {
	source = strings.ReplaceAll(source, "\r\n", "\n")

	var code []instruction
	for i, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		token := line
		rest := ""
		if idx := strings.Index(line, p.opSep); idx >= 0 {
			token = line[:idx]
			rest = line[idx+len(p.opSep):]
		}

		h, ok := p.ops[token]
		if !ok {
			return nil, fmt.Errorf("%w: line %d: %w %q", ErrParse, i+1, ErrUnknownOpcode, token)
		}

		var args []Arg
		if rest != "" {
			for _, tok := range strings.Split(rest, p.argSep) {
				tok = strings.TrimSpace(tok)
				if tok == "" {
					continue
				}
				if isIntToken(tok) {
					n, ok := parseInt(tok)
					if !ok {
						return nil, fmt.Errorf("%w: line %d: integer literal %q overflows int64", ErrParse, i+1, tok)
					}
					args = append(args, Arg{Lit: n})
				} else {
					args = append(args, Arg{Reg: tok})
				}
			}
		}

		code = append(code, instruction{token: token, h: h, args: args})
	}

	return &ListProgram{code: code}, nil
}
