package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// MemParser parses a flat list of separator-delimited integers into a
// MemProgram: a word-addressed machine whose code and data share one
// memory image. Opcode handlers are registered under the decimal form of
// their numeric opcode.
type MemParser struct {
	ops   map[string]Handler
	sep   string
	extra int
}

// NewMemParser creates a memory-image parser with "," as the cell
// separator.
func NewMemParser() *MemParser {
	return &MemParser{
		ops: make(map[string]Handler),
		sep: ",",
	}
}

// SetSeparator overrides the cell separator.
func (p *MemParser) SetSeparator(sep string) { p.sep = sep }

// SetExtraMemory appends n zeroed cells beyond the parsed image, for
// machines that address memory past their initial program.
func (p *MemParser) SetExtraMemory(n int) { p.extra = n }

// Opcode registers a handler under token. Numeric opcodes register under
// their decimal string form. Last write wins.
func (p *MemParser) Opcode(token string, h Handler) {
	p.ops[token] = h
}

// Parse decodes source into a MemProgram. Every cell must be an integer;
// opcode validity cannot be checked here because code and data are
// indistinguishable until executed.
func (p *MemParser) Parse(source string) (Program, error) {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\n", p.sep)

	var cells []int64
	for i, tok := range strings.Split(source, p.sep) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %d: invalid integer %q", ErrParse, i, tok)
		}
		cells = append(cells, n)
	}

	cells = append(cells, make([]int64, p.extra)...)
	return &MemProgram{ops: p.ops, cells: cells}, nil
}

// MemProgram is the self-modifying Program variant: raw numeric memory
// cells decoded on the fly. Handlers read and write cells through Get
// and Set, so the running program can rewrite itself.
type MemProgram struct {
	ops   map[string]Handler
	cells []int64
}

// Len returns the memory size in cells.
func (p *MemProgram) Len() int { return len(p.cells) }

// Execute decodes the cell at offset as an opcode and dispatches it. An
// offset outside mapped memory terminates the Vm normally instead of
// failing: a machine of this kind has no end-of-program marker other
// than running off its memory.
func (p *MemProgram) Execute(v *Vm, offset int) error {
	if offset < 0 || offset >= len(p.cells) {
		v.Terminate(nil)
		return nil
	}
	op := p.cells[offset]
	h, ok := p.ops[strconv.FormatInt(op, 10)]
	if !ok {
		return fmt.Errorf("%w: %d at offset %d", ErrUnknownOpcode, op, offset)
	}
	return h(v, nil)
}

// Get returns the cell at offset.
func (p *MemProgram) Get(offset int) (int64, error) {
	if offset < 0 || offset >= len(p.cells) {
		return 0, fmt.Errorf("%w: %d (memory size %d)", ErrOffsetOutOfRange, offset, len(p.cells))
	}
	return p.cells[offset], nil
}

// Set overwrites the cell at offset.
func (p *MemProgram) Set(offset int, val int64) error {
	if offset < 0 || offset >= len(p.cells) {
		return fmt.Errorf("%w: %d (memory size %d)", ErrOffsetOutOfRange, offset, len(p.cells))
	}
	p.cells[offset] = val
	return nil
}
