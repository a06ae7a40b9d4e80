package vm

import "errors"

// Error definitions
var (
	ErrUnknownRegister  = errors.New("unknown register")
	ErrNotAnInteger     = errors.New("not an integer")
	ErrParse            = errors.New("parse error")
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrIllegalState     = errors.New("illegal state")
	ErrUnknownOpcode    = errors.New("unknown opcode")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrNoProgram        = errors.New("no program loaded")
)
