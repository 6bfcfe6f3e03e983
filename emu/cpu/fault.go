package cpu

import (
	"errors"
	"fmt"
)

var (
	ErrROMTooLarge    = errors.New("rom too large")
	ErrPCOutOfBounds  = errors.New("program counter out of bounds")
	ErrInvalidOpcode  = errors.New("invalid opcode")
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
)

// Fault is returned by Step when the program cannot continue. Kind is one of
// the Err* values above and is what errors.Is matches against.
type Fault struct {
	Kind    error
	Opcode  uint16
	Address uint16 //address of the faulting instruction
}

func (f *Fault) Error() string {
	if errors.Is(f.Kind, ErrPCOutOfBounds) {
		return fmt.Sprintf("chip8: %v: fetch at 0x%03X", f.Kind, f.Address)
	}
	return fmt.Sprintf("chip8: %v: opcode 0x%04X at 0x%03X", f.Kind, f.Opcode, f.Address)
}

func (f *Fault) Unwrap() error {
	return f.Kind
}
