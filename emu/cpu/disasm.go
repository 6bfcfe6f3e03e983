package cpu

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble returns the assembly form of a single opcode, for example
// "ld VA, $02" or "drw V0, V1, $5". Opcodes outside the instruction set are
// shown as a data word.
func Disassemble(opcode uint16) string {
	ins, ok := lookup(opcode)
	if !ok {
		return fmt.Sprintf("dw $%04X", opcode)
	}
	if ins.args == "" {
		return ins.name
	}

	op := decode(opcode)
	args := strings.NewReplacer(
		"Vx", fmt.Sprintf("V%X", op.x),
		"Vy", fmt.Sprintf("V%X", op.y),
		"$nnn", fmt.Sprintf("$%03X", op.nnn),
		"$kk", fmt.Sprintf("$%02X", op.kk),
		"$n", fmt.Sprintf("$%X", op.n),
	).Replace(ins.args)
	return ins.name + " " + args
}

// WriteListing disassembles rom word by word as it would be laid out in
// memory, one "ADDR  OPCODE  MNEMONIC" line per word. A trailing odd byte is
// listed as a data byte.
func WriteListing(w io.Writer, rom []byte) error {
	if len(rom) > MaxROMSize {
		return fmt.Errorf("%w: %d bytes", ErrROMTooLarge, len(rom))
	}

	for i := 0; i < len(rom); i += 2 {
		addr := ProgramStart + i
		var err error
		if i+1 == len(rom) {
			_, err = fmt.Fprintf(w, "%03X  %02X    db $%02X\n", addr, rom[i], rom[i])
		} else {
			opcode := uint16(rom[i])<<8 | uint16(rom[i+1])
			_, err = fmt.Fprintf(w, "%03X  %04X  %s\n", addr, opcode, Disassemble(opcode))
		}
		if err != nil {
			return err
		}
	}
	return nil
}
