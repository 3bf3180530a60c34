// Package disasm renders an assembled byte program back into text.
// The listing is not accepted by asm.Assemble as source: every
// instruction line carries an "AAAA:" address prefix, and no .text line
// follows a data-preload block. Arbitrary byte streams may decode into
// nonsensical-but-well-formed instructions since every opcode nibble is
// populated in isa.Table.
//
// Grounded on original_source/disasm.py's single linear pass over the
// byte stream, detecting the preload sentinel before falling through
// to normal instruction decoding.
package disasm

import (
	"fmt"
	"strings"

	"gavm/isa"
)

// Disassemble renders program as one listing line per instruction (or
// data-preload line), each prefixed with its byte offset.
func Disassemble(program []byte) string {
	var lines []string
	pc := 0

	for pc < len(program) {
		if pc+isa.InstructionLength > len(program) {
			break
		}

		if isa.IsPreloadSentinel(program[pc], program[pc+1]) {
			lines = append(lines, fmt.Sprintf("%04X:  .data", pc))
			pc += isa.InstructionLength
			for pc+1 < len(program) {
				addr, val := program[pc], program[pc+1]
				pc += isa.InstructionLength
				if addr == 0 && val == 0 {
					break
				}
				lines = append(lines, fmt.Sprintf("       byte %d, %d", addr, val))
			}
			continue
		}

		lines = append(lines, fmt.Sprintf("%04X:  %s", pc, RenderInstruction(program[pc], program[pc+1])))
		pc += isa.InstructionLength
	}

	return strings.Join(lines, "\n")
}

// RenderInstruction formats a single two-byte instruction word the way
// Disassemble does, exported so cmd/gavm-debug can reuse it for its
// per-step display without duplicating the shape-to-text mapping.
func RenderInstruction(lo, hi byte) string {
	dec := isa.Decode(lo, hi)
	entry := isa.Table[dec.Op]

	// entry.Mnemonic is never empty: every nibble 0-15 is populated in
	// isa.Table, so the DB fallback below is unreachable with the
	// current ISA. It is kept because a future sparser opcode table
	// would need it, and disasm.py's analogous fallback is part of
	// this tool's documented contract (spec.md §4.5).
	if entry.Mnemonic == "" {
		return fmt.Sprintf("DB 0x%02X%02X", lo, hi)
	}

	switch entry.Shape {
	case isa.ShapeI:
		return fmt.Sprintf("%-18s%d", entry.Mnemonic, dec.Imm)
	case isa.ShapeRI:
		return fmt.Sprintf("%-18sr%d, %d", entry.Mnemonic, dec.D, dec.Imm)
	case isa.ShapeRRI:
		return fmt.Sprintf("%-18sr%d, r%d, %d", entry.Mnemonic, dec.D, dec.S, dec.Imm)
	default:
		return fmt.Sprintf("DB 0x%02X%02X", lo, hi)
	}
}
