package asm

import (
	"testing"

	"gavm/isa"
)

func TestAssembleSimpleMov(t *testing.T) {
	out, err := Assemble("MOV_REG_IMM r0, 5\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec := isa.Decode(out[0], out[1])
	if dec.Op != isa.OpMovRegImm || dec.D != 0 || dec.Imm != 5 {
		t.Fatalf("unexpected decode: %+v", dec)
	}
}

func TestAssembleLabelResolution(t *testing.T) {
	src := `
start:
	MOV_REG_IMM r0, 0
	JMP r0, start
`
	out, err := Assemble(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec := isa.Decode(out[2], out[3])
	if dec.Op != isa.OpJmp || dec.Imm != 0 {
		t.Fatalf("expected label `start` to resolve to offset 0, got %+v", dec)
	}
}

func TestAssembleDataSectionShiftsLabels(t *testing.T) {
	src := `
.data
byte 0, 65
.text
start:
	MOV_REG_IMM r0, 0
	JMP r0, start
`
	out, err := Assemble(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// sentinel(2) + pair(2) + terminator(2) = 6 bytes of preload, then code.
	if len(out) != 6+4 {
		t.Fatalf("unexpected program length %d: %x", len(out), out)
	}
	if out[0] != isa.PreloadSentinel[0] || out[1] != isa.PreloadSentinel[1] {
		t.Fatalf("expected sentinel prefix, got %x", out[:2])
	}
	// `start` is code offset 0, shifted by the 6-byte preload block.
	if dec := isa.Decode(out[8], out[9]); dec.Op != isa.OpJmp || dec.Imm != 6 {
		t.Fatalf("expected label `start` to resolve to offset 6, got %+v", dec)
	}
}

func TestAssembleDuplicateLabelErrors(t *testing.T) {
	src := "foo:\nMOV_REG_IMM r0, 0\nfoo:\nMOV_REG_IMM r1, 1\n"
	_, err := Assemble(src)
	if err == nil {
		t.Fatalf("expected duplicate label error")
	}
}

func TestAssembleUnknownMnemonicErrors(t *testing.T) {
	_, err := Assemble("FROB r0, 1\n")
	if err == nil {
		t.Fatalf("expected unknown mnemonic error")
	}
}

func TestAssembleCharLiteral(t *testing.T) {
	out, err := Assemble("MOV_REG_IMM r0, 'A'\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec := isa.Decode(out[0], out[1])
	if dec.Imm != 'A' {
		t.Fatalf("expected imm 65, got %d", dec.Imm)
	}
}

func TestAssembleHexAndBinaryLiterals(t *testing.T) {
	out, err := Assemble("MOV_REG_IMM r0, 0xFF\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec := isa.Decode(out[0], out[1])
	if dec.Imm != 255 {
		t.Fatalf("expected imm 255, got %d", dec.Imm)
	}

	out, err = Assemble("MOV_REG_IMM r0, 0b101\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dec = isa.Decode(out[0], out[1])
	if dec.Imm != 5 {
		t.Fatalf("expected imm 5, got %d", dec.Imm)
	}
}

func TestAssembleStrDirective(t *testing.T) {
	src := `
.data
str 0 'H' 'i'
.text
NOP
`
	out, err := Assemble(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[2] != 0 || out[3] != 'H' || out[4] != 1 || out[5] != 'i' {
		t.Fatalf("unexpected data bytes: %x", out[:6])
	}
}
