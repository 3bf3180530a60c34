package vmsyscall

import (
	"math/rand"
	"testing"

	"gavm/isa"
	"gavm/maze"
	"gavm/vm"
)

func encode(op uint8, d, s uint8, imm int32) [2]byte {
	return isa.Encode(op, isa.Table[op].Shape, d, s, imm)
}

func buildProgram(words ...[2]byte) []byte {
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = append(out, w[0], w[1])
	}
	return out
}

func TestExitStopsWithCode(t *testing.T) {
	prog := buildProgram(
		encode(isa.OpMovRegImm, 0, 0, 42),
		encode(isa.OpSYSCALL, 0, 0, int32(Exit)),
	)
	reg := NewRegistry(&Context{Output: NewOutputStream(nil)})
	RegisterStandard(reg)
	m := vm.New(prog, 100)
	res := m.Run(reg.Dispatcher())
	if !res.HasExitCode || res.ExitCode != 42 {
		t.Fatalf("expected exit code 42, got %+v", res)
	}
}

func TestPutcAppendsToStream(t *testing.T) {
	prog := buildProgram(
		encode(isa.OpMovRegImm, 0, 0, 'A'),
		encode(isa.OpSYSCALL, 0, 0, int32(Putc)),
		encode(isa.OpMovRegImm, 0, 0, 'B'),
		encode(isa.OpSYSCALL, 0, 0, int32(Putc)),
		encode(isa.OpMovRegImm, 0, 0, 0),
		encode(isa.OpSYSCALL, 0, 0, int32(Exit)),
	)
	out := NewOutputStream(nil)
	reg := NewRegistry(&Context{Output: out})
	RegisterStandard(reg)
	m := vm.New(prog, 100)
	m.Run(reg.Dispatcher())
	if out.String() != "AB" {
		t.Fatalf("expected output %q, got %q", "AB", out.String())
	}
}

func TestMazeMoveSyscall(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	mz := maze.New(9, 9, rng)
	mz.Grid[mz.Start.Y-1][mz.Start.X] = maze.Floor

	prog := buildProgram(
		encode(isa.OpSYSCALL, 0, 0, int32(MoveUp)),
		encode(isa.OpMovRegImm, 0, 0, 0),
		encode(isa.OpSYSCALL, 0, 0, int32(Exit)),
	)
	reg := NewRegistry(&Context{Output: NewOutputStream(nil), Maze: mz})
	RegisterStandard(reg)
	RegisterMaze(reg)
	m := vm.New(prog, 100)
	m.Run(reg.Dispatcher())

	if mz.Player().Y != mz.Start.Y-1 {
		t.Fatalf("expected maze move to relocate player, got %+v", mz.Player())
	}
}

func TestGetPositionsSyscall(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	mz := maze.New(9, 9, rng)

	prog := buildProgram(
		encode(isa.OpSYSCALL, 0, 0, int32(GetPlayerPos)),
		encode(isa.OpMovRegImm, 2, 0, 0),
		encode(isa.OpSYSCALL, 0, 0, int32(Exit)),
	)
	reg := NewRegistry(&Context{Output: NewOutputStream(nil), Maze: mz})
	RegisterStandard(reg)
	RegisterMaze(reg)
	m := vm.New(prog, 100)
	m.Run(reg.Dispatcher())

	if int(m.Registers()[0]) != mz.Start.Y || int(m.Registers()[1]) != mz.Start.X {
		t.Fatalf("expected r0/r1 to carry start pos %+v, got (%d,%d)", mz.Start, m.Registers()[0], m.Registers()[1])
	}
}

func TestUnregisteredSyscallHalts(t *testing.T) {
	prog := buildProgram(encode(isa.OpSYSCALL, 0, 0, 0x7F))
	reg := NewRegistry(&Context{Output: NewOutputStream(nil)})
	RegisterStandard(reg)
	m := vm.New(prog, 10)
	res := m.Run(reg.Dispatcher())
	if !res.Halted || res.Err != vm.IntrUnknownSyscall {
		t.Fatalf("expected unknown syscall halt, got %+v", res)
	}
}
