// Command gavm-debug is an interactive step-through visualiser for a
// machine-code image: it loads an assembled (or hex-encoded raw)
// program, then drives vm.VM one cycle at a time under operator
// control, printing the instruction about to run and the resulting
// register state after each step (memory is shown by the mem command).
//
// Modeled on the teacher's command/reader/reader.go console loop:
// github.com/peterh/liner for the prompt, ErrPromptAborted on Ctrl-D,
// a small verb dispatch instead of a full command parser package.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/peterh/liner"

	getopt "github.com/pborman/getopt/v2"

	"gavm/asm"
	"gavm/disasm"
	"gavm/isa"
	"gavm/maze"
	"gavm/vm"
	"gavm/vmsyscall"
)

const defaultStepBudget = 20000

func main() {
	optMazeWidth := getopt.IntLong("maze-width", 0, 11, "Maze width for syscalls that touch maze state")
	optMazeHeight := getopt.IntLong("maze-height", 0, 11, "Maze height for syscalls that touch maze state")
	optSeed := getopt.Int64Long("seed", 0, 1, "Maze generation seed")
	optHelp := getopt.BoolLong("help", 'h', "Show usage")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	args := getopt.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: gavm-debug <input.asm|input.hex>")
		os.Exit(1)
	}

	program, err := loadProgram(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	mz := maze.New(*optMazeWidth, *optMazeHeight, rand.New(rand.NewSource(*optSeed)))
	stream := vmsyscall.NewOutputStream(os.Stdout)
	reg := vmsyscall.NewRegistry(&vmsyscall.Context{Output: stream, Maze: mz})
	vmsyscall.RegisterStandard(reg)
	vmsyscall.RegisterMaze(reg)

	session := &debugSession{
		machine:    vm.New(program, defaultStepBudget),
		dispatcher: reg.Dispatcher(),
	}

	runREPL(session)
}

// loadProgram accepts either assembly source (.asm) or a hex-encoded
// raw image (anything else), matching the pair of formats gavm-asm and
// gavm-disasm already round-trip.
func loadProgram(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("input file not found at '%s'", path)
	}

	if strings.HasSuffix(path, ".asm") {
		program, err := asm.Assemble(string(raw))
		if err != nil {
			return nil, fmt.Errorf("assembly error: %w", err)
		}
		return program, nil
	}

	program, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("invalid hex string in file: %w", err)
	}
	return program, nil
}

type debugSession struct {
	machine    *vm.VM
	dispatcher vm.Dispatcher
	halted     bool
	lastResult string
}

func runREPL(s *debugSession) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	fmt.Println("gavm debugger. Commands: step (or empty line), regs, mem <addr>, run, quit")
	printState(s, vm.Render{}, vm.Snapshot{}, true)

	for {
		command, err := line.Prompt("gavm-debug> ")
		if err == nil {
			line.AppendHistory(command)
			quit := dispatchCommand(s, strings.TrimSpace(command))
			if quit {
				return
			}
			continue
		}

		if errors.Is(err, liner.ErrPromptAborted) {
			return
		}
		fmt.Fprintln(os.Stderr, "error reading line:", err)
		return
	}
}

func dispatchCommand(s *debugSession, command string) (quit bool) {
	switch {
	case command == "quit" || command == "q":
		return true
	case command == "" || command == "step" || command == "s":
		stepOnce(s)
	case command == "run" || command == "r":
		for !s.halted {
			stepOnce(s)
		}
	case command == "regs":
		printRegs(*s.machine.Registers())
	case strings.HasPrefix(command, "mem "):
		printMem(s, strings.TrimSpace(strings.TrimPrefix(command, "mem")))
	default:
		fmt.Println("unknown command:", command)
	}
	return false
}

func stepOnce(s *debugSession) {
	if s.halted {
		fmt.Println(s.lastResult)
		return
	}

	render, snap, intr := s.machine.DebugStep()

	if intr == vm.IntrNone {
		printState(s, render, snap, false)
		return
	}

	if intr.IsFatal() {
		s.halted = true
		s.lastResult = fmt.Sprintf("halted: %s", intr)
		printState(s, render, snap, false)
		fmt.Println(s.lastResult)
		return
	}

	// Non-fatal, non-negative: a syscall id for the host to handle.
	handled, stop, exitCode := false, false, uint8(0)
	if intr <= 0xFF {
		handled, stop, exitCode = s.dispatcher(uint8(intr), s.machine)
	}
	if !handled {
		s.halted = true
		s.lastResult = fmt.Sprintf("halted: unhandled syscall %d", intr)
	} else if stop {
		s.halted = true
		s.lastResult = fmt.Sprintf("exited with code %d", exitCode)
	}
	printState(s, render, snap, false)
	if s.halted {
		fmt.Println(s.lastResult)
	}
}

func printState(s *debugSession, render vm.Render, snap vm.Snapshot, initial bool) {
	if initial {
		printRegs(*s.machine.Registers())
		return
	}
	switch {
	case render.PreloadHeader:
		fmt.Printf("%04X:  .data\n", render.PC)
	case render.PreloadEnd:
		fmt.Printf("%04X:  .data end\n", render.PC)
	case render.Preload:
		fmt.Printf("%04X:  byte %d, %d\n", render.PC, render.Lo, render.Hi)
	default:
		fmt.Printf("%04X:  %s\n", render.PC, disasm.RenderInstruction(render.Lo, render.Hi))
	}
	printRegs(snap.Regs)
}

func printRegs(regs [isa.NumRegisters]uint8) {
	for i, v := range regs {
		fmt.Printf("r%-2d=%-3d ", i, v)
		if i%8 == 7 {
			fmt.Println()
		}
	}
	fmt.Println()
}

func printMem(s *debugSession, addrText string) {
	var addr int
	if _, err := fmt.Sscanf(addrText, "%d", &addr); err != nil || addr < 0 || addr >= isa.MemSize {
		fmt.Println("usage: mem <0-255>")
		return
	}
	fmt.Printf("mem[%d] = %d\n", addr, s.machine.Memory()[addr])
}
