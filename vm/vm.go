// Package vm implements the fetch-decode-execute interpreter for the
// register-machine ISA defined in package isa: a fixed 16-bit
// instruction word, 16 8-bit registers (register 15 is the protected
// program counter), a flat byte-addressable memory, and a data-preload
// mode entered via a sentinel instruction word.
//
// The single-cycle/run-loop split here follows the teacher's
// fetch()/CycleCPU() separation in emu/cpu/cpu.go: Step executes
// exactly one cycle and reports what happened; Run drives Step to
// completion the way emu/core/core.go drives CycleCPU.
package vm

import (
	"gavm/isa"
)

// Snapshot is an immutable copy of VM state, used by the debug-stepping
// path (spec.md §4.2's "debug variant") so callers can inspect state
// without aliasing the live VM.
type Snapshot struct {
	Regs [isa.NumRegisters]uint8
	Mem  []byte
}

// Result is the runtime record produced by one run (spec.md §3).
type Result struct {
	Halted      bool
	Err         Interrupt // IntrNone if the run was not an error halt
	ErrMsg      string
	HasExitCode bool
	ExitCode    uint8
	Steps       uint64
	Final       Snapshot
}

// VM is one interpreter instance. It owns its registers and memory;
// nothing about it is safe to share across goroutines, matching
// spec.md §5's "each evaluation owns its VM state".
type VM struct {
	regs    [isa.NumRegisters]uint8
	mem     [isa.MemSize]byte
	flags   uint8
	program []byte
	steps   uint64
	budget  int64 // negative: unlimited

	firstFetch bool
	inPreload  bool // set only by the DebugStep path; see vm/debug.go
}

// New creates a VM bound to an immutable program image. budget < 0
// means unlimited steps.
func New(program []byte, budget int64) *VM {
	return &VM{
		program:    program,
		budget:     budget,
		firstFetch: true,
	}
}

// Registers exposes the live register array for syscall handlers to
// read and mutate directly, per spec.md §4.3's "handlers observe and
// mutate the live register/memory arrays". This bypasses the protected
// write check on r15 deliberately: that check only guards direct
// writes from MOV/arithmetic instructions (spec.md §3), not a host
// syscall's own bookkeeping.
func (v *VM) Registers() *[isa.NumRegisters]uint8 {
	return &v.regs
}

// Memory exposes the live memory array.
func (v *VM) Memory() []byte {
	return v.mem[:]
}

// PC returns the current program counter (register 15).
func (v *VM) PC() uint8 {
	return v.regs[isa.PCReg]
}

// Steps returns the number of fetches performed so far.
func (v *VM) Steps() uint64 {
	return v.steps
}

func (v *VM) snapshot() Snapshot {
	mem := make([]byte, len(v.mem))
	copy(mem, v.mem[:])
	return Snapshot{Regs: v.regs, Mem: mem}
}

// writeReg applies a protected register write: direct writes to the PC
// register from an instruction are rejected (spec.md §3's invariant
// that the PC is only ever changed by jumps, straight-line advance, or
// the preload handler).
func (v *VM) writeReg(r uint8, val uint8) Interrupt {
	if r == isa.PCReg {
		return IntrProtectedReg
	}
	v.regs[r] = val
	return IntrNone
}

func (v *VM) readMem(addr int) (uint8, Interrupt) {
	if addr < 0 || addr >= len(v.mem) {
		return 0, IntrMemoryAccess
	}
	return v.mem[addr], IntrNone
}

func (v *VM) writeMem(addr int, val uint8) Interrupt {
	if addr < 0 || addr >= len(v.mem) {
		return IntrMemoryAccess
	}
	v.mem[addr] = val
	return IntrNone
}

// fetch reads the next 2-byte instruction word at the PC, advances the
// PC, and increments the step counter. It does not itself apply the
// step budget — callers check that first, matching spec.md §4.2 step 1
// running before step 2's PC-range check.
func (v *VM) fetch() (lo, hi byte, intr Interrupt) {
	pc := int(v.regs[isa.PCReg])
	if pc+isa.InstructionLength > len(v.program) {
		return 0, 0, IntrIllegalPC
	}
	lo, hi = v.program[pc], v.program[pc+1]
	v.regs[isa.PCReg] = uint8(pc + isa.InstructionLength)
	v.steps++
	return lo, hi, IntrNone
}

// preload consumes (addr, val) pairs starting right after the sentinel
// word until the (0, 0) terminator, writing each value into memory.
// Running off the end of the program mid-block is ILLEGAL_PC
// (spec.md §4.2).
func (v *VM) preload() Interrupt {
	for {
		pc := int(v.regs[isa.PCReg])
		if pc+isa.InstructionLength > len(v.program) {
			return IntrIllegalPC
		}
		addr, val := v.program[pc], v.program[pc+1]
		v.regs[isa.PCReg] = uint8(pc + isa.InstructionLength)
		if addr == 0 && val == 0 {
			return IntrNone
		}
		if intr := v.writeMem(int(addr), val); intr != IntrNone {
			return intr
		}
	}
}

// Step executes exactly one fetch-decode-execute cycle. The return
// value is IntrNone (continue fetching), a fatal Interrupt (halt), or
// a non-negative syscall id suspending the cycle for the host loop to
// service (spec.md §4.2 step 6).
func (v *VM) Step() Interrupt {
	if v.budget >= 0 && int64(v.steps) >= v.budget {
		return IntrMaxSteps
	}

	lo, hi, intr := v.fetch()
	if intr != IntrNone {
		return intr
	}

	if v.firstFetch {
		v.firstFetch = false
		if isa.IsPreloadSentinel(lo, hi) {
			return v.preload()
		}
	}

	dec := isa.Decode(lo, hi)
	return v.execute(dec)
}

func (v *VM) execute(d isa.Decoded) Interrupt {
	switch d.Op {
	case isa.OpNOP:
		return IntrNone

	case isa.OpSYSCALL:
		return Interrupt(d.Imm)

	case isa.OpMovRegImm:
		return v.writeReg(d.D, uint8(d.Imm))

	case isa.OpMovRegRegShr:
		shift := uint(d.Imm)
		val := v.regs[d.S]
		if shift > 7 {
			val = 0
		} else {
			val >>= shift
		}
		return v.writeReg(d.D, val)

	case isa.OpMovRegRegShl:
		shift := uint(d.Imm)
		val := v.regs[d.S]
		if shift > 7 {
			val = 0
		} else {
			val <<= shift
		}
		return v.writeReg(d.D, val)

	case isa.OpMovRegRegAdd:
		sum := int32(v.regs[d.S]) + d.Imm
		return v.writeReg(d.D, isa.SaturateU8(sum))

	case isa.OpLdRegMem:
		addr := int(v.regs[d.S]) + int(d.Imm)
		val, intr := v.readMem(addr)
		if intr != IntrNone {
			return intr
		}
		return v.writeReg(d.D, val)

	case isa.OpStMemReg:
		addr := int(v.regs[d.D]) + int(d.Imm)
		return v.writeMem(addr, v.regs[d.S])

	case isa.OpAdd:
		sum := int32(v.regs[d.D]) + int32(v.regs[d.S]) + d.Imm
		return v.writeReg(d.D, isa.SaturateS8(sum))

	case isa.OpSub:
		diff := int32(v.regs[d.D]) - int32(v.regs[d.S]) + d.Imm
		return v.writeReg(d.D, isa.SaturateS8(diff))

	case isa.OpAnd:
		return v.writeReg(d.D, v.regs[d.D]&v.regs[d.S])

	case isa.OpOr:
		return v.writeReg(d.D, v.regs[d.D]|v.regs[d.S])

	case isa.OpXor:
		return v.writeReg(d.D, v.regs[d.D]^v.regs[d.S])

	case isa.OpNot:
		return v.writeReg(d.D, ^v.regs[d.D])

	case isa.OpJmp:
		v.regs[isa.PCReg] = clampU8(int32(v.regs[d.D]) + d.Imm)
		return IntrNone

	case isa.OpJz:
		if v.regs[d.D] == 0 {
			v.regs[isa.PCReg] = clampU8(int32(v.regs[d.S]) + d.Imm)
		}
		return IntrNone

	default:
		return IntrUnknownOpcode
	}
}

func clampU8(v int32) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// Dispatcher services a syscall raised by Step. handled reports whether
// id was recognized; when it is false, Run halts with
// IntrUnknownSyscall, per spec.md §4.3. stop/exitCode implement the
// EXIT contract (spec.md §4.3's STOP(code)).
type Dispatcher func(id uint8, v *VM) (handled, stop bool, exitCode uint8)

// Run drives Step to completion, routing every syscall interrupt
// through dispatch and halting on the first fatal interrupt, a
// dispatched STOP, or step-budget exhaustion.
func (v *VM) Run(dispatch Dispatcher) Result {
	for {
		intr := v.Step()

		switch {
		case intr == IntrNone:
			continue

		case intr.IsFatal():
			return Result{
				Halted: true,
				Err:    intr,
				ErrMsg: intr.String(),
				Steps:  v.steps,
				Final:  v.snapshot(),
			}

		default: // syscall id
			// Registries key on 8-bit ids; a larger id is never recognized.
			handled, stop, code := false, false, uint8(0)
			if intr <= 0xFF {
				handled, stop, code = dispatch(uint8(intr), v)
			}
			if !handled {
				return Result{
					Halted: true,
					Err:    IntrUnknownSyscall,
					ErrMsg: IntrUnknownSyscall.String(),
					Steps:  v.steps,
					Final:  v.snapshot(),
				}
			}
			if stop {
				return Result{
					Halted:      false,
					Err:         IntrNone,
					HasExitCode: true,
					ExitCode:    code,
					Steps:       v.steps,
					Final:       v.snapshot(),
				}
			}
		}
	}
}
