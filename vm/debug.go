package vm

import "gavm/isa"

// Render is a minimal textual rendering of what happened on one
// DebugStep cycle. cmd/gavm-debug composes these into its REPL output;
// disasm.Disassemble is not used here to keep vm free of a dependency
// on disasm (the debugger package wires both).
type Render struct {
	PC     uint8
	Lo, Hi byte

	// Preload is true for every cycle spent inside a .data block: the
	// cycle that detects the sentinel (PreloadHeader) and every
	// subsequent cycle that consumes one (addr, val) pair.
	Preload bool
	// PreloadHeader is true only on the cycle that detected the
	// sentinel word itself; Lo/Hi hold the raw sentinel bytes.
	PreloadHeader bool
	// PreloadEnd is true only on the cycle that consumed the (0, 0)
	// terminator pair; no memory write happens on this cycle.
	PreloadEnd bool
}

// DebugStep executes exactly one cycle like Step, but yields control
// one (addr, val) pair at a time while inside a .data block instead of
// consuming the whole block in a single call (spec.md §4.2's debug
// variant, "yields control before executing each instruction", applies
// to preload pairs too). It also returns a post-execution Snapshot, so
// a REPL can print "about to run X" then "state is now Y" around a
// single keypress.
func (v *VM) DebugStep() (Render, Snapshot, Interrupt) {
	pc := v.regs[isa.PCReg]

	if v.inPreload {
		// Read like preload() does: pairs are not charged against the
		// step budget.
		p := int(pc)
		if p+isa.InstructionLength > len(v.program) {
			return Render{PC: pc}, v.snapshot(), IntrIllegalPC
		}
		addr, val := v.program[p], v.program[p+1]
		v.regs[isa.PCReg] = uint8(p + isa.InstructionLength)

		render := Render{PC: pc, Lo: addr, Hi: val, Preload: true}

		if addr == 0 && val == 0 {
			v.inPreload = false
			render.PreloadEnd = true
			return render, v.snapshot(), IntrNone
		}

		if intr := v.writeMem(int(addr), val); intr != IntrNone {
			return render, v.snapshot(), intr
		}
		return render, v.snapshot(), IntrNone
	}

	if v.budget >= 0 && int64(v.steps) >= v.budget {
		return Render{PC: pc}, v.snapshot(), IntrMaxSteps
	}

	lo, hi, intr := v.fetch()
	if intr != IntrNone {
		return Render{PC: pc}, v.snapshot(), intr
	}

	render := Render{PC: pc, Lo: lo, Hi: hi}

	if v.firstFetch {
		v.firstFetch = false
		if isa.IsPreloadSentinel(lo, hi) {
			render.Preload = true
			render.PreloadHeader = true
			v.inPreload = true
			return render, v.snapshot(), IntrNone
		}
	}

	dec := isa.Decode(lo, hi)
	intr = v.execute(dec)
	return render, v.snapshot(), intr
}
