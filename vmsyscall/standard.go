package vmsyscall

import (
	"gavm/maze"
	"gavm/vm"
)

// Standard syscall ids, matching original_source/syscalls.py and
// maze_syscalls.py.
const (
	Exit  uint8 = 0x00
	Putc  uint8 = 0x01
	MoveUp    uint8 = 0x10
	MoveDown  uint8 = 0x11
	MoveLeft  uint8 = 0x12
	MoveRight uint8 = 0x13
	GetFinishPos uint8 = 0x14
	GetPlayerPos uint8 = 0x15
)

// RegisterStandard wires EXIT and PUTC, the two calls available to
// every program regardless of task.
func RegisterStandard(r *Registry) {
	r.Register(Exit, handleExit)
	r.Register(Putc, handlePutc)
}

// RegisterMaze wires the four movement calls and the two position
// queries, for use only when ctx.Maze is non-nil.
func RegisterMaze(r *Registry) {
	r.Register(MoveUp, handleMove(maze.Up))
	r.Register(MoveDown, handleMove(maze.Down))
	r.Register(MoveLeft, handleMove(maze.Left))
	r.Register(MoveRight, handleMove(maze.Right))
	r.Register(GetFinishPos, handleGetFinishPos)
	r.Register(GetPlayerPos, handleGetPlayerPos)
}

// handleExit reads r0 as the exit code and stops the run, matching
// ExitSyscall.execute raising MiscVM.Stop(code).
func handleExit(v *vm.VM, ctx *Context) (bool, uint8) {
	return true, v.Registers()[0]
}

// handlePutc writes r0 as a character code to the configured stream.
func handlePutc(v *vm.VM, ctx *Context) (bool, uint8) {
	ctx.Output.Write(v.Registers()[0])
	return false, 0
}

func handleMove(dir maze.Direction) Handler {
	return func(v *vm.VM, ctx *Context) (bool, uint8) {
		ctx.Maze.Move(dir)
		return false, 0
	}
}

// handleGetFinishPos and handleGetPlayerPos set r0/r1 to (y, x),
// matching GetFinishPos/GetPlayerPos in maze_syscalls.py.
func handleGetFinishPos(v *vm.VM, ctx *Context) (bool, uint8) {
	regs := v.Registers()
	regs[0] = uint8(ctx.Maze.Finish.Y)
	regs[1] = uint8(ctx.Maze.Finish.X)
	return false, 0
}

func handleGetPlayerPos(v *vm.VM, ctx *Context) (bool, uint8) {
	regs := v.Registers()
	p := ctx.Maze.Player()
	regs[0] = uint8(p.Y)
	regs[1] = uint8(p.X)
	return false, 0
}
