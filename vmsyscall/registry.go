// Package vmsyscall implements the syscall handlers a VM run dispatches
// into: the standard I/O calls (EXIT, PUTC) and the maze-navigation
// calls the genetic harness scores against.
//
// Grounded on original_source/syscalls.py's class-registry pattern
// (Syscall.__init_subclass__ populating a global id->class table) and
// original_source/maze_syscalls.py's concrete handlers; reshaped into
// Go as a plain id->func map built explicitly at construction time
// rather than relying on init-time side effects, matching the
// teacher's preference for explicit wiring over package-level magic
// (see emu/core/core.go's Start taking its dependencies as arguments).
package vmsyscall

import (
	"gavm/maze"
	"gavm/vm"
)

// Context bundles the mutable collaborators a handler needs beyond the
// *vm.VM itself: the output stream for PUTC and the maze for movement
// and position queries. A run that has no maze (non-maze programs)
// leaves Maze nil; handlers that need it must be excluded from the
// registry in that case.
type Context struct {
	Output *OutputStream
	Maze   *maze.Maze
}

// Handler services one syscall id. It returns whether the run should
// stop and, if so, the exit code — mirroring vm.Dispatcher's contract.
type Handler func(v *vm.VM, ctx *Context) (stop bool, exitCode uint8)

// Registry maps syscall ids to handlers.
type Registry struct {
	handlers map[uint8]Handler
	ctx      *Context
}

// NewRegistry builds an empty registry bound to ctx. Use Register,
// RegisterStandard or RegisterMaze to populate it.
func NewRegistry(ctx *Context) *Registry {
	return &Registry{handlers: make(map[uint8]Handler), ctx: ctx}
}

// Register adds or replaces the handler for id.
func (r *Registry) Register(id uint8, h Handler) {
	r.handlers[id] = h
}

// Dispatcher adapts the registry to vm.Dispatcher.
func (r *Registry) Dispatcher() vm.Dispatcher {
	return func(id uint8, v *vm.VM) (handled, stop bool, exitCode uint8) {
		h, ok := r.handlers[id]
		if !ok {
			return false, false, 0
		}
		stop, exitCode = h(v, r.ctx)
		return true, stop, exitCode
	}
}
