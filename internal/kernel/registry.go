package kernel

import (
	"sync"
	"sync/atomic"

	"github.com/xtask-project/xtask/internal/task"
)

// funcRegistry maps create_task's function-pointer and argument-pointer
// kcall parameters (originally literal addresses on the XS1 architecture,
// kernel.c callnr==11's "code = (task_code) kcall->p0") onto a Go-native
// table of task.Func and opaque argument values, since Go has no portable
// way to round-trip a closure through a uint32. Guarded by a mutex even
// though only one task runs at a time, because registration happens from
// the calling task's own goroutine before it traps into the kernel, not
// from the kernel's run-loop goroutine.
var (
	registryMu   sync.Mutex
	funcTable    = map[uint32]task.Func{}
	argTable     = map[uint32]any{}
	nextHandleID uint64
)

// registerTaskFunc stores fn and args, returning a handle pair usable as
// kcall parameters for create_task.
func registerTaskFunc(fn task.Func, args any) (fnHandle, argHandle uint32) {
	registryMu.Lock()
	defer registryMu.Unlock()
	fnHandle = uint32(atomic.AddUint64(&nextHandleID, 1))
	argHandle = uint32(atomic.AddUint64(&nextHandleID, 1))
	funcTable[fnHandle] = fn
	argTable[argHandle] = args
	return fnHandle, argHandle
}

func lookupFunc(handle uint32) task.Func {
	registryMu.Lock()
	defer registryMu.Unlock()
	fn := funcTable[handle]
	delete(funcTable, handle)
	return fn
}

func lookupArgs(handle uint32) any {
	registryMu.Lock()
	defer registryMu.Unlock()
	v := argTable[handle]
	delete(argTable, handle)
	return v
}
