package kernel

import "github.com/xtask-project/xtask/internal/task"

// trapRequest is a task goroutine's kernel call, the Go-native analog of
// the hardware trap that original_source/xtask/src/kernel.c's
// xtask_kcall_handler receives as (callnr, kdata, kcall). It crosses from
// the calling task's goroutine to the kernel's run-loop goroutine over
// trapCh; the kernel is the only place kcall numbers are dispatched
// (spec.md §5, §9's "normal function-call boundary" guidance).
type trapRequest struct {
	task *task.Task
	call int
	p0   uint32
	p1   uint32
	p2   uint32
	p3   uint32
	p4   uint32
	p5   uint32
}

// kcall numbers, matching spec.md §4.1's table (and kernel.c's callnr == N
// branches) one for one.
const (
	callDelayTicks         = 1
	callCreateThread       = 2
	callVCReceive          = 3
	callVCGetWriteBuf      = 4
	callVCSend             = 5
	callCreateMailbox      = 6
	callCreateRemoteThread = 7
	callGetOutbox          = 8
	callSendOutbox         = 9
	callGetInbox           = 10
	callCreateTask         = 11
	callExit               = 12
)
