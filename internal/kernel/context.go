package kernel

import "github.com/xtask-project/xtask/internal/task"

// TaskContext is the handle a running TaskFunc uses to make kernel calls.
// Every method sends a trapRequest to the owning Kernel's run loop and
// parks the calling goroutine on WaitTurn until the kernel resumes it —
// either immediately (kcalls that complete synchronously) or later, once
// some other event moves the task back onto a ready queue (kcalls that
// block). This is the "normal function-call boundary" spec.md §9 asks for
// in place of inline-asm register passing.
type TaskContext struct {
	k *Kernel
	t *task.Task
}

// newTaskContext binds a task to its owning kernel; called once per task
// goroutine just before running its Func.
func newTaskContext(k *Kernel, t *task.Task) *TaskContext {
	return &TaskContext{k: k, t: t}
}

// trap sends req on the kernel's trap channel and blocks until the kernel
// resumes this task, then returns whatever the kernel stored as the
// result.
func (tc *TaskContext) trap(call int, p0, p1, p2, p3, p4, p5 uint32) (any, error) {
	tc.k.trapCh <- &trapRequest{task: tc.t, call: call, p0: p0, p1: p1, p2: p2, p3: p3, p4: p4, p5: p5}
	tc.t.WaitTurn()
	return tc.t.TrapResult()
}

// DelayTicks implements kcall 1: delay the calling task for n ticks.
func (tc *TaskContext) DelayTicks(n uint32) {
	tc.trap(callDelayTicks, n, 0, 0, 0, 0, 0)
}

// CreateThread implements kcall 2: create a same-tile hardware thread with
// a channel. Returns the new handle.
func (tc *TaskContext) CreateThread(pc, stackWords, args, objSize, rxBufSize, txBufSize uint32) (uint32, error) {
	v, err := tc.trap(callCreateThread, pc, stackWords, args, objSize, rxBufSize, txBufSize)
	return asHandle(v), err
}

// VCReceive implements kcall 3: receive from a virtual channel, blocking
// the task if no data is yet available. Returns a buffer handle.
func (tc *TaskContext) VCReceive(handle, minReadSize uint32) (uint32, error) {
	v, err := tc.trap(callVCReceive, handle, minReadSize, 0, 0, 0, 0)
	return asHandle(v), err
}

// VCGetWriteBuf implements kcall 4: obtain a virtual channel's current
// write buffer.
func (tc *TaskContext) VCGetWriteBuf(handle uint32) (uint32, error) {
	v, err := tc.trap(callVCGetWriteBuf, handle, 0, 0, 0, 0, 0)
	return asHandle(v), err
}

// VCSend implements kcall 5: hand a filled write buffer to the peer
// hardware thread, returning the next buffer available for writing.
func (tc *TaskContext) VCSend(bufPtr uint32) (uint32, error) {
	v, err := tc.trap(callVCSend, bufPtr, 0, 0, 0, 0, 0)
	return asHandle(v), err
}

// CreateMailbox implements kcall 6: register a new mailbox owned by the
// calling task.
func (tc *TaskContext) CreateMailbox(id, inboxSize, outboxSize uint32) (uint32, error) {
	v, err := tc.trap(callCreateMailbox, id, inboxSize, outboxSize, 0, 0, 0)
	return asHandle(v), err
}

// CreateRemoteThread implements kcall 7: create a hardware thread on
// another tile, blocking until the Communication Server replies with the
// new handle.
func (tc *TaskContext) CreateRemoteThread(code, stackWords, objSize, rxBufSize, txBufSize uint32) (uint32, error) {
	v, err := tc.trap(callCreateRemoteThread, code, stackWords, objSize, rxBufSize, txBufSize, 0)
	return asHandle(v), err
}

// GetOutbox implements kcall 8: obtain a mailbox's outbox write buffer.
func (tc *TaskContext) GetOutbox(mailboxID uint32) (uint32, error) {
	v, err := tc.trap(callGetOutbox, mailboxID, 0, 0, 0, 0, 0)
	return asHandle(v), err
}

// SendOutbox implements kcall 9: send a mailbox's outbox to a recipient
// mailbox, blocking until the Communication Server has accepted the
// message: handed to a waiting receiver, queued in the recipient mailbox,
// or forwarded onto the ring. The returned error does not report whether
// delivery succeeded; the CS's status word is discarded.
func (tc *TaskContext) SendOutbox(senderMailbox, recipientMailbox uint32) error {
	_, err := tc.trap(callSendOutbox, senderMailbox, recipientMailbox, 0, 0, 0, 0)
	return err
}

// GetInbox implements kcall 10: block until mail arrives in the given
// mailbox. The Communication Server treats both Location values alike: a
// message from any sender, local or from the ring, satisfies the call.
func (tc *TaskContext) GetInbox(mailboxID uint32, where task.Location) (uint32, error) {
	v, err := tc.trap(callGetInbox, mailboxID, uint32(where), 0, 0, 0, 0)
	return asHandle(v), err
}

// CreateTask implements kcall 11: create a new task on this kernel at the
// given priority. SPEC_FULL.md §6 resolves the source's inconsistent
// return-value convention ("always returns 1" in one revision) to an
// idiomatic nil error.
func (tc *TaskContext) CreateTask(id uint32, priority uint8, fn task.Func, args any) error {
	fnHandle, argHandle := registerTaskFunc(fn, args)
	_, err := tc.trap(callCreateTask, fnHandle, 0, uint32(priority), id, argHandle, 0)
	return err
}

// Exit implements the task-termination kcall: marks the task dead and
// yields the core to the scheduler. Never returns.
func (tc *TaskContext) Exit() {
	tc.trap(callExit, 0, 0, 0, 0, 0, 0)
	select {}
}

func asHandle(v any) uint32 {
	u, _ := v.(uint32)
	return u
}

// runGoroutine starts t's backing goroutine: it parks immediately, waiting
// for its first turn as current, then runs its Func to completion and
// exits the kernel cleanly, matching the source's convention that a
// task's code function never returns on its own (here, a return is treated
// the same as an explicit Exit kcall).
func (k *Kernel) runGoroutine(t *task.Task) {
	go func() {
		t.WaitTurn()
		tc := newTaskContext(k, t)
		t.Code(tc, t.Args)
		tc.Exit()
	}()
}

var _ task.Context = (*TaskContext)(nil)
