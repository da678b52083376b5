package kernel

import (
	"context"
	"fmt"

	"github.com/xtask-project/xtask/internal/task"
	"github.com/xtask-project/xtask/internal/wire"
)

// installDispatch wires the 12-entry kcall table, one handler per branch of
// original_source/xtask/src/kernel.c's xtask_kcall_handler if/else chain.
func (k *Kernel) installDispatch() {
	k.dispatch[callDelayTicks-1] = handleDelayTicks
	k.dispatch[callCreateThread-1] = handleSyncSendRecv(1)
	k.dispatch[callVCReceive-1] = handleVCReceive
	k.dispatch[callVCGetWriteBuf-1] = handleSyncSendRecv(3)
	k.dispatch[callVCSend-1] = handleSyncSendRecv(4)
	k.dispatch[callCreateMailbox-1] = handleCreateMailbox
	k.dispatch[callCreateRemoteThread-1] = handleCreateRemoteThread
	k.dispatch[callGetOutbox-1] = handleSyncSendRecv(7)
	k.dispatch[callSendOutbox-1] = handleSendOutbox
	k.dispatch[callGetInbox-1] = handleGetInbox
	k.dispatch[callCreateTask-1] = handleCreateTask
	k.dispatch[callExit-1] = handleExit
}

// callErr is a string-backed error for fixed kernel-level failures, the
// same shape as wire's wireError.
type callErr string

func (e callErr) Error() string { return string(e) }

func errInvalidCallNr(n int) error {
	return callErr(fmt.Sprintf("kernel: invalid kcall number %d", n))
}

// completeImmediate stores req's result on its task and resumes it without
// touching the scheduler: current never changes, matching every kernel.c
// branch that just does _xtask_man_sendrec and returns (kcalls 2,4,5,6,8).
func (k *Kernel) completeImmediate(req *trapRequest, result any, err error) {
	req.task.SetTrapResult(result, err)
	req.task.Resume()
}

// handleDelayTicks implements kcall 1: add current to the delay list keyed
// by time+p0 ticks, then schedule the next task (kernel.c callnr==1).
func handleDelayTicks(k *Kernel, req *trapRequest) {
	t := k.current
	t.State = task.StateDelayed
	t.Expiry = k.time + uint64(req.p0)
	k.delay.Push(t)
	k.current = nil
	k.scheduleNext()
}

// handleSyncSendRecv builds a handler for every kcall that is a plain
// synchronous management round trip with no blocking at the kernel level:
// create_thread (cmd 1), vc_get_write_buf (cmd 3), vc_send (cmd 4),
// get_outbox (cmd 7). p0 from the reply becomes the task's return value,
// matching kernel.c's "kcall->p0 = msg.p0" pattern.
func handleSyncSendRecv(cmd uint32) kcallHandler {
	return func(k *Kernel, req *trapRequest) {
		msg := wire.Message{Cmd: cmd, P0: req.p0, P1: req.p1, P2: req.p2, P3: req.p3, P4: req.p4, P5: req.p5}
		reply, err := k.cs.SendRecv(context.Background(), msg)
		if err != nil {
			k.completeImmediate(req, nil, err)
			return
		}
		k.completeImmediate(req, reply.P0, nil)
	}
}

// handleVCReceive implements kcall 3: ask the CS for data; if none is
// available (reply.P0 == 0) block the caller on the VC handle until a
// notification unblocks it, otherwise return the buffer pointer directly
// (kernel.c callnr==3).
func handleVCReceive(k *Kernel, req *trapRequest) {
	msg := wire.Message{Cmd: 2, P0: req.p0, P1: req.p1}
	reply, err := k.cs.SendRecv(context.Background(), msg)
	if err != nil {
		k.completeImmediate(req, nil, err)
		return
	}
	if reply.P0 == 0 {
		k.blockCurrent(callVCReceive, req.p0)
		return
	}
	k.completeImmediate(req, reply.P0, nil)
}

// handleCreateMailbox implements kcall 6: register a mailbox with the CS
// under the calling task's id (kernel.c callnr==6).
func handleCreateMailbox(k *Kernel, req *trapRequest) {
	msg := wire.Message{Cmd: 5, P0: req.p0, P1: k.current.ID, P2: req.p1, P3: req.p2}
	reply, err := k.cs.SendRecv(context.Background(), msg)
	if err != nil {
		k.completeImmediate(req, nil, err)
		return
	}
	k.completeImmediate(req, reply.P0, nil)
}

// handleCreateRemoteThread implements kcall 7: fire a create-remote-thread
// request at the CS and block until the asynchronous reply (cmd 2) arrives
// with the new handle (kernel.c callnr==7).
func handleCreateRemoteThread(k *Kernel, req *trapRequest) {
	msg := wire.Message{Cmd: 6, P0: k.current.ID, P1: req.p0, P2: req.p1, P3: req.p2, P4: req.p3, P5: req.p4}
	if err := k.cs.Send(context.Background(), msg); err != nil {
		k.current.SetTrapResult(nil, err)
		k.current.Resume()
		return
	}
	k.blockCurrent(callCreateRemoteThread, k.current.ID)
}

// handleSendOutbox implements kcall 9: fire a send-outbox request and block
// until the CS's asynchronous reply (cmd 4) arrives (kernel.c callnr==9).
// The CS sends that reply once the message is delivered, queued or
// forwarded onto the ring.
func handleSendOutbox(k *Kernel, req *trapRequest) {
	msg := wire.Message{Cmd: 8, P0: req.p0, P1: req.p1}
	callerID := k.current.ID
	if err := k.cs.Send(context.Background(), msg); err != nil {
		k.current.SetTrapResult(nil, err)
		k.current.Resume()
		return
	}
	k.blockCurrent(callSendOutbox, callerID)
}

// handleGetInbox implements kcall 10: request inbox delivery (req.p1 is
// passed on as the Location, which the CS does not filter on) and block
// until the asynchronous reply (cmd 3) arrives (kernel.c callnr==10).
func handleGetInbox(k *Kernel, req *trapRequest) {
	msg := wire.Message{Cmd: 9, P0: req.p0, P1: req.p1}
	callerID := k.current.ID
	if err := k.cs.Send(context.Background(), msg); err != nil {
		k.current.SetTrapResult(nil, err)
		k.current.Resume()
		return
	}
	k.blockCurrent(callGetInbox, callerID)
}

// handleCreateTask implements kcall 11: allocate a new Task and enqueue it
// on its priority's ready queue; unlike the source's "always return 1",
// SPEC_FULL.md §6 resolves the return value to a nil error (see
// TaskContext.CreateTask).
func handleCreateTask(k *Kernel, req *trapRequest) {
	// p0 carries the pre-registered task.Func via the caller-side registry
	// (see context.go's funcRegistry); p2 priority, p3 task id, p4 args
	// index, matching kernel.c's (code, stack_size, priority, tid, args).
	fn := lookupFunc(req.p0)
	if fn == nil {
		k.completeImmediate(req, nil, errInvalidCallNr(int(req.p0)))
		return
	}
	args := lookupArgs(req.p4)
	t := task.New(req.p3, uint8(req.p2), fn, args)
	k.runGoroutine(t)
	k.enqueue(t)
	k.completeImmediate(req, nil, nil)
}

// handleExit implements the exit kcall: mark current dead and schedule the
// next task. The source has no explicit exit kcall (tasks simply never
// return); xtask adds one so a TaskFunc can terminate cleanly under Go's
// goroutine model instead of looping forever.
func handleExit(k *Kernel, req *trapRequest) {
	t := k.current
	t.State = task.StateDead
	k.current = nil
	t.MarkDone()
	k.scheduleNext()
}
