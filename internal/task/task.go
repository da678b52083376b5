// Package task defines the Task record and the per-core containers a
// Kernel moves a Task through: per-priority ready queues, a delay heap
// ordered by expiry tick, and a block list. A Task lives in exactly one of
// {current, ready[prio], delay, blocked, dead} at any quiescent instant
// (spec.md §3, §8) — State is updated only by the kernel's single goroutine,
// so no locking is needed here, mirroring the block-device runner's single-owner tag state
// (internal/queue/runner.go's TagState).
package task

// State is the task lifecycle state (spec.md §3's "exactly one of").
type State int

const (
	StateReady State = iota
	StateCurrent
	StateDelayed
	StateBlocked
	StateDead
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateCurrent:
		return "current"
	case StateDelayed:
		return "delayed"
	case StateBlocked:
		return "blocked"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// BlockedCall records the kcall a task is parked on, so the async
// notification handler (spec.md §4.1) can match a CS reply back to it.
type BlockedCall struct {
	CallNr int
	// P0 is the match key recorded at block time: a VC handle for
	// vc_receive, or the blocked task's own id (create_remote_thread,
	// send_outbox, get_inbox).
	P0 uint32
	// Result is not used by the kernel: a blocked task receives its return
	// value through SetTrapResult and Resume.
	Result chan uint32
}

// Location is get_inbox's where argument (spec.md §4.4): the local tile
// only, or anywhere on the ring. The Communication Server treats both
// values alike and accepts mail from any sender.
type Location uint32

const (
	LocationLocal    Location = 0
	LocationAnywhere Location = 1
)

// Context is the interface a Task's Func uses to make kernel calls (the 12
// kcalls of spec.md §4.1). The concrete implementation, kernel.TaskContext,
// lives in package kernel to avoid an import cycle (kernel already imports
// task); Context names only the methods a task body needs, the same way
// the block-device runner's internal/interfaces.Backend lets internal/queue depend on an
// interface instead of a concrete backend type.
type Context interface {
	DelayTicks(n uint32)
	CreateThread(pc, stackWords, args, objSize, rxBufSize, txBufSize uint32) (uint32, error)
	VCReceive(handle, minReadSize uint32) (uint32, error)
	VCGetWriteBuf(handle uint32) (uint32, error)
	VCSend(bufPtr uint32) (uint32, error)
	CreateMailbox(id, inboxSize, outboxSize uint32) (uint32, error)
	CreateRemoteThread(code, stackWords, objSize, rxBufSize, txBufSize uint32) (uint32, error)
	GetOutbox(mailboxID uint32) (uint32, error)
	SendOutbox(senderMailbox, recipientMailbox uint32) error
	GetInbox(mailboxID uint32, where Location) (uint32, error)
	CreateTask(id uint32, priority uint8, fn Func, args any) error
	Exit()
}

// Func is the body of a task: run on its own goroutine, given a Context
// back into its owning kernel and the opaque argument value create_task/
// create_init_task pass through (spec.md §4.1 kcall 11).
type Func func(ctx Context, args any)

// Task is xtask's schedulable unit (spec.md §3).
type Task struct {
	ID       uint32
	Priority uint8
	Code     Func
	Args     any

	State State
	// Expiry is the tick at which a delayed task becomes ready again; only
	// meaningful while State == StateDelayed.
	Expiry uint64
	// Blocked records the kcall this task is parked on; only meaningful
	// while State == StateBlocked.
	Blocked *BlockedCall

	// resume is sent to exactly once by the kernel when this task becomes
	// current: the Go-native analog of a hardware context switch (spec.md
	// §9's guidance to replace register-passing with a normal call
	// boundary — here, a channel handoff instead of a stack swap).
	resume chan struct{}
	// done signals the task has finished: MarkDone closes it when the task
	// makes the exit kcall (also made implicitly after its Func returns).
	done chan struct{}

	// heapIndex is maintained by the delay heap (container/heap requires
	// each element to track its own slot for O(log n) removal).
	heapIndex int

	// trapResult/trapErr carry a kcall's return value across the resume
	// handoff. The kernel writes these before calling Resume; the caller
	// reads them after WaitTurn returns. Safe without a lock because the
	// channel send/receive pair in Resume/WaitTurn establishes
	// happens-before under the Go memory model, the same way the block-device runner's
	// runner hands a completion back across its own channel rendezvous.
	trapResult any
	trapErr    error
}

// New constructs a Task in StateReady with its handoff channels allocated.
func New(id uint32, priority uint8, code Func, args any) *Task {
	return &Task{
		ID:        id,
		Priority:  priority,
		Code:      code,
		Args:      args,
		State:     StateReady,
		resume:    make(chan struct{}),
		done:      make(chan struct{}),
		heapIndex: -1,
	}
}

// Resume wakes the task's goroutine; must be called by the kernel's single
// run-loop goroutine, and at most once per scheduling decision.
func (t *Task) Resume() { t.resume <- struct{}{} }

// WaitTurn parks the calling (task) goroutine until the kernel schedules it.
func (t *Task) WaitTurn() { <-t.resume }

// MarkDone closes the done channel; idempotent-safe only when called once,
// matching a task exiting exactly once.
func (t *Task) MarkDone() { close(t.done) }

// Done returns the channel closed when the task's goroutine has returned.
func (t *Task) Done() <-chan struct{} { return t.done }

// SetTrapResult stores a kcall's return value, to be read by the task's own
// goroutine the next time it wakes up as current. Called only by the
// kernel's run-loop goroutine, strictly before the matching Resume.
func (t *Task) SetTrapResult(v any, err error) {
	t.trapResult = v
	t.trapErr = err
}

// TrapResult returns the value stored by the most recent SetTrapResult.
func (t *Task) TrapResult() (any, error) { return t.trapResult, t.trapErr }
