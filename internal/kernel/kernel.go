package kernel

import (
	"context"
	"time"

	"github.com/xtask-project/xtask/internal/constants"
	"github.com/xtask-project/xtask/internal/logging"
	"github.com/xtask-project/xtask/internal/task"
)

// Kernel is a single core's scheduler: multi-level priority ready queues, a
// delay heap, a block list and exactly one current task. Every field below
// is mutated only from Run's goroutine — no lock guards them, mirroring
// the block-device runner's queue.Runner owning its tag table outright.
type Kernel struct {
	id  uint32
	log *logging.Logger

	ready      [constants.NumPriorities]*task.ReadyQueue
	delay      *task.DelayHeap
	block      *task.BlockList
	current    *task.Task
	time       uint64
	tickPeriod time.Duration

	cs      CSLink
	trapCh  chan *trapRequest
	nextTID uint32

	dispatch [callExit]kcallHandler
}

// kcallHandler processes one trapRequest. Handlers that complete
// synchronously call k.completeImmediate; handlers that block call
// k.blockCurrent, which hands control to k.scheduleNext itself.
type kcallHandler func(k *Kernel, req *trapRequest)

// Config configures a single kernel instance.
type Config struct {
	ID         uint32
	TickPeriod time.Duration
	Log        *logging.Logger
	CS         CSLink
}

// New constructs a Kernel with empty ready queues, matching
// original_source/xtask/src/kernel.c's xtask_kernel initialization of
// kdata->sched_head[0..7], delay_head and block_head.
func New(cfg Config) *Kernel {
	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = constants.DefaultTickPeriod
	}
	log := cfg.Log
	if log == nil {
		log = logging.Default()
	}
	k := &Kernel{
		id:         cfg.ID,
		log:        log.Named("kernel").With("kernel", cfg.ID),
		delay:      task.NewDelayHeap(),
		block:      task.NewBlockList(),
		tickPeriod: cfg.TickPeriod,
		cs:         cfg.CS,
		trapCh:     make(chan *trapRequest),
	}
	for i := range k.ready {
		k.ready[i] = task.NewReadyQueue(constants.DefaultReadyQueueCapacity)
	}
	k.installDispatch()
	return k
}

// SpawnInitTask registers a task before the kernel's run loop starts,
// mirroring xtask_create_init_task (kernel.c line 75): used for
// SystemConfig.InitTasks, distinct from the runtime create_task path
// (kcall 11), which only a running task can reach. The kernel creates no
// idle task of its own.
func (k *Kernel) SpawnInitTask(id uint32, priority uint8, fn task.Func, args any) *task.Task {
	t := task.New(id, priority, fn, args)
	k.runGoroutine(t)
	k.enqueue(t)
	return t
}

// NewTaskID hands out monotonically increasing task ids. Neither the init
// task path nor the create_task kcall handler calls it: both take the task
// id from their caller.
func (k *Kernel) NewTaskID() uint32 {
	k.nextTID++
	return k.nextTID
}

// enqueue appends t to its priority's ready queue and marks it Ready
// (task.c's xtask_enqueue, generalized from an intrusive linked list to a
// fixed-capacity ring buffer per spec.md §9).
func (k *Kernel) enqueue(t *task.Task) {
	t.State = task.StateReady
	if !k.ready[t.Priority].Push(t) {
		k.log.Warn("ready queue full, dropping task", "task", t.ID, "priority", t.Priority)
	}
}

// pickTask chooses the next current task: the head of the highest-priority
// non-empty ready queue (task.c's xtask_pick_task, multi-level queue
// scheduling, priority 0 highest).
func (k *Kernel) pickTask() *task.Task {
	for i := range k.ready {
		if k.ready[i].Len() > 0 {
			return k.ready[i].Pop()
		}
	}
	return nil
}

// scheduleNext picks the next task, makes it current and resumes its
// goroutine. Called with k.current already nil or already re-enqueued.
func (k *Kernel) scheduleNext() {
	next := k.pickTask()
	if next == nil {
		// No ready task: the kernel creates no idle task, so current stays
		// nil until a later tick or CS notification makes a task ready.
		k.log.Warn("no ready task to schedule", "kernel", k.id)
		return
	}
	next.State = task.StateCurrent
	k.current = next
	next.Resume()
}

// Run drives the kernel's tick loop, trap dispatch and asynchronous
// notification handling until ctx is canceled. It never returns otherwise,
// mirroring xtask_kernel's "this function never returns" contract, expressed
// in Go as a blocking loop instead of a tail call into the first task.
func (k *Kernel) Run(ctx context.Context) error {
	ticker := time.NewTicker(k.tickPeriod)
	defer ticker.Stop()

	if k.current == nil {
		k.scheduleNext()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			k.tick()
		case req := <-k.trapCh:
			k.handleTrap(req)
		case <-k.cs.Notifications():
			k.notHandler(ctx)
		}
	}
}

// tick advances kernel time by one period, wakes any delayed tasks whose
// expiry has arrived, and resolves the Open Question on tick preemption:
// if the highest-priority ready task now outranks current, current is
// re-enqueued and the higher-priority task takes over immediately
// (SPEC_FULL.md §5), matching xtask_check_delayed_tasks plus the preemptive
// re-enqueue-and-switch behavior the async notification handler already
// performs unconditionally.
func (k *Kernel) tick() {
	k.time++
	for {
		expiry, ok := k.delay.PeekExpiry()
		if !ok || expiry > k.time {
			break
		}
		k.enqueue(k.delay.Pop())
	}
	k.maybePreempt()
}

// maybePreempt re-enqueues current and switches to a strictly
// higher-priority ready task, if one exists.
func (k *Kernel) maybePreempt() {
	if k.current == nil {
		k.scheduleNext()
		return
	}
	for i := 0; i < int(k.current.Priority); i++ {
		if k.ready[i].Len() > 0 {
			preempted := k.current
			k.current = nil
			k.enqueue(preempted)
			k.scheduleNext()
			return
		}
	}
}

// handleTrap dispatches one kcall through the fixed table (kernel.c's
// xtask_kcall_handler if/else chain, expressed as an indexed array the way
// the block-device runner's handleCompletion switches on state).
func (k *Kernel) handleTrap(req *trapRequest) {
	if req.call < 1 || req.call > len(k.dispatch) {
		req.task.SetTrapResult(nil, errInvalidCallNr(req.call))
		k.current = nil
		k.scheduleNext()
		return
	}
	k.dispatch[req.call-1](k, req)
}

// blockCurrent parks k.current on the block list under the given match
// data and hands control to the scheduler, mirroring every "add process to
// block list ... invoke scheduler" block in kernel.c's kcall_handler.
func (k *Kernel) blockCurrent(callNr int, matchKey uint32) {
	t := k.current
	t.State = task.StateBlocked
	t.Blocked = &task.BlockedCall{CallNr: callNr, P0: matchKey}
	k.block.Add(t)
	k.current = nil
	k.scheduleNext()
}
