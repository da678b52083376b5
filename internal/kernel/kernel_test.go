package kernel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtask-project/xtask/internal/task"
	"github.com/xtask-project/xtask/internal/wire"
)

// fakeCS is a minimal CSLink stub: SendRecv always answers with P0 copied
// from the request so synchronous kcalls round-trip predictably, and
// Notifications never fires unless a test pushes to notifyCh directly.
type fakeCS struct {
	notifyCh chan struct{}
	onSend   func(wire.Message) wire.Message
}

func newFakeCS() *fakeCS {
	return &fakeCS{notifyCh: make(chan struct{})}
}

func (f *fakeCS) SendRecv(ctx context.Context, msg wire.Message) (wire.Message, error) {
	if f.onSend != nil {
		return f.onSend(msg), nil
	}
	return wire.Message{Cmd: msg.Cmd, P0: msg.P0}, nil
}

func (f *fakeCS) Send(ctx context.Context, msg wire.Message) error { return nil }

func (f *fakeCS) Notifications() <-chan struct{} { return f.notifyCh }

func newTestKernel(t *testing.T, cs CSLink) *Kernel {
	t.Helper()
	return New(Config{ID: 1, TickPeriod: time.Millisecond, CS: cs})
}

func TestDelayTicksBlocksAndResumes(t *testing.T) {
	cs := newFakeCS()
	k := newTestKernel(t, cs)

	done := make(chan struct{})
	k.SpawnInitTask(1, 0, func(ctx task.Context, args any) {
		ctx.DelayTicks(50)
		close(done)
	}, nil)
	// Idle task keeps the scheduler non-empty once the delayed task parks.
	// It yields on every turn via a trivial delay kcall rather than
	// blocking outright, since a task must re-enter a kcall to be
	// cooperatively preemptible under this goroutine-per-task model.
	k.SpawnInitTask(2, 7, idleLoop, nil)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go k.Run(runCtx)

	select {
	case <-done:
		t.Fatal("task resumed before its delay expired")
	case <-time.After(20 * time.Millisecond):
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delayed task never resumed")
	}
}

func TestCreateTaskSchedulesNewGoroutine(t *testing.T) {
	cs := newFakeCS()
	k := newTestKernel(t, cs)

	spawned := make(chan uint32, 1)
	k.SpawnInitTask(1, 0, func(ctx task.Context, args any) {
		err := ctx.CreateTask(42, 1, func(ctx task.Context, args any) {
			spawned <- 42
			ctx.Exit()
		}, nil)
		require.NoError(t, err)
		ctx.Exit()
	}, nil)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go k.Run(runCtx)

	select {
	case id := <-spawned:
		assert.Equal(t, uint32(42), id)
	case <-time.After(2 * time.Second):
		t.Fatal("created task never ran")
	}
}

func TestVCReceiveBlocksWhenNoData(t *testing.T) {
	cs := newFakeCS()
	cs.onSend = func(m wire.Message) wire.Message {
		if m.Cmd == 2 {
			return wire.Message{P0: 0} // no data available
		}
		return wire.Message{P0: m.P0}
	}
	k := newTestKernel(t, cs)

	blocked := make(chan struct{})
	k.SpawnInitTask(1, 0, func(ctx task.Context, args any) {
		_, _ = ctx.VCReceive(7, 1)
		close(blocked)
	}, nil)
	k.SpawnInitTask(2, 7, idleLoop, nil)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go k.Run(runCtx)

	select {
	case <-blocked:
		t.Fatal("vc_receive should have blocked with no data available")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestPickTaskPrefersHighestPriority(t *testing.T) {
	cs := newFakeCS()
	k := newTestKernel(t, cs)

	low := task.New(1, 5, nil, nil)
	high := task.New(2, 0, nil, nil)
	k.enqueue(low)
	k.enqueue(high)

	picked := k.pickTask()
	assert.Same(t, high, picked)
}

// idleLoop is a well-behaved stand-in for a per-kernel idle task: it keeps
// the lowest priority's ready queue populated for tests that need a default
// runnable, yielding each turn via a trivial delay kcall so it stays
// resumable instead of parking on a channel the scheduler can never signal
// again.
func idleLoop(ctx task.Context, args any) {
	for {
		ctx.DelayTicks(1)
	}
}
