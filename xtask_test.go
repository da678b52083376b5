package xtask

import (
	"context"
	"testing"
	"time"

	"github.com/xtask-project/xtask/internal/cs"
	"github.com/xtask-project/xtask/internal/ring"
	"github.com/xtask-project/xtask/internal/task"
)

// TestBootDelayTaskExitsCleanly exercises scenario 1 end to end: a task
// delays, toggles an LEDRecorder, and exits, and Shutdown/Wait return
// cleanly once the tick loop is canceled.
func TestBootDelayTaskExitsCleanly(t *testing.T) {
	leds := &LEDRecorder{}
	done := make(chan struct{})

	blink := func(tc task.Context, args any) {
		tc.DelayTicks(2)
		leds.Set(true)
		close(done)
		tc.Exit()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sys, err := Boot(ctx, SystemConfig{
		Tiles: []TileConfig{{
			Kernel:    KernelConfig{ID: 0, TickPeriod: time.Millisecond},
			InitTasks: []InitTask{{ID: 1, Priority: 0, Func: blink}},
		}},
	}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
	if got := leds.Transitions(); len(got) != 1 || !got[0] {
		t.Fatalf("unexpected LED transitions: %v", got)
	}

	sys.Shutdown()
	if err := sys.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

// TestBootCreateTaskSpawnsChild exercises scenario 2: a running task calls
// create_task at runtime.
func TestBootCreateTaskSpawnsChild(t *testing.T) {
	childRan := make(chan string, 1)

	child := func(tc task.Context, args any) {
		name, _ := args.(string)
		childRan <- name
		tc.Exit()
	}
	spawner := func(tc task.Context, args any) {
		if err := tc.CreateTask(2, 1, child, "hello"); err != nil {
			t.Errorf("CreateTask: %v", err)
		}
		tc.Exit()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sys, err := Boot(ctx, SystemConfig{
		Tiles: []TileConfig{{
			Kernel:    KernelConfig{ID: 0, TickPeriod: time.Millisecond},
			InitTasks: []InitTask{{ID: 1, Priority: 0, Func: spawner}},
		}},
	}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	select {
	case name := <-childRan:
		if name != "hello" {
			t.Fatalf("unexpected child args: %q", name)
		}
	case <-time.After(time.Second):
		t.Fatal("child task never ran")
	}

	sys.Shutdown()
	_ = sys.Wait()
}

// TestBootSameTileMailboxDelivers exercises scenario 3: two tasks on one
// tile exchange a mailbox message.
func TestBootSameTileMailboxDelivers(t *testing.T) {
	received := make(chan uint32, 1)

	receiver := func(tc task.Context, args any) {
		if _, err := tc.CreateMailbox(1, 64, 64); err != nil {
			t.Errorf("CreateMailbox: %v", err)
			return
		}
		buf, err := tc.GetInbox(1, task.LocationAnywhere)
		if err != nil {
			t.Errorf("GetInbox: %v", err)
			return
		}
		received <- buf
	}
	sender := func(tc task.Context, args any) {
		if _, err := tc.CreateMailbox(2, 64, 64); err != nil {
			t.Errorf("CreateMailbox: %v", err)
			return
		}
		tc.DelayTicks(2)
		buf, err := tc.GetOutbox(2)
		if err != nil {
			t.Errorf("GetOutbox: %v", err)
			return
		}
		if err := tc.SendOutbox(2, 1); err != nil {
			t.Errorf("SendOutbox: %v", err)
			return
		}
		_ = buf
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sys, err := Boot(ctx, SystemConfig{
		Tiles: []TileConfig{{
			Kernel: KernelConfig{ID: 0, TickPeriod: time.Millisecond},
			InitTasks: []InitTask{
				{ID: 1, Priority: 0, Func: receiver},
				{ID: 2, Priority: 0, Func: sender},
			},
		}},
	}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("mailbox message never delivered")
	}

	sys.Shutdown()
	_ = sys.Wait()
}

// TestBootCrossTileMailboxForwards exercises scenario 6: two tiles joined
// by a ring transport forward a mailbox send to the tile that owns the
// recipient mailbox.
func TestBootCrossTileMailboxForwards(t *testing.T) {
	received := make(chan uint32, 1)

	receiver := func(tc task.Context, args any) {
		if _, err := tc.CreateMailbox(1, 64, 64); err != nil {
			t.Errorf("CreateMailbox: %v", err)
			return
		}
		buf, err := tc.GetInbox(1, task.LocationAnywhere)
		if err != nil {
			t.Errorf("GetInbox: %v", err)
			return
		}
		received <- buf
	}
	sender := func(tc task.Context, args any) {
		if _, err := tc.CreateMailbox(2, 64, 64); err != nil {
			t.Errorf("CreateMailbox: %v", err)
			return
		}
		tc.DelayTicks(2)
		if _, err := tc.GetOutbox(2); err != nil {
			t.Errorf("GetOutbox: %v", err)
			return
		}
		if err := tc.SendOutbox(2, 1); err != nil {
			t.Errorf("SendOutbox: %v", err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transports := ring.NewRing(2, 4)
	sys, err := Boot(ctx, SystemConfig{
		Tiles: []TileConfig{
			{
				Kernel:    KernelConfig{ID: 0, TickPeriod: time.Millisecond},
				Transport: transports[0],
				InitTasks: []InitTask{{ID: 1, Priority: 0, Func: receiver}},
			},
			{
				Kernel:    KernelConfig{ID: 1, TickPeriod: time.Millisecond},
				Transport: transports[1],
				InitTasks: []InitTask{{ID: 1, Priority: 0, Func: sender}},
			},
		},
	}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("cross-tile mailbox message never delivered")
	}

	sys.Shutdown()
	_ = sys.Wait()
}

// TestBootWorkerChannelRoundTrip exercises scenarios 4 and 5: a task sends
// an object to a dedicated worker and receives the worker's reply on the
// same channel.
func TestBootWorkerChannelRoundTrip(t *testing.T) {
	handleReady := make(chan uint32, 1)
	roundTripped := make(chan uint32, 1)

	worked := func(tc task.Context, args any) {
		handle, err := tc.CreateThread(0, 0, 0, 4, 16, 16)
		if err != nil {
			t.Errorf("CreateThread: %v", err)
			return
		}
		handleReady <- handle
		// Give the test a moment to attach its worker before the pump
		// needs it, since vc_send drops the buffer when no worker is
		// attached rather than waiting for one.
		tc.DelayTicks(20)

		wbuf, err := tc.VCGetWriteBuf(handle)
		if err != nil {
			t.Errorf("VCGetWriteBuf: %v", err)
			return
		}
		if _, err := tc.VCSend(wbuf); err != nil {
			t.Errorf("VCSend: %v", err)
			return
		}
		buf, err := tc.VCReceive(handle, 1)
		if err != nil {
			t.Errorf("VCReceive: %v", err)
			return
		}
		roundTripped <- buf
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sys, err := Boot(ctx, SystemConfig{
		Tiles: []TileConfig{{
			Kernel:    KernelConfig{ID: 0, TickPeriod: time.Millisecond},
			InitTasks: []InitTask{{ID: 1, Priority: 0, Func: worked}},
		}},
	}, nil)
	if err != nil {
		t.Fatalf("Boot: %v", err)
	}

	var handle uint32
	select {
	case handle = <-handleReady:
	case <-time.After(time.Second):
		t.Fatal("create_thread never completed")
	}
	w := &echoWorker{cs: sys.CS(0), handle: handle}
	if !sys.CS(0).AttachWorker(handle, w) {
		t.Fatal("channel disappeared before it could be attached")
	}

	select {
	case <-roundTripped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker round trip never completed")
	}

	sys.Shutdown()
	_ = sys.Wait()
}

// echoWorker mirrors cmd/xtask-worker's demo worker: it republishes every
// buffer it is handed back into the channel's read half.
type echoWorker struct {
	cs     *cs.CS
	handle uint32
}

func (w *echoWorker) Resume() {}

func (w *echoWorker) Deliver(data []byte) {
	echoed := append([]byte(nil), data...)
	go w.cs.Arrive(w.handle, echoed)
}
