package cs

import (
	"context"
	"testing"

	"github.com/xtask-project/xtask/internal/wire"
)

func TestCreateThreadThenVCReceiveRoundTrip(t *testing.T) {
	c := New(Config{ID: 1})
	ctx := context.Background()

	created, err := c.SendRecv(ctx, wire.Message{Cmd: 1, P3: 4, P4: 64, P5: 64})
	if err != nil {
		t.Fatal(err)
	}
	handle := created.P0
	if handle == 0 {
		t.Fatal("expected a nonzero channel handle")
	}

	empty, err := c.SendRecv(ctx, wire.Message{Cmd: 2, P0: handle, P1: 4})
	if err != nil {
		t.Fatal(err)
	}
	if empty.P0 != 0 {
		t.Fatal("expected no data before any arrival")
	}

	c.Arrive(handle, []byte("ping"))

	select {
	case <-c.Notifications():
	default:
		t.Fatal("expected a vc-ready notification after arrival")
	}
	detail, err := c.SendRecv(ctx, wire.Message{Cmd: 10})
	if err != nil {
		t.Fatal(err)
	}
	if detail.Cmd != 1 || detail.P0 != handle {
		t.Fatalf("unexpected notification detail %+v", detail)
	}
}

func TestVCSendPumpsThroughWriteHalf(t *testing.T) {
	c := New(Config{ID: 1})
	ctx := context.Background()

	created, _ := c.SendRecv(ctx, wire.Message{Cmd: 1, P3: 4, P4: 64, P5: 64})
	handle := created.P0

	wbuf, _ := c.SendRecv(ctx, wire.Message{Cmd: 3, P0: handle})
	if wbuf.P0 == 0 {
		t.Fatal("expected a write buffer token")
	}
	c.mu.Lock()
	buf := c.bufs[wbuf.P0]
	c.mu.Unlock()
	copy(buf, "hello")

	next, err := c.SendRecv(ctx, wire.Message{Cmd: 4, P0: wbuf.P0})
	if err != nil {
		t.Fatal(err)
	}
	if next.P0 == 0 {
		t.Fatal("expected vc_send to hand back a fresh write buffer")
	}
}

func TestMailboxCreateSendReceive(t *testing.T) {
	c := New(Config{ID: 1})
	ctx := context.Background()

	receiver, _ := c.SendRecv(ctx, wire.Message{Cmd: 5, P0: 1, P1: 100})
	sender, _ := c.SendRecv(ctx, wire.Message{Cmd: 5, P0: 2, P1: 200})

	if err := c.Send(ctx, wire.Message{Cmd: 9, P0: receiver.P0, P1: 1}); err != nil {
		t.Fatal(err)
	}

	outbox, _ := c.SendRecv(ctx, wire.Message{Cmd: 7, P0: sender.P0})
	c.mu.Lock()
	copy(c.bufs[outbox.P0], "hi there")
	c.mu.Unlock()

	if err := c.Send(ctx, wire.Message{Cmd: 8, P0: sender.P0, P1: receiver.P0}); err != nil {
		t.Fatal(err)
	}

	seen := map[uint32]wire.Message{}
	for i := 0; i < 2; i++ {
		<-c.Notifications()
		detail, err := c.SendRecv(ctx, wire.Message{Cmd: 10})
		if err != nil {
			t.Fatal(err)
		}
		seen[detail.Cmd] = detail
	}
	if got, ok := seen[3]; !ok || got.P0 != 100 {
		t.Fatalf("expected inbox-ready for task 100, got %+v", seen)
	}
	if got, ok := seen[4]; !ok || got.P0 != 200 {
		t.Fatalf("expected outbox-sent for task 200, got %+v", seen)
	}
}
