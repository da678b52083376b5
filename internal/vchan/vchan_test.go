package vchan

import (
	"bytes"
	"testing"

	"github.com/xtask-project/xtask/internal/constants"
)

func TestReceiveBlocksThenArrivalWakesIt(t *testing.T) {
	h := NewHalf(64)
	defer h.Release()

	if _, ok, _ := h.Receive(4); ok {
		t.Fatal("expected no data available")
	}
	if !h.taskBlock {
		t.Fatal("expected TASK_BLOCK to be set after a failed receive")
	}

	notify, data, blocked := h.Arrival([]byte("ping"))
	if blocked {
		t.Fatal("arrival should have found a free buffer")
	}
	if !notify {
		t.Fatal("arrival should satisfy the blocked receiver")
	}
	if string(data) != "ping" {
		t.Fatalf("got %q, want %q", data, "ping")
	}
}

func TestReceivePrefersFirstFilledBuffer(t *testing.T) {
	h := NewHalf(64)
	defer h.Release()

	// Fill both buffers without a pending receive (taskBlock false), so
	// Arrival returns notify=false but still records FIRST on whichever
	// filled earlier.
	if notify, _, blocked := h.Arrival(bytes.Repeat([]byte{1}, 64)); notify || blocked {
		t.Fatalf("unexpected notify=%v blocked=%v", notify, blocked)
	}
	if notify, _, blocked := h.Arrival(bytes.Repeat([]byte{2}, 64)); notify || blocked {
		t.Fatalf("unexpected notify=%v blocked=%v", notify, blocked)
	}

	data, ok, _ := h.Receive(0)
	if !ok {
		t.Fatal("expected a filled buffer to be returned")
	}
	if data[0] != 1 {
		t.Fatalf("got the buffer filled second (first byte %d), want the one filled first", data[0])
	}
}

func TestArrivalBlocksWhenNoFreeBuffer(t *testing.T) {
	h := NewHalf(8)
	defer h.Release()

	h.Arrival(make([]byte, 8))
	h.Arrival(make([]byte, 8))
	_, _, blocked := h.Arrival(make([]byte, 8))
	if !blocked {
		t.Fatal("expected CS_BLOCK once both buffers are filled")
	}
	if !h.csBlock {
		t.Fatal("expected csBlock flag set")
	}
}

func TestReceiveWakesBlockedWorker(t *testing.T) {
	h := NewHalf(8)
	defer h.Release()

	h.Arrival(make([]byte, 8))
	h.Arrival(make([]byte, 8))
	h.Arrival(make([]byte, 8)) // blocks CS

	if _, ok, _ := h.Receive(0); !ok {
		t.Fatal("expected a buffer to be available")
	}
	// The next receive releases the buffer the first one handed out.
	_, ok, wake := h.Receive(0)
	if !ok {
		t.Fatal("expected a buffer to be available")
	}
	if !wake {
		t.Fatal("expected wake=true since a buffer just freed up while csBlock was set")
	}
}

func TestBeginFillCompleteFillDrain(t *testing.T) {
	h := NewHalf(16)
	defer h.Release()

	buf, ok := h.BeginFill()
	if !ok {
		t.Fatal("expected a free buffer")
	}
	n := copy(buf, "hello")
	h.CompleteFill(buf, n)

	data, ok := h.Drain()
	if !ok {
		t.Fatal("expected a filled buffer to drain")
	}
	if string(data) != "hello" {
		t.Fatalf("got %q, want %q", data, "hello")
	}
	h.Consumed(data)

	if _, ok := h.Drain(); ok {
		t.Fatal("expected nothing left to drain after Consumed")
	}
}

func TestChannelNewUsesDefaultCapacity(t *testing.T) {
	c := New(1, 4, 0)
	defer c.Close()
	if cap(c.FromWorker.bufs[0].data) == 0 {
		t.Fatal("expected allocated buffers")
	}
	if c.FromWorker.capacity != constants.DefaultVCBufferCapacity || c.ToWorker.capacity != constants.DefaultVCBufferCapacity {
		t.Fatalf("got capacities %d/%d, want %d", c.FromWorker.capacity, c.ToWorker.capacity, constants.DefaultVCBufferCapacity)
	}
}
