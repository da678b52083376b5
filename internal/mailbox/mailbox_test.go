package mailbox

import "testing"

func TestReceiveBeforeSendBlocksThenSendDelivers(t *testing.T) {
	mb := New(1)

	if _, ok := mb.Receive(1, 2); ok {
		t.Fatal("expected no pending message")
	}

	task, delivered := mb.Send(Message{From: 2, To: 1, Payload: []byte("hi")})
	if !delivered {
		t.Fatal("expected immediate delivery to the waiting receiver")
	}
	if task != 1 {
		t.Fatalf("got task %d, want 1", task)
	}
}

func TestSendBeforeReceiveQueuesThenReceiveMatchesFirst(t *testing.T) {
	mb := New(1)

	mb.Send(Message{From: 2, To: 1, Payload: []byte("first")})
	mb.Send(Message{From: 3, To: 1, Payload: []byte("second")})

	msg, ok := mb.Receive(1, Anywhere)
	if !ok {
		t.Fatal("expected a pending message")
	}
	if string(msg.Payload) != "first" {
		t.Fatalf("expected first-match FIFO order, got %q", msg.Payload)
	}
}

func TestReceiveFiltersBySender(t *testing.T) {
	mb := New(1)

	mb.Send(Message{From: 2, To: 1, Payload: []byte("from2")})
	mb.Send(Message{From: 3, To: 1, Payload: []byte("from3")})

	msg, ok := mb.Receive(1, 3)
	if !ok || string(msg.Payload) != "from3" {
		t.Fatalf("expected message from sender 3, got %+v ok=%v", msg, ok)
	}
}

func TestAnywhereWaiterMatchesAnySender(t *testing.T) {
	mb := New(1)

	mb.Receive(1, Anywhere)
	task, delivered := mb.Send(Message{From: 99, To: 1, Payload: []byte("x")})
	if !delivered || task != 1 {
		t.Fatalf("expected delivery to anywhere-waiter, got delivered=%v task=%d", delivered, task)
	}
}
