// Package mailbox implements inter-task mailboxes (spec.md §4.4): a task
// creates a mailbox via kcall create_mailbox, then exchanges Message
// values with other tasks via get_inbox/send_outbox. A Mailbox lives
// inside the owning tile's Communication Server, exactly like a Channel
// lives there (internal/vchan) — tasks never touch one directly.
package mailbox

import "container/list"

// Anywhere is the ITC_ANYWHERE wildcard: a get_inbox call with From ==
// Anywhere matches a pending send from any sender. Send does not look at a
// message's To field.
const Anywhere uint32 = 0

// Message is one mailbox payload in flight.
type Message struct {
	From    uint32
	To      uint32
	Payload []byte
}

type waiter struct {
	taskID uint32
	from   uint32
}

// Mailbox holds the pending-message queue (p_outbox in the source) and
// the waiting-receiver queue for one task's inbox. Both are FIFOs:
// spec.md §4.4's "exactly the first match" rule means the first entry in
// whichever queue satisfies a new arrival wins, not a priority search.
type Mailbox struct {
	Owner   uint32
	pending *list.List // of Message
	waiting *list.List // of waiter
}

// New creates an empty mailbox owned by the given task id.
func New(owner uint32) *Mailbox {
	return &Mailbox{Owner: owner, pending: list.New(), waiting: list.New()}
}

// Receive implements get_inbox: if a pending message already matches
// (msg.From == from, or from == Anywhere), it is removed and returned
// immediately. Otherwise the caller is registered as a waiter and ok is
// false, meaning the kernel should block the calling task until Deliver
// is later called on its behalf.
func (m *Mailbox) Receive(taskID, from uint32) (Message, bool) {
	for e := m.pending.Front(); e != nil; e = e.Next() {
		msg := e.Value.(Message)
		if from == Anywhere || msg.From == from {
			m.pending.Remove(e)
			return msg, true
		}
	}
	m.waiting.PushBack(waiter{taskID: taskID, from: from})
	return Message{}, false
}

// Send implements send_outbox: if a waiting receiver already matches
// (waiter.from == Anywhere, or waiter.from == msg.From), that receiver is
// removed and its task id returned so the kernel can unblock it directly
// with this message. Otherwise the message is queued as pending and
// delivered=false is returned, meaning the sender does not block further
// (send_outbox only blocks on the CS round trip, not on a recipient
// existing — spec.md §4.4).
func (m *Mailbox) Send(msg Message) (waitingTask uint32, delivered bool) {
	for e := m.waiting.Front(); e != nil; e = e.Next() {
		w := e.Value.(waiter)
		if w.from == Anywhere || w.from == msg.From {
			m.waiting.Remove(e)
			return w.taskID, true
		}
	}
	m.pending.PushBack(msg)
	return 0, false
}

// Deliver is the same operation as Send: it hands msg to the first
// matching waiter, or queues it as pending when no waiter matches.
func (m *Mailbox) Deliver(msg Message) (waitingTask uint32, delivered bool) {
	return m.Send(msg)
}
