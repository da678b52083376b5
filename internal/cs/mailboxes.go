package cs

import (
	"github.com/xtask-project/xtask/internal/mailbox"
	"github.com/xtask-project/xtask/internal/task"
	"github.com/xtask-project/xtask/internal/wire"
)

// createMailbox implements management cmd 5: register a mailbox under the
// id the task chose and return that id (spec.md §4.4). msg.P0 is the
// mailbox id, msg.P1 the owning task id (see kernel.handleCreateMailbox).
func (c *CS) createMailbox(msg wire.Message) wire.Message {
	id := msg.P0
	c.mailboxes[id] = mailbox.New(msg.P1)
	return wire.Message{Cmd: msg.Cmd, P0: id}
}

// getOutbox implements management cmd 7: allocate a scratch write buffer
// the task will fill before calling send_outbox. The buffer is tracked
// under a fresh token keyed to this mailbox so sendOutbox can find it.
func (c *CS) getOutbox(msg wire.Message) wire.Message {
	mbID := msg.P0
	if _, ok := c.mailboxes[mbID]; !ok {
		return wire.Message{Cmd: msg.Cmd, P0: 0}
	}
	buf := make([]byte, wire.MessageByteLen*8) // scratch payload area
	token := c.allocBufToken(buf, 0)
	c.bufChan[token] = mbID | mailboxTokenBit
	return wire.Message{Cmd: msg.Cmd, P0: token}
}

// mailboxTokenBit distinguishes a getOutbox token's owning-mailbox id
// from a vchan buffer token's owning-channel handle in the shared bufChan
// map, since both share the same token namespace.
const mailboxTokenBit uint32 = 1 << 31

// sendOutbox implements management cmd 8 (fire-and-forget): resolve the
// sender's outbox payload and the recipient mailbox, attempt delivery,
// and push a cmd-4 notification once the message is delivered, queued or
// forwarded (StatusNotFound only for an unknown recipient with no ring).
// msg.P0 is the sender's mailbox id, whose payload is the buffer from its
// most recent getOutbox; msg.P1 is the recipient mailbox id.
func (c *CS) sendOutbox(msg wire.Message) {
	senderMboxID := msg.P0
	var token uint32
	for t, owner := range c.bufChan {
		if owner == senderMboxID|mailboxTokenBit && t > token {
			token = t
		}
	}
	payload, ok := c.bufs[token]
	if !ok {
		return
	}
	senderMbox, ok := c.mailboxes[senderMboxID]
	if !ok {
		return
	}
	delete(c.bufs, token)
	delete(c.bufChan, token)

	recipient, ok := c.mailboxes[msg.P1]
	if !ok {
		if c.transport != nil {
			c.forwardOutbox(senderMbox.Owner, msg.P1, payload)
			c.pushEvent(wireMessageOutboxSent(senderMbox.Owner, uint32(wire.StatusOK)))
			return
		}
		c.pushEvent(wireMessageOutboxSent(senderMbox.Owner, uint32(wire.StatusNotFound)))
		return
	}
	waitingTask, delivered := recipient.Send(mailbox.Message{From: senderMbox.Owner, To: msg.P1, Payload: payload})
	c.obs.ObserveMailboxDelivery(msg.P1)
	if delivered {
		buf := make([]byte, len(payload))
		copy(buf, payload)
		inboxToken := c.allocBufToken(buf, 0)
		c.pushEvent(wireMessageInboxReady(waitingTask, inboxToken))
	}
	c.pushEvent(wireMessageOutboxSent(senderMbox.Owner, uint32(wire.StatusOK)))
}

// getInbox implements management cmd 9 (fire-and-forget): poll the
// mailbox for a pending message matching msg.P1's Location, pushing a
// cmd-3 notification immediately if one is already queued. If none is
// queued, mailbox.Receive has already registered the caller as a waiter;
// a later sendOutbox (local or delivered off the ring) resolves it.
func (c *CS) getInbox(msg wire.Message) {
	mbID := msg.P0
	mb, ok := c.mailboxes[mbID]
	if !ok {
		return
	}
	from := mailbox.Anywhere
	if task.Location(msg.P1) == task.LocationLocal {
		from = mailbox.Anywhere // tile-local filtering is a future extension; see DESIGN.md
	}
	taskMsg, ready := mb.Receive(mb.Owner, from)
	if ready {
		token := c.allocBufToken(append([]byte(nil), taskMsg.Payload...), 0)
		c.pushEvent(wireMessageInboxReady(mb.Owner, token))
	}
}
