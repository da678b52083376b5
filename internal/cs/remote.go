package cs

import (
	"context"

	"github.com/xtask-project/xtask/internal/mailbox"
	"github.com/xtask-project/xtask/internal/wire"
)

// RemoteAcceptor decides whether this tile accepts a remote thread
// creation request arriving over the ring, and if so creates the local
// channel and returns its handle. A tile with no acceptor configured
// never accepts remote work, matching a compute tile with no spare
// workers registered.
type RemoteAcceptor func(c *CS, code, stackWords, objSize, rxBufSize, txBufSize uint32) (handle uint32, accept bool)

// SetRemoteAcceptor installs the hook Run's ring pump consults for
// incoming FrameCreateRemote requests.
func (c *CS) SetRemoteAcceptor(fn RemoteAcceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acceptor = fn
}

// createRemoteThread implements management cmd 6 (fire-and-forget): with
// no ring transport attached (a single-tile system), it degrades to a
// same-tile create_thread and replies immediately; otherwise it blocks its
// caller (the requesting kernel's run loop, which issues cmd 6 via Send)
// on the PKR semaphore (acquired with the CS mutex NOT held, per
// pkrTable.acquire's contract) before reserving a slot and sending a
// FrameCreateRemote request around the ring.
func (c *CS) createRemoteThread(ctx context.Context, msg wire.Message) error {
	requestingTID := msg.P0
	code, stackWords, objSize, rxBufSize, txBufSize := msg.P1, msg.P2, msg.P3, msg.P4, msg.P5

	if c.transport == nil {
		c.mu.Lock()
		reply := c.createThread(wire.Message{P3: objSize, P4: rxBufSize, P5: txBufSize})
		c.pushEvent(wireMessageRemoteThreadCreated(reply.P0, requestingTID))
		c.mu.Unlock()
		return nil
	}

	if len(c.pkr.sem) == 0 {
		c.obs.ObservePKRExhausted()
	}
	if err := c.pkr.acquire(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	seq := c.pkr.reserve(requestingTID)
	payload := wire.Marshal(wire.Message{Cmd: seq, P0: requestingTID, P1: code, P2: stackWords, P3: objSize, P4: rxBufSize, P5: txBufSize})
	frame := wire.RingFrame{Origin: c.id, Type: wire.FrameCreateRemote, Status: 0, Payload: payload}
	err := c.transport.Send(ctx, frame)
	c.mu.Unlock()
	return err
}

// Run drives the ring pump: it reads frames from the attached transport
// until ctx is canceled, handling each per spec.md §4.5's own-frame vs
// foreign-frame rule. Only meaningful when Config.Transport was set; a
// single-tile CS has nothing to pump.
func (c *CS) Run(ctx context.Context) error {
	if c.transport == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		frame, err := c.transport.Recv(ctx)
		if err != nil {
			return err
		}
		c.handleFrame(ctx, frame)
	}
}

func (c *CS) handleFrame(ctx context.Context, frame wire.RingFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if frame.Origin == c.id {
		c.completeOwnFrame(frame)
		return
	}

	switch frame.Type {
	case wire.FrameConnectivityProbe:
		c.obs.ObserveRingFrame(frame.Type, true)
		_ = c.transport.Send(ctx, frame)
	case wire.FrameCreateRemote:
		c.handleForeignCreateRemote(ctx, frame)
	case wire.FrameDeliverOutbox:
		c.handleForeignDeliverOutbox(ctx, frame)
	case wire.FrameBroadcastReady:
		c.handleForeignBroadcastReady(ctx, frame)
	default:
		c.obs.ObserveRingFrame(frame.Type, true)
		_ = c.transport.Send(ctx, frame)
	}
}

// completeOwnFrame handles a frame that has traveled a full lap and
// returned to its origin: consuming it instead of forwarding it again is
// what keeps the ring from looping a request forever (spec.md §4.5).
func (c *CS) completeOwnFrame(frame wire.RingFrame) {
	c.obs.ObserveRingFrame(frame.Type, false)
	switch frame.Type {
	case wire.FrameCreateRemote:
		msg, err := wire.Unmarshal(frame.Payload)
		if err != nil {
			return
		}
		seq := msg.Cmd
		requestingTID, ok := c.pkr.resolve(seq)
		if !ok {
			return
		}
		if frame.Status != wire.StatusOK {
			c.pushEvent(wireMessageRemoteThreadCreated(0, requestingTID))
			return
		}
		c.pushEvent(wireMessageRemoteThreadCreated(msg.P0, requestingTID))
	default:
		// Connectivity probes, broadcasts and delivery frames that no tile
		// claimed complete silently and are dropped here.
	}
}

func (c *CS) handleForeignCreateRemote(ctx context.Context, frame wire.RingFrame) {
	c.obs.ObserveRingFrame(frame.Type, true)
	if frame.Status != 0 || c.acceptor == nil {
		_ = c.transport.Send(ctx, frame)
		return
	}
	msg, err := wire.Unmarshal(frame.Payload)
	if err != nil {
		_ = c.transport.Send(ctx, frame)
		return
	}
	handle, accept := c.acceptor(c, msg.P1, msg.P2, msg.P3, msg.P4, msg.P5)
	if !accept {
		_ = c.transport.Send(ctx, frame)
		return
	}
	reply := wire.Message{Cmd: msg.Cmd, P0: handle}
	frame.Status = wire.StatusOK
	frame.Payload = wire.Marshal(reply)
	frame.PayloadSize = uint32(len(frame.Payload))
	_ = c.transport.Send(ctx, frame)
}

// forwardOutbox sends a mailbox delivery onto the ring for a recipient not
// hosted on this tile, tagging the frame with its origin so it does not
// loop forever if no tile ever claims it (it simply returns to sender and
// is dropped by completeOwnFrame's default case). Called with mu held.
func (c *CS) forwardOutbox(from, to uint32, payload []byte) {
	msg := wire.Marshal(wire.Message{P0: from, P1: to})
	buf := append(msg, payload...)
	frame := wire.RingFrame{Origin: c.id, Type: wire.FrameDeliverOutbox, Status: 0, Payload: buf, PayloadSize: uint32(len(buf))}
	_ = c.transport.Send(context.Background(), frame)
}

func (c *CS) handleForeignDeliverOutbox(ctx context.Context, frame wire.RingFrame) {
	c.obs.ObserveRingFrame(frame.Type, true)
	msg, err := wire.Unmarshal(frame.Payload)
	if err != nil {
		_ = c.transport.Send(ctx, frame)
		return
	}
	recipient, ok := c.mailboxes[msg.P1]
	if !ok {
		_ = c.transport.Send(ctx, frame)
		return
	}
	payload := frame.Payload[wire.MessageByteLen:]
	waitingTask, delivered := recipient.Send(mailbox.Message{From: msg.P0, To: msg.P1, Payload: payload})
	c.obs.ObserveMailboxDelivery(msg.P1)
	if delivered {
		token := c.allocBufToken(append([]byte(nil), payload...), 0)
		c.pushEvent(wireMessageInboxReady(waitingTask, token))
	}
	// Consumed: a delivered (or locally queued) cross-tile mailbox message
	// does not keep traveling once it reaches its addressed mailbox's tile.
}

func (c *CS) handleForeignBroadcastReady(ctx context.Context, frame wire.RingFrame) {
	c.obs.ObserveRingFrame(frame.Type, true)
	msg, err := wire.Unmarshal(frame.Payload)
	if err == nil {
		if mb, ok := c.mailboxes[msg.P0]; ok {
			if pending, ready := mb.Receive(mb.Owner, mailbox.Anywhere); ready {
				token := c.allocBufToken(append([]byte(nil), pending.Payload...), 0)
				c.pushEvent(wireMessageInboxReady(mb.Owner, token))
			}
		}
	}
	_ = c.transport.Send(ctx, frame)
}
