package cs

import "github.com/xtask-project/xtask/internal/wire"

// createThread implements management cmd 1: allocate a local virtual
// channel sized by the requesting task's objSize/rxBufSize/txBufSize and
// return its handle (spec.md §4.2's row for create_thread). Called with
// mu held.
func (c *CS) createThread(msg wire.Message) wire.Message {
	objSize := int(msg.P3)
	rxSize := int(msg.P4)
	if rxSize <= 0 {
		rxSize = objSize * 4
	}
	txSize := int(msg.P5)
	if txSize <= 0 {
		txSize = objSize * 4
	}
	handle := c.allocChannelHandle()
	ch := newChannelPair(handle, objSize, rxSize, txSize)
	c.channels[handle] = ch
	return wire.Message{Cmd: msg.Cmd, P0: handle}
}

// vcReceive implements management cmd 2 (spec.md §4.3's receive
// algorithm): pull the next available buffer off the channel's
// FromWorker half. A 0 reply means no data is available yet; the kernel
// then blocks the caller until a cmd-1 notification arrives.
func (c *CS) vcReceive(msg wire.Message) wire.Message {
	handle := msg.P0
	ch, ok := c.channels[handle]
	if !ok {
		return wire.Message{Cmd: msg.Cmd, P0: 0}
	}
	data, ok, wake := ch.FromWorker.Receive(int(msg.P1))
	if wake && ch.worker != nil {
		ch.worker.Resume()
	}
	if !ok {
		return wire.Message{Cmd: msg.Cmd, P0: 0}
	}
	c.obs.ObserveVCBytes(handle, len(data))
	token := c.allocBufToken(data, handle)
	return wire.Message{Cmd: msg.Cmd, P0: token}
}

// vcGetWriteBuf implements management cmd 3: hand the task a free buffer
// from the channel's ToWorker half to fill.
func (c *CS) vcGetWriteBuf(msg wire.Message) wire.Message {
	handle := msg.P0
	ch, ok := c.channels[handle]
	if !ok {
		return wire.Message{Cmd: msg.Cmd, P0: 0}
	}
	buf, ok := ch.ToWorker.BeginFill()
	if !ok {
		return wire.Message{Cmd: msg.Cmd, P0: 0}
	}
	token := c.allocBufToken(buf, handle)
	return wire.Message{Cmd: msg.Cmd, P0: token}
}

// vcSend implements management cmd 4 (spec.md §4.3's send-to-worker
// pump): mark the previously obtained write buffer Filled, drain it
// toward the attached worker (or drop it if this channel has no worker
// attached, matching a task writing into a VC nobody reads from), then
// hand back a fresh write buffer so the caller can keep filling without
// another round trip.
func (c *CS) vcSend(msg wire.Message) wire.Message {
	token := msg.P0
	buf, ok := c.bufs[token]
	if !ok {
		return wire.Message{Cmd: msg.Cmd, P0: 0}
	}
	handle := c.bufChan[token]
	ch, ok := c.channels[handle]
	if !ok {
		return wire.Message{Cmd: msg.Cmd, P0: 0}
	}
	delete(c.bufs, token)
	delete(c.bufChan, token)

	ch.ToWorker.CompleteFill(buf, len(buf))
	c.obs.ObserveVCBytes(handle, len(buf))
	if data, ok := ch.ToWorker.Drain(); ok {
		if ch.worker != nil {
			ch.worker.Deliver(data)
		}
		ch.ToWorker.Consumed(data)
	}

	next, ok := ch.ToWorker.BeginFill()
	if !ok {
		return wire.Message{Cmd: msg.Cmd, P0: 0}
	}
	return wire.Message{Cmd: msg.Cmd, P0: c.allocBufToken(next, handle)}
}
