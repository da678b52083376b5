package cs

import "github.com/xtask-project/xtask/internal/vchan"

// Worker is the CS's view of whatever sits on the other end of a virtual
// channel: a goroutine simulating a dedicated hardware thread, or a test
// double. It is attached to a channel after creation (AttachWorker) and
// is optional — vc_send on a channel with no worker attached drops the
// filled buffer instead of queueing it.
type Worker interface {
	// Resume is called when a worker previously blocked by a full
	// FromWorker half (CS_BLOCK) may start producing again.
	Resume()
	// Deliver hands a filled ToWorker buffer to the worker, the CS side of
	// the send-to-worker pump sequence.
	Deliver(data []byte)
}

// localChannel pairs a vchan.Channel with its optional attached Worker.
type localChannel struct {
	*vchan.Channel
	worker Worker
}

func newChannelPair(handle uint32, objSize, rxSize, txSize int) *localChannel {
	return &localChannel{Channel: vchan.NewAsymmetric(handle, objSize, rxSize, txSize)}
}

// AttachWorker binds w to the channel identified by handle, so that
// vc_send's pump (cmd 4) can deliver filled buffers to it and vc_receive
// arrivals (fed via Arrive) can wake it once it stops being CS_BLOCK'd. It
// reports whether the channel existed yet — callers racing a task's own
// create_thread call (the cmd/xtask-worker demo, and its matching test)
// should retry until attached is true.
func (c *CS) AttachWorker(handle uint32, w Worker) (attached bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.channels[handle]; ok {
		ch.worker = w
		return true
	}
	return false
}

// Arrive feeds one worker-produced object into the channel's FromWorker
// half, mirroring the "Worker → CS object arrival" algorithm (spec.md
// §4.3). It pushes a cmd-1 notification when a task parked on vc_receive
// can now be satisfied.
func (c *CS) Arrive(handle uint32, obj []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channels[handle]
	if !ok {
		return
	}
	notify, data, _ := ch.FromWorker.Arrival(obj)
	c.obs.ObserveVCBytes(handle, len(obj))
	if notify {
		token := c.allocBufToken(data, handle)
		c.pushEvent(wireMessageVCReady(handle, token))
	}
}
