package vchan

// Half is one direction of a virtual channel's double buffer (spec.md
// §4.3's "each direction of a VC owns two fixed-size buffers"). The same
// type serves both directions:
//   - the read half is filled by worker-arrival objects (Arrival) and
//     drained by a task's vc_receive (Receive);
//   - the write half is filled by a task's vc_get_write_buf/vc_send pump
//     (BeginFill/CompleteFill) and drained toward the worker (Drain).
//
// csBlock/taskBlock mirror the source's CS_BLOCK/TASK_BLOCK flags: csBlock
// means the worker side has no free buffer to write into, taskBlock means
// a task is parked on vc_receive with nothing available yet.
type Half struct {
	bufs        [2]buffer
	capacity    int
	csBlock     bool
	taskBlock   bool
	minReadSize int
}

// NewHalf allocates a Half with two buffers of the given capacity, each
// drawn from the package buffer pool (pool.go).
func NewHalf(capacity int) *Half {
	h := &Half{capacity: capacity}
	h.bufs[0].data = getBuffer(capacity)
	h.bufs[1].data = getBuffer(capacity)
	return h
}

// Release returns both buffers to the pool. Call once the owning Channel
// is torn down.
func (h *Half) Release() {
	putBuffer(h.bufs[0].data)
	putBuffer(h.bufs[1].data)
}

func (h *Half) other(b *buffer) *buffer {
	if b == &h.bufs[0] {
		return &h.bufs[1]
	}
	return &h.bufs[0]
}

// Receive implements the vc_receive algorithm (spec.md §4.3): release any
// buffer the calling task previously held, then in priority order return
// (a) the FIRST of two FILLED buffers, (b) the one FILLED buffer, (c) a
// CS_FILLING buffer already holding at least minReadSize bytes, or else
// park the caller (ok=false) with TASK_BLOCK set. wake reports that a
// buffer just became free while CS_BLOCK was set, meaning the worker side
// should be re-armed.
func (h *Half) Receive(minReadSize int) (data []byte, ok bool, wake bool) {
	for i := range h.bufs {
		if h.bufs[i].state == StateTaskHolding {
			h.bufs[i].state = StateFree
			h.bufs[i].used = 0
			if h.csBlock {
				h.csBlock = false
				wake = true
			}
		}
	}

	b0, b1 := &h.bufs[0], &h.bufs[1]
	if b0.state == StateFilled && b1.state == StateFilled {
		chosen := b1
		if b0.first {
			chosen = b0
		}
		chosen.first = false
		chosen.state = StateTaskHolding
		return chosen.data[:chosen.used], true, wake
	}

	for i := range h.bufs {
		if h.bufs[i].state == StateFilled {
			h.bufs[i].state = StateTaskHolding
			return h.bufs[i].data[:h.bufs[i].used], true, wake
		}
	}

	if minReadSize > 0 {
		for i := range h.bufs {
			if h.bufs[i].state == StateCSFilling && h.bufs[i].used >= minReadSize {
				h.bufs[i].state = StateTaskHolding
				return h.bufs[i].data[:h.bufs[i].used], true, wake
			}
		}
	}

	h.minReadSize = minReadSize
	h.taskBlock = true
	return nil, false, wake
}

// Arrival appends one worker object to the read half (spec.md §4.3's
// "Worker → CS object arrival" algorithm). It returns notify=true when a
// task parked via Receive can now be satisfied, in which case data is
// what that task should receive. blocked reports that neither buffer had
// room, meaning the CS must stop polling the worker (CS_BLOCK) until
// Receive next reports wake.
func (h *Half) Arrival(obj []byte) (notify bool, data []byte, blocked bool) {
	var target *buffer
	for i := range h.bufs {
		if h.bufs[i].state == StateCSFilling {
			target = &h.bufs[i]
			break
		}
	}
	if target == nil {
		for _, i := range [2]int{1, 0} {
			b := &h.bufs[i]
			if b.state == StateFree {
				target = b
				target.state = StateCSFilling
				target.used = 0
				break
			}
		}
	}
	if target == nil {
		h.csBlock = true
		return false, nil, true
	}

	n := copy(target.data[target.used:], obj)
	target.used += n
	full := h.capacity-target.used < len(obj)
	if full {
		other := h.other(target)
		target.first = false
		other.first = other.state == StateFilled
		target.state = StateFilled
	}

	if h.taskBlock && (full || (h.minReadSize > 0 && target.used >= h.minReadSize)) {
		h.taskBlock = false
		if full {
			target.state = StateTaskHolding
		}
		return true, target.data[:target.used], false
	}
	return false, nil, false
}

// BeginFill hands the calling task a write buffer (vc_get_write_buf, cmd
// 3): the first buffer that is neither held by the worker side nor
// already filled, or ok=false if both are occupied.
func (h *Half) BeginFill() (buf []byte, ok bool) {
	for i := range h.bufs {
		if h.bufs[i].state == StateFree {
			h.bufs[i].state = StateTaskHolding
			h.bufs[i].used = 0
			return h.bufs[i].data, true
		}
	}
	return nil, false
}

// CompleteFill marks the task-held buffer containing buf as Filled and
// ready to drain toward the worker (vc_send, cmd 4).
func (h *Half) CompleteFill(buf []byte, n int) {
	for i := range h.bufs {
		if &h.bufs[i].data[0] == &buf[0] {
			h.bufs[i].used = n
			other := h.other(&h.bufs[i])
			h.bufs[i].first = false
			other.first = other.state == StateFilled
			h.bufs[i].state = StateFilled
			return
		}
	}
}

// Drain returns the next Filled buffer for the CS to pump to the worker
// (the send-to-worker algorithm's object-at-a-time walk), or ok=false if
// neither buffer is Filled. The returned buffer moves to StateFree once
// fully consumed by the caller via Consumed.
func (h *Half) Drain() (data []byte, ok bool) {
	b0, b1 := &h.bufs[0], &h.bufs[1]
	if b0.state == StateFilled && b1.state == StateFilled {
		if b0.first {
			return b0.data[:b0.used], true
		}
		return b1.data[:b1.used], true
	}
	for i := range h.bufs {
		if h.bufs[i].state == StateFilled {
			return h.bufs[i].data[:h.bufs[i].used], true
		}
	}
	return nil, false
}

// Consumed marks the buffer returned by the most recent Drain as Free
// again, mirroring the pump sequence's final control token.
func (h *Half) Consumed(data []byte) {
	for i := range h.bufs {
		if len(h.bufs[i].data) > 0 && len(data) > 0 && &h.bufs[i].data[0] == &data[0] {
			h.bufs[i].state = StateFree
			h.bufs[i].used = 0
			h.bufs[i].first = false
			return
		}
	}
}
