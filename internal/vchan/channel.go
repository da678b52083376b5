package vchan

import "github.com/xtask-project/xtask/internal/constants"

// Channel is one virtual channel: a pair of Halves, one per direction,
// identified by the handle the Communication Server hands back from
// create_thread/create_remote_thread (spec.md §4.1's VC handle). ObjSize
// is the worker's fixed object size as given at creation; the Halves do
// not consult it (Arrival's full-buffer check uses each object's length).
type Channel struct {
	Handle  uint32
	ObjSize int

	// FromWorker is filled by worker-arrival objects and drained by a
	// task's vc_receive.
	FromWorker *Half
	// ToWorker is filled by a task's vc_get_write_buf/vc_send pump and
	// drained toward the worker.
	ToWorker *Half
}

// New allocates a Channel with both halves sized to capacity (defaulting
// to constants.DefaultVCBufferCapacity when capacity is zero).
func New(handle uint32, objSize, capacity int) *Channel {
	return NewAsymmetric(handle, objSize, capacity, capacity)
}

// NewAsymmetric allocates a Channel whose two halves may have distinct
// capacities, matching create_thread's separate rxBufSize/txBufSize
// parameters (spec.md §4.2). Either capacity defaults to
// constants.DefaultVCBufferCapacity when zero.
func NewAsymmetric(handle uint32, objSize, rxCapacity, txCapacity int) *Channel {
	if rxCapacity <= 0 {
		rxCapacity = constants.DefaultVCBufferCapacity
	}
	if txCapacity <= 0 {
		txCapacity = constants.DefaultVCBufferCapacity
	}
	return &Channel{
		Handle:     handle,
		ObjSize:    objSize,
		FromWorker: NewHalf(rxCapacity),
		ToWorker:   NewHalf(txCapacity),
	}
}

// Close releases both halves' pooled buffers.
func (c *Channel) Close() {
	c.FromWorker.Release()
	c.ToWorker.Release()
}
