// Package constants holds the tunables that size xtask's fixed-capacity
// tables and queues. None of these are negotiated at runtime; they are
// picked at system construction, per SPEC_FULL.md's "capacity exhaustion is
// a first-class error" guidance.
package constants

import "time"

const (
	// NumPriorities is the number of priority levels, 0 (highest) .. 7.
	NumPriorities = 8

	// IdlePriority is the lowest priority level. The kernel creates no idle
	// task at it; callers that want one spawn it themselves.
	IdlePriority = 7

	// DefaultReadyQueueCapacity bounds each per-priority FIFO ready queue.
	DefaultReadyQueueCapacity = 256

	// PKRSlots is the number of pending-kernel-reply slots per Communication
	// Server. The source's static table of 8 is a documented latent bug
	// (spec.md §9); xtask keeps the same capacity but blocks the producer
	// instead of silently dropping the reply (spec.md §7).
	PKRSlots = 8

	// DefaultTickPeriod is the kernel tick period used when a KernelConfig
	// does not specify one.
	DefaultTickPeriod = 10 * time.Millisecond

	// DefaultVCBufferCapacity is the default per-buffer capacity (bytes) for
	// a virtual channel half when the caller requests a zero-sized buffer.
	DefaultVCBufferCapacity = 4096

	// RingFrameHeaderWords is the number of fields in a ring frame header:
	// origin_cs_id, msg_type, status, payload_size. internal/wire encodes
	// them in 10 bytes (wire.FrameHeaderLen), not as four 32-bit words.
	RingFrameHeaderWords = 4

	// ManagementMessageWords is the number of 32-bit words in a management
	// message: cmd, p0..p5.
	ManagementMessageWords = 7
)
