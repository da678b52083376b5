// Package kernel implements xtask's per-core kernel: the multi-level
// priority scheduler, the 12-entry kcall dispatch table, the tick loop and
// the asynchronous notification handler (spec.md §4.1, grounded on
// original_source/xtask/src/kernel.c's xtask_kcall_handler/xtask_not_handler
// and task.c's xtask_enqueue/xtask_pick_task). One goroutine owns all of a
// Kernel's state, the same way the block-device runner's queue.Runner.ioLoop is the sole
// mutator of its tag-state table (internal/queue/runner.go).
package kernel

import (
	"context"

	"github.com/xtask-project/xtask/internal/wire"
)

// CSLink is a kernel's view of its tile's Communication Server: the
// synchronous management channel (cs_sync in the source) used for both
// request/reply kcalls and fire-and-forget blocking requests, plus the
// asynchronous notification signal (cs_async). internal/cs implements this;
// kernel never imports internal/cs, avoiding an import cycle, the way
// the block-device runner's internal/uring.Ring is implemented by a sibling package but
// referenced only through its interface from internal/queue.
type CSLink interface {
	// SendRecv performs a synchronous management round trip: used by kcalls
	// that complete without blocking the calling task (create_thread,
	// vc_get_write_buf, vc_send, create_mailbox, get_outbox).
	SendRecv(ctx context.Context, msg wire.Message) (wire.Message, error)
	// Send fires a management message with no immediate reply: used by
	// kcalls that block the calling task until a later asynchronous
	// notification arrives (create_remote_thread, send_outbox, get_inbox).
	Send(ctx context.Context, msg wire.Message) error
	// Notifications delivers one signal per asynchronous event the CS has
	// queued for this kernel; the kernel answers each by requesting the
	// event's details over SendRecv with cmd 10 (xtask_not_handler).
	Notifications() <-chan struct{}
}
