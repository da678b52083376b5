// Package ring implements the token-ring transport the Communication
// Servers use to exchange frames across tiles (spec.md §4.5). A Transport
// is deliberately narrow (send one frame, receive one frame, close) so
// that both an in-process topology (ChanTransport, used by tests and
// single-process demos) and a networked one (TCPTransport) satisfy it the
// same way a block-device queue's Ring interface splits into a real
// io_uring backend and a test stub.
package ring

import (
	"context"

	"github.com/xtask-project/xtask/internal/wire"
)

// Transport moves RingFrames to and from the next hop on the ring. A
// frame a CS sends is always addressed implicitly to its single
// downstream neighbor; the ring protocol's addressing lives in the
// frame's Origin field and in_band routing, not in the transport.
type Transport interface {
	Send(ctx context.Context, f wire.RingFrame) error
	Recv(ctx context.Context) (wire.RingFrame, error)
	Close() error
}

// IsOwnFrame reports whether a frame now completing one lap of the ring
// originated at this CS (spec.md §4.5: a CS either forwards a frame
// unchanged, if foreign, or consumes/retires it, if its own).
func IsOwnFrame(f wire.RingFrame, selfID uint32) bool {
	return f.Origin == selfID
}
