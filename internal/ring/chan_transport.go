package ring

import (
	"context"

	"github.com/xtask-project/xtask/internal/wire"
)

// ChanTransport connects one CS to the next hop on an in-process ring via
// a pair of buffered channels, for single-process topologies (tests and
// the bundled demos). The ring is wired by handing each CS's out channel
// to the next CS's in channel in a cycle; see NewRing.
type ChanTransport struct {
	out chan<- wire.RingFrame
	in  <-chan wire.RingFrame
}

// NewChanTransport builds a transport around the given channel pair.
func NewChanTransport(out chan<- wire.RingFrame, in <-chan wire.RingFrame) *ChanTransport {
	return &ChanTransport{out: out, in: in}
}

func (c *ChanTransport) Send(ctx context.Context, f wire.RingFrame) error {
	select {
	case c.out <- f:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ChanTransport) Recv(ctx context.Context) (wire.RingFrame, error) {
	select {
	case f := <-c.in:
		return f, nil
	case <-ctx.Done():
		return wire.RingFrame{}, ctx.Err()
	}
}

func (c *ChanTransport) Close() error { return nil }

// NewRing builds n ChanTransports wired into a closed ring: transport i
// sends to transport i+1 mod n's inbound channel, matching the token-ring
// topology spec.md §4.5 describes (each CS has exactly one upstream and
// one downstream neighbor).
func NewRing(n int, bufferSize int) []*ChanTransport {
	channels := make([]chan wire.RingFrame, n)
	for i := range channels {
		channels[i] = make(chan wire.RingFrame, bufferSize)
	}
	transports := make([]*ChanTransport, n)
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		transports[i] = NewChanTransport(channels[next], channels[i])
	}
	return transports
}
