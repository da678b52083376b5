package ring

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/xtask-project/xtask/internal/logging"
	"github.com/xtask-project/xtask/internal/wire"
)

// TCPTransport carries ring frames over a single TCP connection to the
// next hop, reconnecting with backoff/v5 on failure the way
// jra3-system-agent retries its upstream dials. Exactly one physical
// connection is open at a time; Send and Recv share it under a mutex
// since the ring protocol is a strict one-frame-out-then-one-frame-in
// token pattern and never needs concurrent writers.
type TCPTransport struct {
	dialAddr string
	listener net.Listener
	log      *logging.Logger

	mu   sync.Mutex
	conn net.Conn
}

// DialTCPTransport connects outbound to the next hop's listen address.
func DialTCPTransport(addr string, log *logging.Logger) *TCPTransport {
	if log == nil {
		log = logging.Default()
	}
	return &TCPTransport{dialAddr: addr, log: log.Named("ring-tcp")}
}

// ListenTCPTransport accepts the upstream hop's connection on addr.
func ListenTCPTransport(ctx context.Context, addr string, log *logging.Logger) (*TCPTransport, error) {
	if log == nil {
		log = logging.Default()
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	t := &TCPTransport{listener: lis, log: log.Named("ring-tcp")}
	conn, err := lis.Accept()
	if err != nil {
		return nil, err
	}
	t.conn = conn
	return t, nil
}

func (t *TCPTransport) ensureConn(ctx context.Context) (net.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return t.conn, nil
	}
	if t.dialAddr == "" {
		return nil, net.ErrClosed
	}
	operation := func() (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", t.dialAddr)
	}
	conn, err := backoff.Retry(ctx, operation, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(10))
	if err != nil {
		return nil, err
	}
	t.log.Info("ring transport connected", "addr", t.dialAddr)
	t.conn = conn
	return conn, nil
}

func (t *TCPTransport) Send(ctx context.Context, f wire.RingFrame) error {
	conn, err := t.ensureConn(ctx)
	if err != nil {
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(dl)
	} else {
		_ = conn.SetWriteDeadline(time.Time{})
	}
	_, err = conn.Write(wire.MarshalFrame(f))
	if err != nil {
		t.dropConn()
	}
	return err
}

func (t *TCPTransport) Recv(ctx context.Context) (wire.RingFrame, error) {
	conn, err := t.ensureConn(ctx)
	if err != nil {
		return wire.RingFrame{}, err
	}
	header := make([]byte, wire.FrameHeaderLen)
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(dl)
	} else {
		_ = conn.SetReadDeadline(time.Time{})
	}
	if _, err := readFull(conn, header); err != nil {
		t.dropConn()
		return wire.RingFrame{}, err
	}
	size := int(header[6]) | int(header[7])<<8 | int(header[8])<<16 | int(header[9])<<24
	buf := make([]byte, wire.FrameHeaderLen+size)
	copy(buf, header)
	if size > 0 {
		if _, err := readFull(conn, buf[wire.FrameHeaderLen:]); err != nil {
			t.dropConn()
			return wire.RingFrame{}, err
		}
	}
	return wire.UnmarshalFrame(buf)
}

func (t *TCPTransport) dropConn() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		_ = t.conn.Close()
		t.conn = nil
	}
}

func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		_ = t.listener.Close()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
