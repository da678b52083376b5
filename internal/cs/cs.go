// Package cs implements the per-tile Communication Server: the
// single-threaded event loop that owns every virtual channel (internal/
// vchan) and mailbox (internal/mailbox) on its tile, answers a kernel's
// management requests over its synchronous link, and forwards or
// consumes ring frames (internal/ring) on behalf of other tiles
// (spec.md §4.2). CS implements kernel.CSLink directly, the role an
// io_uring submission/completion ring plays for a queue runner: a sibling
// package the consumer only ever sees through an interface.
package cs

import (
	"container/list"
	"context"
	"sync"

	"github.com/xtask-project/xtask/internal/logging"
	"github.com/xtask-project/xtask/internal/mailbox"
	"github.com/xtask-project/xtask/internal/ring"
	"github.com/xtask-project/xtask/internal/wire"
)

// Observer records Communication Server activity for metrics (SPEC_FULL.md
// §7); the prometheus-backed implementation lives at the module root so
// this package stays free of a direct client_golang dependency, the same
// separation the block-device runner draws between internal/interfaces.Observer and its
// concrete MetricsObserver.
type Observer interface {
	ObserveKcall(cmd uint32)
	ObserveVCBytes(handle uint32, n int)
	ObserveMailboxDelivery(mailboxID uint32)
	ObserveRingFrame(frameType uint8, forwarded bool)
	ObservePKRExhausted()
	ObserveDroppedNotification()
}

type noopObserver struct{}

func (noopObserver) ObserveKcall(uint32)           {}
func (noopObserver) ObserveVCBytes(uint32, int)    {}
func (noopObserver) ObserveMailboxDelivery(uint32) {}
func (noopObserver) ObserveRingFrame(uint8, bool)  {}
func (noopObserver) ObservePKRExhausted()          {}
func (noopObserver) ObserveDroppedNotification()   {}

// Config configures one Communication Server instance.
type Config struct {
	ID        uint32
	Log       *logging.Logger
	Transport ring.Transport // nil for a single-tile system
	Observer  Observer
}

// CS is one tile's Communication Server. Every map and the PKR/PRR tables
// are touched only from the goroutine running Run's ring pump plus the
// calling kernel goroutine(s) that invoke SendRecv/Send directly — both
// paths take mu, matching the source's single-threaded event-loop
// contract expressed here as a mutex instead of a dedicated goroutine,
// since kcalls must complete synchronously from the caller's own
// goroutine rather than round-tripping through a channel twice.
type CS struct {
	id  uint32
	log *logging.Logger
	obs Observer

	mu       sync.Mutex
	channels map[uint32]*localChannel
	nextCh   uint32

	mailboxes map[uint32]*mailbox.Mailbox
	nextMbox  uint32

	bufs    map[uint32][]byte
	bufChan map[uint32]uint32 // buffer token -> owning channel handle, for vc_send
	nextBuf uint32

	events   *list.List // queued wire.Message notification details (cmd 10 replies)
	notifyCh chan struct{}

	transport ring.Transport
	acceptor  RemoteAcceptor
	pkr       *pkrTable
	prr       *list.List
}

// New constructs an idle Communication Server; call Run to start its ring
// pump if Config.Transport is non-nil.
func New(cfg Config) *CS {
	log := cfg.Log
	if log == nil {
		log = logging.Default()
	}
	obs := cfg.Observer
	if obs == nil {
		obs = noopObserver{}
	}
	return &CS{
		id:        cfg.ID,
		log:       log.Named("cs").With("cs", cfg.ID),
		obs:       obs,
		channels:  make(map[uint32]*localChannel),
		mailboxes: make(map[uint32]*mailbox.Mailbox),
		bufs:      make(map[uint32][]byte),
		bufChan:   make(map[uint32]uint32),
		events:    list.New(),
		notifyCh:  make(chan struct{}, 16),
		transport: cfg.Transport,
		pkr:       newPKRTable(),
		prr:       list.New(),
	}
}

// Notifications implements kernel.CSLink.
func (c *CS) Notifications() <-chan struct{} { return c.notifyCh }

// SendRecv implements kernel.CSLink: the synchronous management round
// trip for management cmds 1 (create_thread), 3 (vc_get_write_buf), 4
// (vc_send), 5 (create_mailbox), 7 (get_outbox) and the internal cmd 10
// notification detail request, plus vc_receive's synchronous poll (cmd 2).
func (c *CS) SendRecv(ctx context.Context, msg wire.Message) (wire.Message, error) {
	c.obs.ObserveKcall(msg.Cmd)
	c.mu.Lock()
	defer c.mu.Unlock()

	switch msg.Cmd {
	case 1:
		return c.createThread(msg), nil
	case 2:
		return c.vcReceive(msg), nil
	case 3:
		return c.vcGetWriteBuf(msg), nil
	case 4:
		return c.vcSend(msg), nil
	case 5:
		return c.createMailbox(msg), nil
	case 7:
		return c.getOutbox(msg), nil
	case 10:
		return c.nextNotification(), nil
	default:
		return wire.Message{}, wire.ErrShortBuffer
	}
}

// Send implements kernel.CSLink: fire-and-forget requests that complete
// later via a push to notifyCh. cmd 6 is create_remote_thread, cmd 8 is
// send_outbox, cmd 9 is get_inbox. cmd 6 acquires the PKR semaphore before
// taking mu (see createRemoteThread); the others take mu for their whole
// duration like SendRecv's handlers.
func (c *CS) Send(ctx context.Context, msg wire.Message) error {
	c.obs.ObserveKcall(msg.Cmd)

	switch msg.Cmd {
	case 6:
		return c.createRemoteThread(ctx, msg)
	case 8:
		c.mu.Lock()
		defer c.mu.Unlock()
		c.sendOutbox(msg)
		return nil
	case 9:
		c.mu.Lock()
		defer c.mu.Unlock()
		c.getInbox(msg)
		return nil
	default:
		return wire.ErrShortBuffer
	}
}

// pushEvent queues one notification detail and wakes a kernel waiting on
// Notifications. Called with mu already held.
func (c *CS) pushEvent(m wire.Message) {
	c.events.PushBack(m)
	select {
	case c.notifyCh <- struct{}{}:
	default:
		// notifyCh is a depth-16 buffer; a full buffer means the kernel is
		// falling behind badly. Drop is recorded, not silent, matching
		// SPEC_FULL.md §7's "xtask_cs_dropped_notifications_total".
		c.obs.ObserveDroppedNotification()
	}
}

// nextNotification pops the oldest queued event, matching notHandler's
// "ask for the event's details" cmd-10 round trip.
func (c *CS) nextNotification() wire.Message {
	front := c.events.Front()
	if front == nil {
		return wire.Message{}
	}
	c.events.Remove(front)
	return front.Value.(wire.Message)
}

func (c *CS) allocChannelHandle() uint32 {
	c.nextCh++
	return c.nextCh
}

func (c *CS) allocMailboxHandle() uint32 {
	c.nextMbox++
	return c.nextMbox
}

func (c *CS) allocBufToken(data []byte, channelHandle uint32) uint32 {
	c.nextBuf++
	token := c.nextBuf
	c.bufs[token] = data
	if channelHandle != 0 {
		c.bufChan[token] = channelHandle
	}
	return token
}
