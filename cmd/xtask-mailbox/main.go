// Command xtask-mailbox reproduces scenarios 3 and 6 from spec.md §8: two
// tasks exchange a mailbox message on the same tile, and two tasks on
// separate tiles exchange one across the ring (ChanTransport standing in
// for the physical link).
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xtask-project/xtask"
	"github.com/xtask-project/xtask/internal/logging"
	"github.com/xtask-project/xtask/internal/ring"
	"github.com/xtask-project/xtask/internal/task"
)

const (
	mailboxAlice = 1
	mailboxBob   = 2
)

func receiver(name string, mailboxID uint32, log *logging.Logger) task.Func {
	return func(tc task.Context, args any) {
		if _, err := tc.CreateMailbox(mailboxID, 256, 256); err != nil {
			log.Error(name+": create_mailbox failed", err)
			tc.Exit()
			return
		}
		buf, err := tc.GetInbox(mailboxID, task.LocationAnywhere)
		if err != nil {
			log.Error(name+": get_inbox failed", err)
			tc.Exit()
			return
		}
		log.Info(name+": received mail", "buf", buf)
		tc.Exit()
	}
}

func sender(name string, senderMailbox, recipientMailbox uint32, log *logging.Logger) task.Func {
	return func(tc task.Context, args any) {
		if _, err := tc.CreateMailbox(senderMailbox, 256, 256); err != nil {
			log.Error(name+": create_mailbox failed", err)
			tc.Exit()
			return
		}
		tc.DelayTicks(2) // give the receiver time to register its mailbox first
		if _, err := tc.GetOutbox(senderMailbox); err != nil {
			log.Error(name+": get_outbox failed", err)
			tc.Exit()
			return
		}
		if err := tc.SendOutbox(senderMailbox, recipientMailbox); err != nil {
			log.Error(name+": send_outbox failed", err)
			tc.Exit()
			return
		}
		log.Info(name + ": sent mail")
		tc.Exit()
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logging.Default()

	// Same-tile exchange (scenario 3): both mailboxes live on tile 0, so
	// SendOutbox resolves locally without ever touching a ring transport.
	sys, err := xtask.Boot(ctx, xtask.SystemConfig{
		Tiles: []xtask.TileConfig{{
			Kernel: xtask.KernelConfig{ID: 0},
			InitTasks: []xtask.InitTask{
				{ID: 1, Priority: 0, Func: receiver("alice", mailboxAlice, log)},
				{ID: 2, Priority: 0, Func: sender("bob", mailboxBob, mailboxAlice, log)},
			},
		}},
	}, &xtask.Options{Log: log})
	if err != nil {
		log.Error("boot failed", err)
		return
	}

	// Cross-tile exchange (scenario 6): alice's mailbox lives on tile 0,
	// bob's on tile 1 — send_outbox resolves by falling through to
	// forwardOutbox over the ring transport when the recipient mailbox
	// isn't in the local tile's map.
	transports := ring.NewRing(2, 8)
	crossTile, err := xtask.Boot(ctx, xtask.SystemConfig{
		Tiles: []xtask.TileConfig{
			{
				Kernel:    xtask.KernelConfig{ID: 10},
				Transport: transports[0],
				InitTasks: []xtask.InitTask{{ID: 1, Priority: 0, Func: receiver("alice@tile10", mailboxAlice, log)}},
			},
			{
				Kernel:    xtask.KernelConfig{ID: 11},
				Transport: transports[1],
				InitTasks: []xtask.InitTask{{ID: 1, Priority: 0, Func: sender("bob@tile11", mailboxBob, mailboxAlice, log)}},
			},
		},
	}, &xtask.Options{Log: log})
	if err != nil {
		log.Error("cross-tile boot failed", err)
		sys.Shutdown()
		_ = sys.Wait()
		return
	}

	<-ctx.Done()
	sys.Shutdown()
	crossTile.Shutdown()
	_ = sys.Wait()
	_ = crossTile.Wait()
}
