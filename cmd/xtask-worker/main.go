// Command xtask-worker reproduces scenarios 4 and 5 from spec.md §8: a task
// creates a virtual channel to a dedicated worker, sends it objects via
// vc_get_write_buf/vc_send, and separately receives objects the worker
// produces via vc_receive.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/xtask-project/xtask"
	"github.com/xtask-project/xtask/internal/cs"
	"github.com/xtask-project/xtask/internal/logging"
	"github.com/xtask-project/xtask/internal/task"
)

// echoWorker is a dedicated hardware-thread stand-in: every buffer the task
// sends it, it re-publishes back into the channel's FromWorker half after a
// short simulated processing delay, so the same task's later vc_receive
// picks it back up.
type echoWorker struct {
	cs     *cs.CS
	handle uint32
	log    *logging.Logger
}

func (w *echoWorker) Resume() {
	w.log.Info("worker resumed after CS_BLOCK cleared")
}

func (w *echoWorker) Deliver(data []byte) {
	echoed := append([]byte(nil), data...)
	go func() {
		time.Sleep(time.Millisecond)
		w.cs.Arrive(w.handle, echoed)
	}()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logging.Default()

	handleReady := make(chan uint32, 1)

	worked := func(tc task.Context, args any) {
		handle, err := tc.CreateThread(0, 0, 0, 64, 4*64, 4*64)
		if err != nil {
			log.Error("create_thread failed", err)
			tc.Exit()
			return
		}
		handleReady <- handle
		// Give main time to attach the worker before the pump needs it.
		tc.DelayTicks(20)

		writeBuf, err := tc.VCGetWriteBuf(handle)
		if err != nil {
			log.Error("vc_get_write_buf failed", err)
			tc.Exit()
			return
		}
		if _, err := tc.VCSend(writeBuf); err != nil {
			log.Error("vc_send failed", err)
			tc.Exit()
			return
		}
		log.Info("sent object to worker", "handle", handle)

		readBuf, err := tc.VCReceive(handle, 1)
		if err != nil {
			log.Error("vc_receive failed", err)
			tc.Exit()
			return
		}
		log.Info("received echoed object", "handle", handle, "buf", readBuf)
		fmt.Println("round trip complete")
		tc.Exit()
	}

	sys, err := xtask.Boot(ctx, xtask.SystemConfig{
		Tiles: []xtask.TileConfig{{
			Kernel:    xtask.KernelConfig{ID: 0},
			InitTasks: []xtask.InitTask{{ID: 1, Priority: 0, Func: worked}},
		}},
	}, &xtask.Options{Log: log})
	if err != nil {
		log.Error("boot failed", err)
		return
	}

	select {
	case handle := <-handleReady:
		sys.CS(0).AttachWorker(handle, &echoWorker{cs: sys.CS(0), handle: handle, log: log})
	case <-ctx.Done():
		sys.Shutdown()
		_ = sys.Wait()
		return
	}

	<-ctx.Done()
	sys.Shutdown()
	_ = sys.Wait()
}
