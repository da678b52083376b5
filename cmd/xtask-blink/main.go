// Command xtask-blink reproduces scenario 1 from spec.md §8: a single task
// toggles an LED every few ticks via delay_ticks, with no Communication
// Server traffic at all.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xtask-project/xtask"
	"github.com/xtask-project/xtask/internal/logging"
	"github.com/xtask-project/xtask/internal/task"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logging.Default()
	leds := &xtask.LEDRecorder{}

	blink := func(tc task.Context, args any) {
		on := false
		for i := 0; i < 10; i++ {
			tc.DelayTicks(5)
			on = !on
			leds.Set(on)
			log.Info("led toggled", "on", on)
		}
		tc.Exit()
	}

	sys, err := xtask.Boot(ctx, xtask.SystemConfig{
		Tiles: []xtask.TileConfig{{
			Kernel:    xtask.KernelConfig{ID: 0},
			InitTasks: []xtask.InitTask{{ID: 1, Priority: 0, Func: blink}},
		}},
	}, &xtask.Options{Log: log})
	if err != nil {
		log.Error("boot failed", err)
		return
	}

	<-ctx.Done()
	sys.Shutdown()
	_ = sys.Wait()
}
