// Command xtask-spawn reproduces scenario 2 from spec.md §8: a running task
// calls create_task at runtime to spawn a second task, rather than every
// task being registered up front as an init task.
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

	child := func(tc task.Context, args any) {
		name, _ := args.(string)
		log.Info("child task running", "name", name)
		tc.DelayTicks(3)
		tc.Exit()
	}

	spawner := func(tc task.Context, args any) {
		tc.DelayTicks(1)
		if err := tc.CreateTask(2, 1, child, "spawned-at-runtime"); err != nil {
			log.Error("create_task failed", err)
			tc.Exit()
			return
		}
		log.Info("spawned child task")
		tc.Exit()
	}

	sys, err := xtask.Boot(ctx, xtask.SystemConfig{
		Tiles: []xtask.TileConfig{{
			Kernel:    xtask.KernelConfig{ID: 0},
			InitTasks: []xtask.InitTask{{ID: 1, Priority: 0, Func: spawner}},
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
