package xtask

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtask-project/xtask/internal/cs"
	"github.com/xtask-project/xtask/internal/kernel"
	"github.com/xtask-project/xtask/internal/logging"
	"github.com/xtask-project/xtask/internal/ring"
	"github.com/xtask-project/xtask/internal/task"
)

// KernelConfig configures one tile's kernel (SPEC_FULL.md §1's
// Configuration section: a struct tree mirroring the block-device runner's
// DeviceParams/Options plus DefaultParams()).
type KernelConfig struct {
	ID         uint32
	TickPeriod time.Duration
}

// InitTask registers a task to run from the kernel's first tick, the way
// original_source/xtask/src/kernel.c's xtask_create_init_task seeds the
// idle task before the run loop starts (SPEC_FULL.md §4.6).
type InitTask struct {
	ID       uint32
	Priority uint8
	Func     task.Func
	Args     any
}

// TileConfig configures one tile: its kernel, its Communication Server's
// ring attachment, and the tasks it boots with.
type TileConfig struct {
	Kernel    KernelConfig
	InitTasks []InitTask
	Transport ring.Transport // nil for a single-tile system
	Acceptor  cs.RemoteAcceptor
}

// SystemConfig configures a full xtask system: one or more tiles.
type SystemConfig struct {
	Tiles []TileConfig
}

// Options carries process-wide dependencies Boot should use instead of
// constructing its own, mirroring the block-device runner's functional-options surface
// without introducing one for a single-call struct (SPEC_FULL.md §6: "the
// only startup surface is Boot(ctx, SystemConfig, *Options)").
type Options struct {
	Log     *logging.Logger
	Metrics *Metrics
}

// System is a booted xtask system: one kernel plus one Communication
// Server goroutine per tile, running under a shared errgroup.
type System struct {
	kernels []*kernel.Kernel
	servers []*cs.CS
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// Boot starts every tile's Communication Server and kernel under one
// errgroup.Group, the Go analog of the source's init_tasks()+kernel(...)+
// comserver(...) startup sequence (SPEC_FULL.md §6), grounded on
// ghjramos-aistore's and jra3-system-agent's golang.org/x/sync/errgroup
// fan-out/fan-in pattern for goroutine lifecycle management.
func Boot(ctx context.Context, cfg SystemConfig, opts *Options) (*System, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Log
	if log == nil {
		log = logging.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	observer := NewPrometheusObserver(metrics)

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	sys := &System{group: group, cancel: cancel}

	for _, tc := range cfg.Tiles {
		server := cs.New(cs.Config{
			ID:        tc.Kernel.ID,
			Log:       log,
			Transport: tc.Transport,
			Observer:  observer,
		})
		if tc.Acceptor != nil {
			server.SetRemoteAcceptor(tc.Acceptor)
		}
		sys.servers = append(sys.servers, server)

		k := kernel.New(kernel.Config{
			ID:         tc.Kernel.ID,
			TickPeriod: tc.Kernel.TickPeriod,
			Log:        log,
			CS:         server,
		})
		for _, it := range tc.InitTasks {
			k.SpawnInitTask(it.ID, it.Priority, it.Func, it.Args)
		}
		sys.kernels = append(sys.kernels, k)

		group.Go(func() error { return server.Run(groupCtx) })
		group.Go(func() error { return k.Run(groupCtx) })
	}

	return sys, nil
}

// CS returns tile i's Communication Server, so callers can attach a
// cs.Worker to a channel once its handle is known (the cmd/xtask-worker
// demo's use case) — the kernel/task layer never needs this, since a
// task only ever sees opaque handles and tokens.
func (s *System) CS(i int) *cs.CS { return s.servers[i] }

// Shutdown cancels every tile's kernel and Communication Server goroutine.
func (s *System) Shutdown() {
	s.cancel()
}

// Wait blocks until every tile's goroutines have returned, after Shutdown
// or a context cancellation propagates. A canceled context is the normal
// shutdown path, so context.Canceled is not treated as a failure.
func (s *System) Wait() error {
	if err := s.group.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
