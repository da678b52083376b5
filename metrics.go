package xtask

import "github.com/prometheus/client_golang/prometheus"

// Metrics replaces the block-device runner's hand-rolled sync/atomic counters
// (ReadOps/WriteOps/DiscardOps) with a prometheus/client_golang registry,
// grounded on ghjramos-aistore's and jra3-system-agent's
// prometheus/client_golang dependency (SPEC_FULL.md §2). Counters are
// vectored by the dimension spec.md's tables name (kcall number, VC
// handle, ring frame type) instead of one field per category, since
// those dimensions are open-ended across a running system's lifetime.
type Metrics struct {
	KcallsTotal   *prometheus.CounterVec
	TasksCreated  prometheus.Counter
	TasksExited   prometheus.Counter
	TicksTotal    prometheus.Counter
	VCBytesTotal  *prometheus.CounterVec
	MailboxDeliveries prometheus.Counter
	RingFramesTotal   *prometheus.CounterVec
	PKRExhaustedTotal prometheus.Counter
	PRRDepth          prometheus.Gauge
	DroppedNotifications prometheus.Counter
	ReadyQueueDepth   *prometheus.GaugeVec
}

// NewMetrics registers a fresh Metrics set against reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the global
// default registry across parallel test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		KcallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xtask_kcalls_total",
			Help: "Kernel calls dispatched, by kcall number.",
		}, []string{"kcall"}),
		TasksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xtask_tasks_created_total",
			Help: "Tasks created, across create_task and init tasks.",
		}),
		TasksExited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xtask_tasks_exited_total",
			Help: "Tasks that have run to completion.",
		}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xtask_ticks_total",
			Help: "Kernel tick periods processed.",
		}),
		VCBytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xtask_vc_bytes_total",
			Help: "Bytes moved through virtual channels, by handle.",
		}, []string{"handle"}),
		MailboxDeliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xtask_mailbox_deliveries_total",
			Help: "Mailbox messages accepted by a local mailbox, whether handed to a waiting receiver or queued.",
		}),
		RingFramesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xtask_ring_frames_total",
			Help: "Ring frames forwarded or consumed, by frame type and outcome.",
		}, []string{"type", "outcome"}),
		PKRExhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xtask_cs_pkr_exhausted_total",
			Help: "create_remote_thread calls that had to wait for a free PKR slot.",
		}),
		PRRDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "xtask_cs_prr_depth",
			Help: "Current depth of the pending ring-reply list.",
		}),
		DroppedNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xtask_cs_dropped_notifications_total",
			Help: "Notification wake-ups not signalled because the notification buffer was full; the event itself stays queued.",
		}),
		ReadyQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "xtask_ready_queue_depth",
			Help: "Current ready queue depth, by kernel id and priority.",
		}, []string{"kernel", "priority"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.KcallsTotal, m.TasksCreated, m.TasksExited, m.TicksTotal,
			m.VCBytesTotal, m.MailboxDeliveries, m.RingFramesTotal,
			m.PKRExhaustedTotal, m.PRRDepth, m.DroppedNotifications,
			m.ReadyQueueDepth,
		)
	}
	return m
}
