package xtask

import (
	"strconv"

	"github.com/xtask-project/xtask/internal/cs"
)

// PrometheusObserver implements cs.Observer over a Metrics set, replacing
// the block-device runner's NewMetricsObserver (internal/interfaces/backend.go's Observer
// shape, now an atomics-backed MetricsObserver) with a Prometheus-backed
// one, per SPEC_FULL.md §2.
type PrometheusObserver struct {
	m *Metrics
}

// NewPrometheusObserver wraps m as a cs.Observer.
func NewPrometheusObserver(m *Metrics) *PrometheusObserver {
	return &PrometheusObserver{m: m}
}

var _ cs.Observer = (*PrometheusObserver)(nil)

func (o *PrometheusObserver) ObserveKcall(cmd uint32) {
	o.m.KcallsTotal.WithLabelValues(strconv.FormatUint(uint64(cmd), 10)).Inc()
}

func (o *PrometheusObserver) ObserveVCBytes(handle uint32, n int) {
	o.m.VCBytesTotal.WithLabelValues(strconv.FormatUint(uint64(handle), 10)).Add(float64(n))
}

func (o *PrometheusObserver) ObserveMailboxDelivery(uint32) {
	o.m.MailboxDeliveries.Inc()
}

func (o *PrometheusObserver) ObserveRingFrame(frameType uint8, forwarded bool) {
	outcome := "consumed"
	if forwarded {
		outcome = "forwarded"
	}
	o.m.RingFramesTotal.WithLabelValues(strconv.Itoa(int(frameType)), outcome).Inc()
}

func (o *PrometheusObserver) ObservePKRExhausted() {
	o.m.PKRExhaustedTotal.Inc()
}

func (o *PrometheusObserver) ObserveDroppedNotification() {
	o.m.DroppedNotifications.Inc()
}
