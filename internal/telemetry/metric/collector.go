package metric

import "github.com/prometheus/client_golang/prometheus"

// PendingCounter reports in-flight handshakes. *service.Coordinator
// implements it.
type PendingCounter interface {
	PendingHandshakes() int
}

// Collector reads values from live components at scrape time.
type Collector struct {
	pending     PendingCounter
	pendingDesc *prometheus.Desc
}

// NewCollector creates a collector over the given components.
func NewCollector(pending PendingCounter) *Collector {
	return &Collector{
		pending: pending,
		pendingDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "pending_handshakes"),
			"Initiated handshakes waiting for the responder's answer",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pendingDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.pendingDesc, prometheus.GaugeValue, float64(c.pending.PendingHandshakes()))
}

// Register adds c to the registry.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.reg.Register(c)
}
