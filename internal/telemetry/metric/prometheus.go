package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "seqlink"

// Registry holds all application metrics. It implements the coordinator's
// Observer interface.
type Registry struct {
	reg *prometheus.Registry

	// Conversation metrics
	HandshakesTotal *prometheus.CounterVec
	FramesSent      prometheus.Counter
	FramesReceived  *prometheus.CounterVec
	SessionMisses   *prometheus.CounterVec
	SessionsClosed  prometheus.Counter

	// Request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with the seqlink metrics plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		HandshakesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "handshakes_total",
			Help:      "Completed handshakes by role",
		}, []string{"role"}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "frames_sent_total",
			Help:      "Frames encoded for a peer",
		}),
		FramesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "frames_received_total",
			Help:      "Inbound frames by outcome",
		}, []string{"outcome"}),
		SessionMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "misses_total",
			Help:      "Operations on missing or expired conversations",
		}, []string{"op"}),
		SessionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "closed_total",
			Help:      "Conversations closed explicitly",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.HandshakesTotal,
		r.FramesSent,
		r.FramesReceived,
		r.SessionMisses,
		r.SessionsClosed,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Registerer exposes the underlying registry for components that register
// their own metrics, such as the Badger store.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Gatherer exposes the underlying registry for scraping.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// ObserveRequest records one HTTP request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// HandshakeCompleted implements service.Observer.
func (r *Registry) HandshakeCompleted(role string) {
	r.HandshakesTotal.WithLabelValues(role).Inc()
}

// FrameSent implements service.Observer.
func (r *Registry) FrameSent() {
	r.FramesSent.Inc()
}

// FrameAccepted implements service.Observer.
func (r *Registry) FrameAccepted() {
	r.FramesReceived.WithLabelValues("accepted").Inc()
}

// FrameRejected implements service.Observer.
func (r *Registry) FrameRejected(reason string) {
	r.FramesReceived.WithLabelValues(reason).Inc()
}

// SessionMiss implements service.Observer.
func (r *Registry) SessionMiss(op string) {
	r.SessionMisses.WithLabelValues(op).Inc()
}

// SessionClosed implements service.Observer.
func (r *Registry) SessionClosed() {
	r.SessionsClosed.Inc()
}
