// Package metric provides Prometheus metrics for seqlink.
//
//   - prometheus.go: the Registry, its coordinator and HTTP metrics, and
//     the /metrics handler
//   - collector.go: scrape-time collector for values read from live
//     components, such as pending handshakes
//
// The Registry owns its own prometheus.Registry so tests and embedded
// servers never collide on the global default registerer.
package metric
