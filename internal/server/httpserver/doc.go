// Package httpserver provides the HTTP/HTTPS server for seqlink-server.
//
// It is built on net/http. NewRouter wires the handler package behind the
// middleware chain (request id, panic recovery, CORS, rate limiting,
// request metrics and audit logging) and exposes the Prometheus registry
// on /metrics.
package httpserver
