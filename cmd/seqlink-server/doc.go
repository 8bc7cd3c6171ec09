// Package main provides the entry point for seqlink-server.
//
// The server answers handshakes from initiators and then exchanges
// encrypted, sequenced frames with them over HTTP:
//
//   - HTTP/HTTPS conversation API under /v1
//   - /health and /ready probes
//   - Prometheus metrics at /metrics
//
// Conversation state lives in memory or in Badger, optionally sealed at
// rest with a key derived from a passphrase.
//
// Usage:
//
//	seqlink-server [flags]
//	seqlink-server --config /etc/seqlink-server/config.yaml
//
// Environment variables prefixed with SEQLINK_ override file settings.
// log.level is re-read when the config file changes.
package main
