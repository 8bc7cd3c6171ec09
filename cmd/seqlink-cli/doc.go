// Package main provides the entry point for seqlink-cli.
//
// seqlink-cli opens conversations with a seqlink server and exchanges
// encrypted, sequenced messages with it:
//
//   - chat: handshake, then send lines typed (or --message) and print replies
//   - conversation: inspect or close a conversation on the server
//   - health: probe the server and show its window policy
//   - keygen: print a fresh P-256 public key
//
// Usage:
//
//	seqlink-cli [global flags] command [flags]
//	seqlink-cli --server http://localhost:5380 chat
//	seqlink-cli -o json chat -m hello -m world
package main
