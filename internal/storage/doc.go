// Package storage holds the time-bounded key/value store that carries
// conversation state between requests.
//
// Every entry has a creation time and a TTL. An entry whose age has reached
// its TTL is logically absent; it is removed the next time it is looked up
// rather than by a background sweeper. Writing a key replaces the value and
// restarts its clock. Operations on distinct keys never block each other.
//
// Backends:
//
//   - memory.Store: sharded in-process cache (package memory)
//   - BadgerStore: embedded Badger database for restarts on one node
//   - Sealed: wraps any Store and encrypts values at rest
package storage
