// Package service provides the conversation coordinator for seqlink.
//
// Coordinator ties the building blocks together:
//
//   - keyagree: two P-256 agreements per handshake, one per direction
//   - transform: the symmetric engine whose state is persisted per direction
//   - seqguard: the replay and reordering window in front of every decode
//   - storage.Store: TTL persistence of the two directional records
//
// Every operation loads what it needs, computes the successor state without
// side effects and commits with a single store write. A rejected frame or a
// failed decode leaves the stored records byte-identical.
//
// The coordinator holds no per-conversation locks. Callers serialize
// operations on the same conversation and direction; different
// conversations never contend.
package service
