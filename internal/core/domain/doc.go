// Package domain defines the core domain models for seqlink.
//
// Domain models are plain value objects without IO dependencies:
//
//   - SendRecord / ReceiveRecord: the persisted halves of a conversation
//   - SessionInfo: the diagnostic view of a conversation
//   - Errors: coded domain errors shared by every layer
//
// The two directions of a conversation are stored separately so that a
// send and a receive on the same conversation never overwrite each other.
package domain
