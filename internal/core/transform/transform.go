// Package transform provides the keyed stream transform that turns
// plaintext into frames and back.
//
// A Transform is stateless; all of its state travels as an opaque byte
// slice that the caller persists between calls. Encode and Decode never
// modify the state they are given. They return the successor state, which
// the caller commits only if it decides to keep the result.
package transform

import "errors"

var (
	// ErrDecode is returned when a frame cannot be authenticated or decoded
	// with the given state. The state remains valid.
	ErrDecode = errors.New("transform: frame rejected")

	// ErrState is returned when the persisted state is unreadable.
	ErrState = errors.New("transform: corrupt state")

	// ErrFrameTooLarge is returned for payloads above the frame limit.
	ErrFrameTooLarge = errors.New("transform: frame too large")

	// ErrExhausted is returned when a chain has produced its last key.
	ErrExhausted = errors.New("transform: chain exhausted, re-key required")
)

// Transform encodes and decodes frames for one direction of a conversation.
type Transform interface {
	// Seed returns the initial state for a 32-byte seed. maxSkip bounds how
	// far ahead of the current position a frame may be decoded and how many
	// out-of-order keys the state retains.
	Seed(seed []byte, maxSkip int) ([]byte, error)

	// Encode seals plaintext and returns the successor state together with
	// the sequence number the frame was produced at.
	Encode(state, plaintext, ad []byte) (next []byte, seq uint64, frame []byte, err error)

	// Decode opens the frame produced at seq.
	Decode(state []byte, seq uint64, frame, ad []byte) (next, plaintext []byte, err error)
}

// Pruner is implemented by transforms that retain per-sequence material.
// Prune discards everything kept for sequence numbers below floor.
type Pruner interface {
	Prune(state []byte, floor uint64) ([]byte, error)
}

// Position reports the next sequence number a state will encode at. It is
// implemented by transforms whose state exposes that without decoding.
type Position interface {
	Position(state []byte) (uint64, error)
}
