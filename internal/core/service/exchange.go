package service

import (
	"context"
	"errors"

	"github.com/yndnr/seqlink-go/internal/core/domain"
	"github.com/yndnr/seqlink-go/internal/core/seqguard"
	"github.com/yndnr/seqlink-go/internal/core/transform"
)

// Frame is an encoded outbound message and the sequence number the peer
// must present it with.
type Frame struct {
	Seq     uint64
	Payload []byte
}

// Send encodes plaintext for the peer and commits the advanced send state.
func (c *Coordinator) Send(ctx context.Context, id string, plaintext []byte) (*Frame, error) {
	if err := domain.ValidateConversationID(id); err != nil {
		return nil, err
	}
	rec, err := c.loadSend(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.observer.SessionMiss("send")
		}
		return nil, err
	}

	next, seq, payload, err := c.xf.Encode(rec.State, plaintext, domain.AssociatedData(id, rec.Label))
	if err != nil {
		return nil, transformError(err)
	}

	rec.State = next
	rec.LastUsedAt = c.now()
	if err := c.saveSend(ctx, rec); err != nil {
		return nil, err
	}

	c.observer.FrameSent()
	return &Frame{Seq: seq, Payload: payload}, nil
}

// Receive admits seq through the conversation's window, decodes the frame
// and commits the receive state and window together. Any rejection leaves
// the stored record untouched, so the same frame is rejected the same way
// if it is delivered again.
func (c *Coordinator) Receive(ctx context.Context, id string, seq uint64, frame []byte) ([]byte, error) {
	if err := domain.ValidateConversationID(id); err != nil {
		return nil, err
	}
	rec, err := c.loadReceive(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.observer.SessionMiss("receive")
		}
		return nil, err
	}

	guard, err := rec.Guard.Admit(seq)
	if err != nil {
		derr, reason := violationError(err)
		c.observer.FrameRejected(reason)
		c.log(ctx, id).Debug("frame rejected", "seq", seq, "reason", reason,
			"expected", rec.Guard.Expected, "high", rec.Guard.High)
		return nil, derr
	}

	next, plaintext, err := c.xf.Decode(rec.State, seq, frame, domain.AssociatedData(id, rec.Label))
	if err != nil {
		c.observer.FrameRejected(ReasonTransform)
		c.log(ctx, id).Debug("frame rejected", "seq", seq, "reason", ReasonTransform, "error", err)
		return nil, transformError(err)
	}
	if p, ok := c.xf.(transform.Pruner); ok {
		if next, err = p.Prune(next, guard.Floor()); err != nil {
			return nil, transformError(err)
		}
	}

	rec.State = next
	rec.Guard = guard
	rec.LastUsedAt = c.now()
	if err := c.saveReceive(ctx, rec); err != nil {
		return nil, err
	}

	c.observer.FrameAccepted()
	return plaintext, nil
}

// violationError maps a guard rejection to its domain error and the
// reason reported to the observer.
func violationError(err error) (*domain.DomainError, string) {
	var v *seqguard.Violation
	if !errors.As(err, &v) {
		return domain.ErrInternalServer.WithCause(err), "internal"
	}
	var base *domain.DomainError
	var reason string
	switch v.Kind {
	case seqguard.TooOld:
		base, reason = domain.ErrSequenceTooOld, ReasonTooOld
	case seqguard.TooNew:
		base, reason = domain.ErrSequenceTooNew, ReasonTooNew
	default:
		base, reason = domain.ErrSequenceDuplicate, ReasonDuplicate
	}
	return base.WithDetails(v.Error()).WithCause(v), reason
}

func transformError(err error) error {
	switch {
	case errors.Is(err, transform.ErrFrameTooLarge):
		return domain.ErrFrameTooLarge.WithCause(err)
	case errors.Is(err, transform.ErrState):
		return domain.ErrSessionCorrupted.WithCause(err)
	case errors.Is(err, transform.ErrExhausted):
		return domain.ErrTransform.WithDetails("chain exhausted, handshake again").WithCause(err)
	default:
		return domain.ErrTransform.WithCause(err)
	}
}
