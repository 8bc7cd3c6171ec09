package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yndnr/seqlink-go/internal/core/domain"
	"github.com/yndnr/seqlink-go/internal/core/keyagree"
)

// HandshakeResult is what a responder returns to the initiator.
type HandshakeResult struct {
	ConversationID string
	EncPublicKey   []byte // responder's sending key
	DecPublicKey   []byte // responder's receiving key
	Window         int
	ExpiresAt      time.Time
}

// Offer is the initiator's half of a handshake.
type Offer struct {
	ConversationID string
	EncPublicKey   []byte // initiator's sending key
	DecPublicKey   []byte // initiator's receiving key
	Window         int
	ExpiresAt      time.Time
}

// HandshakeOption adjusts a single handshake.
type HandshakeOption func(*handshakeConfig)

type handshakeConfig struct {
	window    int
	windowSet bool
}

// WithWindow requests a sequence window for this conversation. A
// responder honors it only when window overrides are allowed.
func WithWindow(w int) HandshakeOption {
	return func(h *handshakeConfig) {
		h.window = w
		h.windowSet = true
	}
}

type pendingHandshake struct {
	enc    *keyagree.KeyPair
	dec    *keyagree.KeyPair
	window int
}

func (p *pendingHandshake) destroy() {
	p.enc.Destroy()
	p.dec.Destroy()
}

// Handshake answers an initiator. remoteEnc is the key the initiator sends
// with and remoteDec the key it receives with. Both conversation records
// are (re)created, so a repeated handshake on an id starts it over.
func (c *Coordinator) Handshake(ctx context.Context, id string, remoteEnc, remoteDec []byte, opts ...HandshakeOption) (*HandshakeResult, error) {
	if err := domain.ValidateConversationID(id); err != nil {
		return nil, err
	}
	window, err := c.resolveWindow(opts)
	if err != nil {
		return nil, err
	}
	// Reject bad keys before spending work on key generation.
	if _, err := keyagree.ParsePublicKey(remoteEnc); err != nil {
		return nil, err
	}
	if _, err := keyagree.ParsePublicKey(remoteDec); err != nil {
		return nil, err
	}

	enc, dec, err := generatePair()
	if err != nil {
		return nil, err
	}
	defer enc.Destroy()
	defer dec.Destroy()

	recv, err := deriveSeed(dec, remoteEnc, keyagree.LabelInitiatorToResponder)
	if err != nil {
		return nil, err
	}
	defer recv.wipe()
	send, err := deriveSeed(enc, remoteDec, keyagree.LabelResponderToInitiator)
	if err != nil {
		return nil, err
	}
	defer send.wipe()

	if err := c.establish(ctx, id, window, send, recv); err != nil {
		return nil, err
	}

	c.observer.HandshakeCompleted(RoleResponder)
	c.log(ctx, id).Info("handshake completed", "role", RoleResponder, "window", window)

	return &HandshakeResult{
		ConversationID: id,
		EncPublicKey:   enc.PublicKey(),
		DecPublicKey:   dec.PublicKey(),
		Window:         window,
		ExpiresAt:      c.now().Add(c.ttl),
	}, nil
}

// Initiate starts a handshake from the initiating side. The returned public
// keys go to the responder; its answer is passed to Complete before the
// handshake TTL runs out. Initiating again for the same id replaces the
// earlier offer.
func (c *Coordinator) Initiate(ctx context.Context, id string, opts ...HandshakeOption) (*Offer, error) {
	if err := domain.ValidateConversationID(id); err != nil {
		return nil, err
	}
	h := handshakeConfig{window: c.window}
	for _, opt := range opts {
		opt(&h)
	}
	if err := domain.ValidateWindow(h.window); err != nil {
		return nil, err
	}

	enc, dec, err := generatePair()
	if err != nil {
		return nil, err
	}
	if old, ok := c.pending.Take(id); ok {
		old.destroy()
	}
	c.pending.Store(id, &pendingHandshake{enc: enc, dec: dec, window: h.window}, c.handshakeTTL)

	c.log(ctx, id).Debug("handshake initiated", "window", h.window)
	return &Offer{
		ConversationID: id,
		EncPublicKey:   enc.PublicKey(),
		DecPublicKey:   dec.PublicKey(),
		Window:         h.window,
		ExpiresAt:      c.now().Add(c.handshakeTTL),
	}, nil
}

// Complete finishes a handshake started with Initiate using the
// responder's public keys. The pending key pairs are consumed whether or
// not Complete succeeds.
func (c *Coordinator) Complete(ctx context.Context, id string, remoteEnc, remoteDec []byte) error {
	if err := domain.ValidateConversationID(id); err != nil {
		return err
	}
	p, ok := c.pending.Take(id)
	if !ok {
		return domain.ErrHandshakeNotFound.WithDetails(id)
	}
	defer p.destroy()

	send, err := deriveSeed(p.enc, remoteDec, keyagree.LabelInitiatorToResponder)
	if err != nil {
		return err
	}
	defer send.wipe()
	recv, err := deriveSeed(p.dec, remoteEnc, keyagree.LabelResponderToInitiator)
	if err != nil {
		return err
	}
	defer recv.wipe()

	if err := c.establish(ctx, id, p.window, send, recv); err != nil {
		return err
	}

	c.observer.HandshakeCompleted(RoleInitiator)
	c.log(ctx, id).Info("handshake completed", "role", RoleInitiator, "window", p.window)
	return nil
}

// PendingHandshakes returns the number of live initiated handshakes.
// Expired ones are dropped first.
func (c *Coordinator) PendingHandshakes() int {
	c.pending.Purge()
	return c.pending.Len()
}

func (c *Coordinator) resolveWindow(opts []HandshakeOption) (int, error) {
	h := handshakeConfig{window: c.window}
	for _, opt := range opts {
		opt(&h)
	}
	if h.windowSet && h.window != c.window && !c.allowOverride {
		return 0, domain.ErrInvalidArgument.WithDetails(
			fmt.Sprintf("window override not allowed (server window is %d)", c.window))
	}
	if err := domain.ValidateWindow(h.window); err != nil {
		return 0, err
	}
	return h.window, nil
}

func generatePair() (*keyagree.KeyPair, *keyagree.KeyPair, error) {
	enc, err := keyagree.GenerateKeyPair()
	if err != nil {
		return nil, nil, domain.ErrInternalServer.WithCause(err)
	}
	dec, err := keyagree.GenerateKeyPair()
	if err != nil {
		enc.Destroy()
		return nil, nil, domain.ErrInternalServer.WithCause(err)
	}
	return enc, dec, nil
}

// deriveSeed agrees a secret with remote and expands it under label. The
// raw secret is wiped before returning.
func deriveSeed(local *keyagree.KeyPair, remote []byte, label string) (seeded, error) {
	secret, err := keyagree.Derive(local, remote)
	if err != nil {
		if domain.IsDomainError(err, "") {
			return seeded{}, err
		}
		return seeded{}, domain.ErrInternalServer.WithCause(err)
	}
	defer keyagree.Wipe(secret)

	seed, err := keyagree.ExpandSeed(secret, label)
	if err != nil {
		return seeded{}, domain.ErrInternalServer.WithCause(err)
	}
	return seeded{seed: seed, label: label}, nil
}
