package service

import (
	"context"
	"errors"
	"time"

	"github.com/yndnr/seqlink-go/internal/core/domain"
	"github.com/yndnr/seqlink-go/internal/core/keyagree"
	"github.com/yndnr/seqlink-go/internal/core/seqguard"
	"github.com/yndnr/seqlink-go/internal/core/transform"
	"github.com/yndnr/seqlink-go/internal/storage"
	"github.com/yndnr/seqlink-go/internal/storage/memory"
	"github.com/yndnr/seqlink-go/internal/telemetry/logger"
)

// Coordinator defaults.
const (
	DefaultSessionTTL   = 30 * time.Minute
	DefaultHandshakeTTL = time.Minute
)

// Coordinator runs handshakes and moves frames through the transform for
// every conversation held in its store.
type Coordinator struct {
	store storage.Store
	xf    transform.Transform

	ttl           time.Duration
	handshakeTTL  time.Duration
	window        int
	allowOverride bool

	observer Observer
	logger   logger.Logger
	now      func() time.Time

	// Initiator key pairs waiting for the responder's answer. Private keys
	// never leave this process.
	pending *memory.Cache[string, *pendingHandshake]
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTTL sets how long a conversation half survives without use.
func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithHandshakeTTL sets how long an initiated handshake waits for Complete.
func WithHandshakeTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		if ttl > 0 {
			c.handshakeTTL = ttl
		}
	}
}

// WithDefaultWindow sets the sequence window for new conversations.
func WithDefaultWindow(w int) Option {
	return func(c *Coordinator) {
		c.window = w
	}
}

// WithAllowWindowOverride lets peers pick their own window at handshake.
func WithAllowWindowOverride(allow bool) Option {
	return func(c *Coordinator) {
		c.allowOverride = allow
	}
}

// WithObserver installs an event observer.
func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source for record timestamps and pending
// handshake expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator creates a coordinator over store and xf. The caller owns
// store and closes it.
func NewCoordinator(store storage.Store, xf transform.Transform, opts ...Option) (*Coordinator, error) {
	if store == nil {
		return nil, domain.ErrMissingArgument.WithDetails("store is required")
	}
	if xf == nil {
		return nil, domain.ErrMissingArgument.WithDetails("transform is required")
	}
	c := &Coordinator{
		store:        store,
		xf:           xf,
		ttl:          DefaultSessionTTL,
		handshakeTTL: DefaultHandshakeTTL,
		observer:     NopObserver{},
		logger:       logger.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := domain.ValidateWindow(c.window); err != nil {
		return nil, err
	}
	c.pending = memory.NewCache[string, *pendingHandshake](memory.WithClock(c.now))
	return c, nil
}

// TTL returns the conversation lifetime.
func (c *Coordinator) TTL() time.Duration {
	return c.ttl
}

// DefaultWindow returns the window used when a handshake does not pick one.
func (c *Coordinator) DefaultWindow() int {
	return c.window
}

// AllowsWindowOverride reports whether peers may pick their own window.
func (c *Coordinator) AllowsWindowOverride() bool {
	return c.allowOverride
}

// Close tears down a conversation and any pending handshake for it. Closing
// an unknown conversation is not an error.
func (c *Coordinator) Close(ctx context.Context, id string) error {
	if err := domain.ValidateConversationID(id); err != nil {
		return err
	}
	if p, ok := c.pending.Take(id); ok {
		p.destroy()
	}
	var errs []error
	for _, dir := range []domain.Direction{domain.DirectionSend, domain.DirectionReceive} {
		if err := c.store.Delete(ctx, domain.StorageKey(id, dir)); err != nil && !errors.Is(err, storage.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return domain.ErrStorageError.WithCause(errors.Join(errs...))
	}
	c.observer.SessionClosed()
	c.log(ctx, id).Info("conversation closed")
	return nil
}

// Describe reports diagnostics for a conversation. Either half may have
// expired on its own; the conversation is missing only when both have.
func (c *Coordinator) Describe(ctx context.Context, id string) (*domain.SessionInfo, error) {
	if err := domain.ValidateConversationID(id); err != nil {
		return nil, err
	}
	tx, txErr := c.loadSend(ctx, id)
	rx, rxErr := c.loadReceive(ctx, id)
	switch {
	case txErr != nil && !errors.Is(txErr, domain.ErrSessionNotFound):
		return nil, txErr
	case rxErr != nil && !errors.Is(rxErr, domain.ErrSessionNotFound):
		return nil, rxErr
	case tx == nil && rx == nil:
		c.observer.SessionMiss("describe")
		return nil, domain.ErrSessionNotFound.WithDetails(id)
	}

	info := &domain.SessionInfo{ConversationID: id, HighestSeq: -1}
	if tx != nil {
		info.CreatedAt = tx.CreatedAt
		info.LastSendAt = tx.LastUsedAt
		if pos, ok := c.xf.(transform.Position); ok {
			if seq, err := pos.Position(tx.State); err == nil {
				info.NextSendSeq = seq
			}
		}
	}
	if rx != nil {
		if info.CreatedAt.IsZero() || rx.CreatedAt.Before(info.CreatedAt) {
			info.CreatedAt = rx.CreatedAt
		}
		info.LastReceiveAt = rx.LastUsedAt
		info.Window = rx.Guard.Window
		info.Mode = rx.Guard.Mode().String()
		info.ExpectedSeq = rx.Guard.Expected
		info.HighestSeq = rx.Guard.High
	}
	return info, nil
}

// establish seeds both engines and writes both records. The receive
// record goes first; if the send record cannot be written the receive
// record is put back the way it was, so a failed re-key leaves the old
// conversation whole and a failed first handshake leaves nothing.
func (c *Coordinator) establish(ctx context.Context, id string, window int, send, recv seeded) error {
	guard := seqguard.New(window)

	rxKey := domain.StorageKey(id, domain.DirectionReceive)
	prevRx, err := c.store.Get(ctx, rxKey)
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrSealBroken):
		// Nothing usable to restore; a re-key is how a broken record is replaced.
		prevRx = nil
	case err != nil:
		return domain.ErrStorageError.WithCause(err)
	}

	sendState, err := c.xf.Seed(send.seed, 1)
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}
	recvState, err := c.xf.Seed(recv.seed, guard.Slots())
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}

	now := c.now()
	rx := &domain.ReceiveRecord{
		ConversationID: id,
		Label:          recv.label,
		CreatedAt:      now,
		LastUsedAt:     now,
		State:          recvState,
		Guard:          guard,
	}
	tx := &domain.SendRecord{
		ConversationID: id,
		Label:          send.label,
		CreatedAt:      now,
		LastUsedAt:     now,
		State:          sendState,
	}

	if err := c.saveReceive(ctx, rx); err != nil {
		return err
	}
	if err := c.saveSend(ctx, tx); err != nil {
		c.restoreReceive(ctx, id, prevRx)
		return err
	}
	return nil
}

// restoreReceive undoes the receive write of a failed establish. The
// restored record starts a fresh TTL.
func (c *Coordinator) restoreReceive(ctx context.Context, id string, prev []byte) {
	key := domain.StorageKey(id, domain.DirectionReceive)
	var err error
	if prev == nil {
		err = c.store.Delete(ctx, key)
	} else {
		err = c.store.Store(ctx, key, prev, c.ttl)
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		c.log(ctx, id).Warn("handshake rollback failed", "error", err, "restore", prev != nil)
	}
}

func (c *Coordinator) loadSend(ctx context.Context, id string) (*domain.SendRecord, error) {
	b, err := c.load(ctx, id, domain.DirectionSend)
	if err != nil {
		return nil, err
	}
	return domain.UnmarshalSendRecord(b)
}

func (c *Coordinator) loadReceive(ctx context.Context, id string) (*domain.ReceiveRecord, error) {
	b, err := c.load(ctx, id, domain.DirectionReceive)
	if err != nil {
		return nil, err
	}
	return domain.UnmarshalReceiveRecord(b)
}

func (c *Coordinator) load(ctx context.Context, id string, dir domain.Direction) ([]byte, error) {
	b, err := c.store.Get(ctx, domain.StorageKey(id, dir))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.ErrSessionNotFound.WithDetails(id)
	}
	if errors.Is(err, storage.ErrSealBroken) {
		return nil, domain.ErrSessionCorrupted.WithCause(err)
	}
	if err != nil {
		return nil, domain.ErrStorageError.WithCause(err)
	}
	return b, nil
}

func (c *Coordinator) saveSend(ctx context.Context, rec *domain.SendRecord) error {
	b, err := rec.Marshal()
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}
	return c.save(ctx, rec.ConversationID, domain.DirectionSend, b)
}

func (c *Coordinator) saveReceive(ctx context.Context, rec *domain.ReceiveRecord) error {
	b, err := rec.Marshal()
	if err != nil {
		return domain.ErrInternalServer.WithCause(err)
	}
	return c.save(ctx, rec.ConversationID, domain.DirectionReceive, b)
}

func (c *Coordinator) save(ctx context.Context, id string, dir domain.Direction, b []byte) error {
	if err := c.store.Store(ctx, domain.StorageKey(id, dir), b, c.ttl); err != nil {
		return domain.ErrStorageError.WithCause(err)
	}
	return nil
}

func (c *Coordinator) log(ctx context.Context, id string) logger.Logger {
	if logger.ConversationIDFromContext(ctx) != id {
		ctx = logger.WithConversationID(ctx, id)
	}
	return c.logger.WithContext(ctx)
}

// seeded is an expanded seed together with the direction label it was
// expanded with.
type seeded struct {
	seed  []byte
	label string
}

func (s seeded) wipe() {
	keyagree.Wipe(s.seed)
}
