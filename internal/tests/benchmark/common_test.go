package benchmark

import (
	"context"
	"fmt"
	"runtime"
	"testing"

	"github.com/yndnr/seqlink-go/internal/core/domain"
	"github.com/yndnr/seqlink-go/internal/core/service"
	"github.com/yndnr/seqlink-go/internal/core/transform"
	"github.com/yndnr/seqlink-go/internal/storage"
	"github.com/yndnr/seqlink-go/internal/storage/memory"
	"github.com/yndnr/seqlink-go/internal/telemetry/logger"
)

// ConversationCounts defines the preload sizes for benchmarking.
var ConversationCounts = []int{1000, 10000, 50000, 100000}

// SmallConversationCounts for quick benchmarks.
var SmallConversationCounts = []int{100, 1000, 5000}

// Windows covers one policy per guard mode.
var Windows = []struct {
	Name   string
	Window int
}{
	{"strict", 0},
	{"forward", 64},
	{"async", -64},
}

// peers is an initiator and a responder sharing established conversations.
type peers struct {
	initiator *service.Coordinator
	responder *service.Coordinator
}

func newCoordinator(b *testing.B, store storage.Store, window int) *service.Coordinator {
	b.Helper()
	c, err := service.NewCoordinator(store, transform.NewRatchet(),
		service.WithDefaultWindow(window),
		service.WithLogger(logger.Discard()))
	if err != nil {
		b.Fatalf("NewCoordinator: %v", err)
	}
	return c
}

// newPeers builds two coordinators over their own stores. A nil store
// means an in-memory one.
func newPeers(b *testing.B, initStore, respStore storage.Store, window int) *peers {
	b.Helper()
	if initStore == nil {
		initStore = memory.NewStore()
	}
	if respStore == nil {
		respStore = memory.NewStore()
	}
	b.Cleanup(func() {
		_ = initStore.Close()
		_ = respStore.Close()
	})
	return &peers{
		initiator: newCoordinator(b, initStore, window),
		responder: newCoordinator(b, respStore, window),
	}
}

// connect runs a full handshake for id.
func (p *peers) connect(ctx context.Context, id string) error {
	offer, err := p.initiator.Initiate(ctx, id)
	if err != nil {
		return err
	}
	res, err := p.responder.Handshake(ctx, id, offer.EncPublicKey, offer.DecPublicKey)
	if err != nil {
		return err
	}
	return p.initiator.Complete(ctx, id, res.EncPublicKey, res.DecPublicKey)
}

// prefill establishes count conversations and returns their ids.
func (p *peers) prefill(b *testing.B, ctx context.Context, count int) []string {
	b.Helper()
	ids := make([]string, count)
	for i := range ids {
		id, err := domain.GenerateConversationID()
		if err != nil {
			b.Fatalf("GenerateConversationID: %v", err)
		}
		if err := p.connect(ctx, id); err != nil {
			b.Fatalf("connect %s: %v", id, err)
		}
		ids[i] = id
	}
	return ids
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithConversationCounts runs a benchmark function with various preload sizes.
func runWithConversationCounts(b *testing.B, counts []int, benchFn func(b *testing.B, count int)) {
	for _, count := range counts {
		b.Run(fmt.Sprintf("conversations_%d", count), func(b *testing.B) {
			benchFn(b, count)
		})
	}
}
