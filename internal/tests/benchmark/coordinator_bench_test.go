package benchmark

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/yndnr/seqlink-go/internal/core/domain"
	"github.com/yndnr/seqlink-go/internal/core/service"
)

// BenchmarkHandshake measures a full initiate/answer/complete round at
// various preload sizes.
func BenchmarkHandshake(b *testing.B) {
	runWithConversationCounts(b, SmallConversationCounts, func(b *testing.B, count int) {
		ctx := context.Background()
		p := newPeers(b, nil, nil, 0)
		p.prefill(b, ctx, count)

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if err := p.connect(ctx, fmt.Sprintf("bench-%d", i)); err != nil {
				b.Fatalf("connect: %v", err)
			}
		}

		b.StopTimer()
		reportMemory(b, "mem")
	})
}

// BenchmarkExchange measures one in-order send and receive per guard mode.
func BenchmarkExchange(b *testing.B) {
	for _, w := range Windows {
		b.Run(w.Name, func(b *testing.B) {
			ctx := context.Background()
			p := newPeers(b, nil, nil, w.Window)
			id := "bench-exchange"
			if err := p.connect(ctx, id); err != nil {
				b.Fatalf("connect: %v", err)
			}
			msg := []byte("benchmark payload of moderate length for the exchange path")

			b.ResetTimer()
			b.ReportAllocs()

			for i := 0; i < b.N; i++ {
				frame, err := p.initiator.Send(ctx, id, msg)
				if err != nil {
					b.Fatalf("Send: %v", err)
				}
				if _, err := p.responder.Receive(ctx, id, frame.Seq, frame.Payload); err != nil {
					b.Fatalf("Receive seq %d: %v", frame.Seq, err)
				}
			}
		})
	}
}

// BenchmarkExchange_Reordered delivers frames in reversed pairs through an
// async window so every other receive draws on retained keys.
func BenchmarkExchange_Reordered(b *testing.B) {
	ctx := context.Background()
	p := newPeers(b, nil, nil, -64)
	id := "bench-reordered"
	if err := p.connect(ctx, id); err != nil {
		b.Fatalf("connect: %v", err)
	}
	msg := []byte("reordered")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		first, err := p.initiator.Send(ctx, id, msg)
		if err != nil {
			b.Fatalf("Send: %v", err)
		}
		second, err := p.initiator.Send(ctx, id, msg)
		if err != nil {
			b.Fatalf("Send: %v", err)
		}
		for _, f := range []*service.Frame{second, first} {
			if _, err := p.responder.Receive(ctx, id, f.Seq, f.Payload); err != nil {
				b.Fatalf("Receive seq %d: %v", f.Seq, err)
			}
		}
	}
}

// BenchmarkReceive_Rejected measures the replay rejection path, which
// must not write anything back.
func BenchmarkReceive_Rejected(b *testing.B) {
	ctx := context.Background()
	p := newPeers(b, nil, nil, 0)
	id := "bench-replay"
	if err := p.connect(ctx, id); err != nil {
		b.Fatalf("connect: %v", err)
	}
	frame, err := p.initiator.Send(ctx, id, []byte("once"))
	if err != nil {
		b.Fatalf("Send: %v", err)
	}
	if _, err := p.responder.Receive(ctx, id, frame.Seq, frame.Payload); err != nil {
		b.Fatalf("Receive: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := p.responder.Receive(ctx, id, frame.Seq, frame.Payload)
		if !domain.IsSequenceViolation(err) {
			b.Fatalf("Receive replay = %v, want sequence violation", err)
		}
	}
}

// BenchmarkExchange_Parallel spreads exchanges over many conversations.
func BenchmarkExchange_Parallel(b *testing.B) {
	ctx := context.Background()
	p := newPeers(b, nil, nil, 0)
	ids := p.prefill(b, ctx, 256)

	b.ResetTimer()
	b.ReportAllocs()

	var next int64
	b.RunParallel(func(pb *testing.PB) {
		// Each goroutine owns one conversation so sends stay in order.
		id := ids[int(atomic.AddInt64(&next, 1)-1)%len(ids)]
		for pb.Next() {
			frame, err := p.initiator.Send(ctx, id, []byte("parallel"))
			if err != nil {
				b.Errorf("Send: %v", err)
				return
			}
			if _, err := p.responder.Receive(ctx, id, frame.Seq, frame.Payload); err != nil {
				b.Errorf("Receive: %v", err)
				return
			}
		}
	})
}
