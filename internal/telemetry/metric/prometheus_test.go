package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/seqlink-go/internal/core/service"
)

var _ service.Observer = (*Registry)(nil)

func TestRegistry_Observer(t *testing.T) {
	r := NewRegistry()

	r.HandshakeCompleted(service.RoleResponder)
	r.HandshakeCompleted(service.RoleResponder)
	r.HandshakeCompleted(service.RoleInitiator)
	r.FrameSent()
	r.FrameAccepted()
	r.FrameAccepted()
	r.FrameRejected(service.ReasonDuplicate)
	r.SessionMiss("receive")
	r.SessionClosed()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"responder handshakes", testutil.ToFloat64(r.HandshakesTotal.WithLabelValues(service.RoleResponder)), 2},
		{"initiator handshakes", testutil.ToFloat64(r.HandshakesTotal.WithLabelValues(service.RoleInitiator)), 1},
		{"frames sent", testutil.ToFloat64(r.FramesSent), 1},
		{"accepted", testutil.ToFloat64(r.FramesReceived.WithLabelValues("accepted")), 2},
		{"duplicate", testutil.ToFloat64(r.FramesReceived.WithLabelValues(service.ReasonDuplicate)), 1},
		{"receive misses", testutil.ToFloat64(r.SessionMisses.WithLabelValues("receive")), 1},
		{"closed", testutil.ToFloat64(r.SessionsClosed), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestRegistry_ObserveRequest(t *testing.T) {
	r := NewRegistry()
	r.ObserveRequest(http.MethodPost, "/v1/conversations/{id}/exchange", 409, 3*time.Millisecond)

	got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues(http.MethodPost, "/v1/conversations/{id}/exchange", "409"))
	if got != 1 {
		t.Errorf("requests_total = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(r.RequestDuration); n != 1 {
		t.Errorf("request_duration series = %d, want 1", n)
	}
}

type fixedPending int

func (f fixedPending) PendingHandshakes() int { return int(f) }

func TestCollector(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewCollector(fixedPending(3))); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	want := `
# HELP seqlink_session_pending_handshakes Initiated handshakes waiting for the responder's answer
# TYPE seqlink_session_pending_handshakes gauge
seqlink_session_pending_handshakes 3
`
	if err := testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(want), "seqlink_session_pending_handshakes"); err != nil {
		t.Error(err)
	}
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.FrameSent()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, name := range []string{"seqlink_session_frames_sent_total 1", "go_goroutines"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %q", name)
		}
	}
}
