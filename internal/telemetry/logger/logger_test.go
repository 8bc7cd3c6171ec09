package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// newJSON builds a JSON logger writing to a buffer and restores the shared
// level when the test ends.
func newJSON(t *testing.T, level string, attrs ...any) (Logger, *bytes.Buffer) {
	t.Helper()
	prev := GetLevel()
	t.Cleanup(func() { SetLevel(prev) })

	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: "json", Output: &buf, Attrs: attrs})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default config", DefaultConfig(), false},
		{"text format", Config{Level: "debug", Format: "text"}, false},
		{"console format", Config{Level: "info", Format: "console"}, false},
		{"empty format and level", Config{}, false},
		{"unknown format", Config{Format: "xml"}, true},
		{"unknown level", Config{Level: "verbose"}, true},
	}

	prev := GetLevel()
	t.Cleanup(func() { SetLevel(prev) })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Fatal("New() returned nil logger")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newJSON(t, "debug")

	tests := []struct {
		name  string
		log   func(string, ...any)
		level string
	}{
		{"debug", l.Debug, "DEBUG"},
		{"info", l.Info, "INFO"},
		{"warn", l.Warn, "WARN"},
		{"error", l.Error, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log("frame rejected", "seq", 7)
			entry := decodeLine(t, buf)
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["msg"] != "frame rejected" {
				t.Errorf("msg = %v", entry["msg"])
			}
			if entry["seq"] != float64(7) {
				t.Errorf("seq = %v", entry["seq"])
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newJSON(t, "warn")

	l.Debug("debug message")
	l.Info("info message")
	if buf.Len() > 0 {
		t.Errorf("debug/info should be filtered at warn, got %q", buf.String())
	}
	l.Warn("warn message")
	if buf.Len() == 0 {
		t.Error("warn should be logged")
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newJSON(t, "error")

	l.Info("before")
	if buf.Len() > 0 {
		t.Fatal("info should be filtered at error")
	}

	SetLevel("debug")
	l.Info("after")
	if buf.Len() == 0 {
		t.Error("info should be logged after SetLevel(debug)")
	}
	if got := GetLevel(); got != "debug" {
		t.Errorf("GetLevel() = %q, want debug", got)
	}

	SetLevel("nonsense")
	if got := GetLevel(); got != "info" {
		t.Errorf("GetLevel() after unknown level = %q, want info", got)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"DEBUG", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"warning", slog.LevelWarn, false},
		{"Error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger_Attrs(t *testing.T) {
	l, buf := newJSON(t, "info", "service", "seqlink-server", "version", "v1.2.3")

	l.With("component", "coordinator").Info("handshake completed")

	entry := decodeLine(t, buf)
	for key, want := range map[string]string{
		"service":   "seqlink-server",
		"version":   "v1.2.3",
		"component": "coordinator",
	} {
		if entry[key] != want {
			t.Errorf("%s = %v, want %s", key, entry[key], want)
		}
	}
}

func TestLogger_WithContextStampsIDs(t *testing.T) {
	l, buf := newJSON(t, "info")

	ctx := WithRequestID(context.Background(), "req-01")
	ctx = WithConversationID(ctx, "conv-01")

	l.WithContext(ctx).With("role", "responder").Info("handshake completed")

	entry := decodeLine(t, buf)
	if entry["request_id"] != "req-01" || entry["conversation_id"] != "conv-01" {
		t.Errorf("ids = %v / %v", entry["request_id"], entry["conversation_id"])
	}
	if entry["role"] != "responder" {
		t.Errorf("role = %v", entry["role"])
	}

	buf.Reset()
	l.Info("no context")
	entry = decodeLine(t, buf)
	if _, ok := entry["request_id"]; ok {
		t.Error("request_id should be absent without a context")
	}
}

func TestLogger_RedactsKeyMaterial(t *testing.T) {
	l, buf := newJSON(t, "info")

	l.Info("state saved", "state", "c2VjcmV0LXN0YXRlLWJ5dGVz", "seq", 3)

	if strings.Contains(buf.String(), "c2VjcmV0LXN0YXRlLWJ5dGVz") {
		t.Errorf("state leaked into log: %s", buf.String())
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	l, buf := newJSON(t, "debug")

	prev := Default()
	prevSlog := slog.Default()
	t.Cleanup(func() {
		SetDefault(prev)
		slog.SetDefault(prevSlog)
	})
	SetDefault(l)

	tests := []struct {
		name string
		log  func(string, ...any)
	}{
		{"Debug", Debug},
		{"Info", Info},
		{"Warn", Warn},
		{"Error", Error},
		{"slog.Info", slog.Info},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log("test message")
			if buf.Len() == 0 {
				t.Errorf("%s() produced no output", tt.name)
			}
		})
	}
}

func TestLogger_TextFormat(t *testing.T) {
	prev := GetLevel()
	t.Cleanup(func() { SetLevel(prev) })

	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "text", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	l.Info("store opened", "backend", "badger")

	out := buf.String()
	if !strings.Contains(out, "store opened") || !strings.Contains(out, "backend=badger") {
		t.Errorf("text output = %q", out)
	}
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.With("k", "v").WithContext(context.Background()).Error("dropped")
	if Slog(l) == nil {
		t.Error("Slog(Discard()) = nil")
	}
}
