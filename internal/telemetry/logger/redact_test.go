package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func newJSONLogger(t *testing.T, buf *bytes.Buffer) Logger {
	t.Helper()
	l, err := New(Config{Level: "info", Format: "json", Output: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	return entry
}

func TestRedactSensitive_KeyNames(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	tests := []struct {
		key   string
		value any
		want  any
	}{
		{"shared_secret", "0011aabb", redactedValue},
		{"state_passphrase", "correct horse", redactedValue},
		{"private_key", "MIGH...", redactedValue},
		{"seed", []byte{1, 2, 3}, redactedValue},
		{"receive_state", []byte{9, 9}, redactedValue},
		{"plaintext", "hello", redactedValue},
		{"payload", "aGVsbG8=", redactedValue},
		{"enc_public_key", "MFkwEwYH", "MFkwEwYH"},
		{"conversation_id", "conv-1", "conv-1"},
		{"seq", float64(7), float64(7)},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			buf.Reset()
			l.Info("test", tt.key, tt.value)
			entry := decodeEntry(t, &buf)
			if got := entry[tt.key]; got != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestRedactSensitive_EmptyValueKept(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	l.Info("test", "secret", "")
	entry := decodeEntry(t, &buf)
	if got := entry["secret"]; got != "" {
		t.Errorf("secret = %v, want empty", got)
	}
}

func TestRedactSensitive_Group(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(t, &buf)

	l.Info("config", slog.Group("security", slog.String("state_passphrase", "hunter2"), slog.String("backend", "badger")))
	entry := decodeEntry(t, &buf)
	group, ok := entry["security"].(map[string]any)
	if !ok {
		t.Fatalf("security group missing: %v", entry)
	}
	if group["state_passphrase"] != redactedValue {
		t.Errorf("state_passphrase = %v, want redacted", group["state_passphrase"])
	}
	if group["backend"] != "badger" {
		t.Errorf("backend = %v, want badger", group["backend"])
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"secret", true},
		{"SEED", true},
		{"send_state", true},
		{"passphrase", true},
		{"dec_public_key", false},
		{"server_pub", false},
		{"conversation_id", false},
		{"window", false},
	}
	for _, tt := range tests {
		if got := IsSensitiveKey(tt.key); got != tt.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"short", "***"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tt := range tests {
		if got := RedactString(tt.input); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
