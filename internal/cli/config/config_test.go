package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server != "http://localhost:5380" {
		t.Errorf("Server = %q", cfg.Server)
	}
	if cfg.Output != "text" {
		t.Errorf("Output = %q, want text", cfg.Output)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if !strings.HasSuffix(cfg.HistoryFile, filepath.Join(".seqlink", "chat_history")) {
		t.Errorf("HistoryFile = %q", cfg.HistoryFile)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	if got := DefaultConfigPath(); got != filepath.Join("/home/tester", ".seqlink", "cli.yaml") {
		t.Errorf("DefaultConfigPath() = %q", got)
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server != Default().Server {
		t.Errorf("Server = %q", cfg.Server)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for a missing explicit file")
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "cli.yaml")

	cfg := Default()
	cfg.Server = "https://seqlink.example:5380"
	cfg.Output = "yaml"
	cfg.Timeout = 5 * time.Second
	cfg.Compress = true
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server != cfg.Server || loaded.Output != "yaml" || loaded.Timeout != 5*time.Second || !loaded.Compress {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("server: http://file:1\nhistory_file: /tmp/h\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEQLINK_CLI_SERVER", "http://env:2")
	t.Setenv("SEQLINK_CLI_HISTORY_FILE", "/tmp/env-history")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server != "http://env:2" {
		t.Errorf("Server = %q, want env value", cfg.Server)
	}
	if cfg.HistoryFile != "/tmp/env-history" {
		t.Errorf("HistoryFile = %q, want env value", cfg.HistoryFile)
	}
}
