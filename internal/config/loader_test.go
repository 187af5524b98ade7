package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlaynode.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTestConfig(t, `
topics:
  - name: demo
    bootstrap: ["/ip4/127.0.0.1/tcp/4001"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Network.MinActiveViewSize != 3 {
		t.Errorf("expected default MinActiveViewSize 3, got %d", cfg.Network.MinActiveViewSize)
	}
	if cfg.Network.MaxActiveViewSize != 6 {
		t.Errorf("expected default MaxActiveViewSize 6, got %d", cfg.Network.MaxActiveViewSize)
	}
	if cfg.Scheduler.RowWorkers == 0 {
		t.Errorf("expected RowWorkers to be defaulted to a positive CPU count")
	}
	if cfg.Telemetry.Metrics.ListenAddress != "127.0.0.1:9091" {
		t.Errorf("expected default metrics listen address, got %q", cfg.Telemetry.Metrics.ListenAddress)
	}
	if cfg.Identity.KeyFile == "" {
		t.Errorf("expected a default identity key file path")
	}
}

func TestLoadRejectsEmptyTopics(t *testing.T) {
	path := writeTestConfig(t, "topics: []\n")

	if _, err := Load(path); err != ErrNoTopics {
		t.Fatalf("expected ErrNoTopics, got %v", err)
	}
}

func TestLoadRejectsFutureVersion(t *testing.T) {
	path := writeTestConfig(t, `
version: 99
topics:
  - name: demo
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error loading a config with too-new a version")
	}
}

func TestLoadRejectsPermissiveFileMode(t *testing.T) {
	path := writeTestConfig(t, "topics:\n  - name: demo\n")
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected an error loading a world-readable config file")
	}
}
