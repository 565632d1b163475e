package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
	if cfg.Fetcher.MaxAttempts != 3 {
		t.Errorf("fetcher attempts = %d", cfg.Fetcher.MaxAttempts)
	}
	if cfg.Page.LinkLimit != 50 {
		t.Errorf("link limit = %d", cfg.Page.LinkLimit)
	}
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9999"
webclient:
  backend: chromedp
  timeout: 45s
fetcher:
  max_attempts: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
	if cfg.WebClient.Backend != "chromedp" {
		t.Errorf("backend = %q", cfg.WebClient.Backend)
	}
	if cfg.WebClient.Timeout != 45*time.Second {
		t.Errorf("timeout = %v", cfg.WebClient.Timeout)
	}
	if cfg.Fetcher.MaxAttempts != 5 {
		t.Errorf("max attempts = %d", cfg.Fetcher.MaxAttempts)
	}
	// Untouched sections keep their defaults.
	if cfg.Page.LinkLimit != 50 {
		t.Errorf("link limit = %d, want default preserved", cfg.Page.LinkLimit)
	}
}

func TestLoadMissingNamedFileIsAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("explicitly named missing file should error")
	}
}
