package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JULESCTL_HOME", filepath.Join(t.TempDir(), "home"))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL() != "https://jules.googleapis.com/v1alpha" {
		t.Fatalf("unexpected base url: %q", cfg.BaseURL())
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval())
	}
	if cfg.ActivitiesPageSize() != 50 || cfg.SessionsPageSize() != 20 {
		t.Fatalf("unexpected page sizes: %d %d", cfg.ActivitiesPageSize(), cfg.SessionsPageSize())
	}
	if cfg.StorageBackend() != "file" {
		t.Fatalf("unexpected backend: %q", cfg.StorageBackend())
	}
	if cfg.UI.RestoreDraftOnSendFailure {
		t.Fatalf("draft restore should be off by default")
	}
	if !cfg.DarkMode() {
		t.Fatalf("expected dark mode default")
	}
}

func TestLoadFromTOML(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("JULESCTL_HOME", home)
	if err := os.MkdirAll(home, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	content := strings.Join([]string{
		"[api]",
		`base_url = "http://127.0.0.1:9999/v1alpha/"`,
		"timeout_seconds = 3",
		"[storage]",
		`backend = "BBOLT"`,
		"[sync]",
		"poll_interval_seconds = 2",
		"activities_page_size = 10",
		"[ui]",
		"restore_draft_on_send_failure = true",
		"dark_mode = false",
	}, "\n")
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL() != "http://127.0.0.1:9999/v1alpha" {
		t.Fatalf("unexpected base url: %q", cfg.BaseURL())
	}
	if cfg.Timeout() != 3*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Timeout())
	}
	if cfg.StorageBackend() != "bbolt" {
		t.Fatalf("unexpected backend: %q", cfg.StorageBackend())
	}
	if cfg.PollInterval() != 2*time.Second || cfg.ActivitiesPageSize() != 10 {
		t.Fatalf("unexpected sync config: %+v", cfg.Sync)
	}
	if cfg.SessionsPageSize() != 20 {
		t.Fatalf("unset values should keep defaults, got %d", cfg.SessionsPageSize())
	}
	if !cfg.UI.RestoreDraftOnSendFailure || cfg.DarkMode() {
		t.Fatalf("unexpected ui config: %+v", cfg.UI)
	}
}

func TestUnknownStorageBackendFallsBackToFile(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "etcd"
	if cfg.StorageBackend() != "file" {
		t.Fatalf("expected file fallback, got %q", cfg.StorageBackend())
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode(Default())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.BaseURL() != Default().BaseURL() {
		t.Fatalf("unexpected base url after round trip: %q", cfg.BaseURL())
	}
}
