package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("BOOKBUDDY_CONFIG", "")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "http://localhost:8000/api" {
		t.Errorf("Unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("Unexpected timeout %s", cfg.API.Timeout)
	}
	if filepath.Base(cfg.Prefs.Path) != "prefs.yaml" {
		t.Errorf("Unexpected prefs path %q", cfg.Prefs.Path)
	}
	if cfg.SlogLevel() != slog.LevelInfo {
		t.Errorf("Expected info level, got %v", cfg.SlogLevel())
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api:\n  base_url: http://books.example/api\n  timeout: 5s\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	t.Setenv("BOOKBUDDY_API_TIMEOUT", "12s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "http://books.example/api" {
		t.Errorf("Expected base url from file, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 12*time.Second {
		t.Errorf("Expected env override 12s, got %s", cfg.API.Timeout)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("Expected debug level, got %v", cfg.SlogLevel())
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing explicit config file")
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("BOOKBUDDY_API_TIMEOUT", "0s")

	if _, err := Load(""); err == nil {
		t.Error("Expected error for zero timeout")
	}
}
