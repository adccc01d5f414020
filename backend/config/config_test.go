package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Addr != want.Addr || cfg.AppID != want.AppID || cfg.Log.Level != want.Log.Level {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawlots.yaml")
	content := []byte(`
addr: ":8080"
storage:
  data_dir: /srv/draw
  fallback_dir: /var/lib/draw
log:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DRAWLOTS_DATA_DIR", "/override")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected addr from file, got %q", cfg.Addr)
	}
	if cfg.Storage.DataDir != "/override" {
		t.Fatalf("expected env to override data_dir, got %q", cfg.Storage.DataDir)
	}
	if cfg.Storage.FallbackDir != "/var/lib/draw" {
		t.Fatalf("expected fallback_dir from file, got %q", cfg.Storage.FallbackDir)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected log level from file, got %q", cfg.Log.Level)
	}
	if cfg.AppID != "drawlots" {
		t.Fatalf("expected default app id to survive partial file, got %q", cfg.AppID)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawlots.yaml")
	if err := os.WriteFile(path, []byte("addr: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate_RejectsAppIDWithSeparator(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.AppID = "../evil"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}
