package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pollkit/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Generation.BulletStyle != "arabic-period" {
		t.Fatalf("unexpected default bullet style %q", cfg.Generation.BulletStyle)
	}
	if cfg.Generation.CountdownSeconds != 30 {
		t.Fatalf("unexpected default countdown %d", cfg.Generation.CountdownSeconds)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[generation]
bullet_style = "Alpha-Period"
countdown_seconds = 0

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Generation.BulletStyle != "alpha-period" {
		t.Fatalf("bullet style not normalized: %q", cfg.Generation.BulletStyle)
	}
	if cfg.Generation.CountdownSeconds != 0 {
		t.Fatalf("explicit zero countdown must survive, got %d", cfg.Generation.CountdownSeconds)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("log format not normalized: %q", cfg.Logging.Format)
	}
}

func TestLoadRejectsBadBulletStyle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[generation]\nbullet_style = \"dots\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "bullet_style") {
		t.Fatalf("expected bullet_style error, got %v", err)
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected error overwriting existing config")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[generation]") {
		t.Fatal("sample config missing generation section")
	}
}
