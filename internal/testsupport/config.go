// Package testsupport provides shared fixtures for package-level tests:
// temp-directory configs, an open database, and a minimal presentation
// template.
package testsupport

import (
	"path/filepath"
	"testing"

	"pollkit/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.OutDir = filepath.Join(base, "out")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCountdown overrides the default countdown seconds.
func WithCountdown(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Generation.CountdownSeconds = seconds
	}
}

// WithoutIntroSlides disables both intro slides.
func WithoutIntroSlides() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Generation.IntroTitleSlide = false
		cfg.Generation.IntroRosterSlide = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
