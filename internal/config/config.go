package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	OutDir  string `toml:"out_dir"`
}

// Generation contains defaults applied while synthesizing a polling package.
type Generation struct {
	// BulletStyle selects the option numbering scheme: arabic-period,
	// arabic-paren, alpha-period or roman-period.
	BulletStyle string `toml:"bullet_style"`
	// CountdownSeconds is the per-question countdown used when a question
	// carries no duration of its own. Zero disables the countdown shape.
	CountdownSeconds int `toml:"countdown_seconds"`
	// PollStart controls when the player opens a question for responses.
	PollStart string `toml:"poll_start"`
	// IntroTitleSlide inserts a session title slide before the questions.
	IntroTitleSlide bool `toml:"intro_title_slide"`
	// IntroRosterSlide inserts a participant roster slide before the questions.
	IntroRosterSlide bool `toml:"intro_roster_slide"`
	// PointsPerQuestion is the weight written for the correct option.
	PointsPerQuestion int `toml:"points_per_question"`
	// ImageTimeoutSeconds bounds each question image download.
	ImageTimeoutSeconds int `toml:"image_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for pollkit.
//
// Configuration sections by subsystem:
//   - Paths: data, log and output directories
//   - Generation: package synthesis defaults (numbering, countdown, poll start)
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Generation Generation `toml:"generation"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pollkit/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file existed at the resolved location.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.OutDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the session database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "pollkit.db")
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

func resolveConfigPath(path string) (string, bool, error) {
	candidate := strings.TrimSpace(path)
	if candidate == "" {
		def, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		candidate = def
	} else {
		expanded, err := expandPath(candidate)
		if err != nil {
			return "", false, err
		}
		candidate = expanded
	}

	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return candidate, true, nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", trimmed, err)
	}
	return abs, nil
}
