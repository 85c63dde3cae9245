package config

import (
	"errors"
	"fmt"
	"strings"
)

// BulletStyles enumerates the supported option numbering schemes.
var BulletStyles = []string{"arabic-period", "arabic-paren", "alpha-period", "roman-period"}

// PollStartModes enumerates when the player opens a question for responses.
var PollStartModes = []string{"on-show", "on-click", "manual"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.OutDir == "" {
		return errors.New("paths.out_dir must be set")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if !containsFold(BulletStyles, c.Generation.BulletStyle) {
		return fmt.Errorf("generation.bullet_style must be one of %s", strings.Join(BulletStyles, ", "))
	}
	if !containsFold(PollStartModes, c.Generation.PollStart) {
		return fmt.Errorf("generation.poll_start must be one of %s", strings.Join(PollStartModes, ", "))
	}
	if c.Generation.CountdownSeconds < 0 {
		return errors.New("generation.countdown_seconds must not be negative")
	}
	if c.Generation.PointsPerQuestion <= 0 {
		return errors.New("generation.points_per_question must be positive")
	}
	if c.Generation.ImageTimeoutSeconds <= 0 {
		return errors.New("generation.image_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func containsFold(values []string, candidate string) bool {
	for _, v := range values {
		if strings.EqualFold(v, strings.TrimSpace(candidate)) {
			return true
		}
	}
	return false
}
