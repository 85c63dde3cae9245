package config

import "strings"

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.DataDir, &c.Paths.LogDir, &c.Paths.OutDir} {
		if strings.TrimSpace(*field) == "" {
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Generation.BulletStyle = strings.ToLower(strings.TrimSpace(c.Generation.BulletStyle))
	if c.Generation.BulletStyle == "" {
		c.Generation.BulletStyle = defaultBulletStyle
	}
	c.Generation.PollStart = strings.ToLower(strings.TrimSpace(c.Generation.PollStart))
	if c.Generation.PollStart == "" {
		c.Generation.PollStart = defaultPollStart
	}
	if c.Generation.ImageTimeoutSeconds == 0 {
		c.Generation.ImageTimeoutSeconds = defaultImageTimeoutSeconds
	}
	if c.Generation.PointsPerQuestion == 0 {
		c.Generation.PointsPerQuestion = defaultPointsPerQuestion
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
