package config

const (
	defaultDataDir             = "~/.local/share/pollkit"
	defaultLogDir              = "~/.local/share/pollkit/logs"
	defaultOutDir              = "~/pollkit/out"
	defaultBulletStyle         = "arabic-period"
	defaultCountdownSeconds    = 30
	defaultPollStart           = "on-show"
	defaultPointsPerQuestion   = 10
	defaultImageTimeoutSeconds = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			OutDir:  defaultOutDir,
		},
		Generation: Generation{
			BulletStyle:         defaultBulletStyle,
			CountdownSeconds:    defaultCountdownSeconds,
			PollStart:           defaultPollStart,
			IntroTitleSlide:     true,
			IntroRosterSlide:    false,
			PointsPerQuestion:   defaultPointsPerQuestion,
			ImageTimeoutSeconds: defaultImageTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
