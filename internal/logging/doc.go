// Package logging builds slog loggers with console and JSON handlers plus the
// typed attribute helpers the rest of the codebase logs with.
package logging
