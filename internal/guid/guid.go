// Package guid mints and validates the slide identifiers that join generated
// packages to imported response logs.
package guid

import (
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh slide identifier: 36-character hyphenated hex with the
// version 4 and RFC 4122 variant nibbles, uppercased the way the polling
// dialect writes them.
func New() string {
	return strings.ToUpper(uuid.NewString())
}

// Normalize maps an identifier to its canonical uppercase form, trimming the
// brace wrapping some tools emit. The empty string stays empty.
func Normalize(value string) string {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(trimmed, "{")
	trimmed = strings.TrimSuffix(trimmed, "}")
	return strings.ToUpper(trimmed)
}

// Valid reports whether value parses as a hyphenated identifier.
func Valid(value string) bool {
	normalized := Normalize(value)
	if len(normalized) != 36 {
		return false
	}
	_, err := uuid.Parse(normalized)
	return err == nil
}
