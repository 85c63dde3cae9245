package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad caller input: missing columns, empty rosters,
	// malformed resolutions. The whole operation aborts.
	ErrValidation = errors.New("validation error")
	// ErrCorrupt marks a package or results file that is internally
	// inconsistent: tag numbering gaps, response identifiers with no mapping
	// entry, unreadable archives.
	ErrCorrupt = errors.New("corrupt input")
	// ErrFetch marks a failure talking to an external resource, such as a
	// question image download.
	ErrFetch = errors.New("fetch error")
	// ErrNotFound marks a missing entity (session, mapping set, template).
	ErrNotFound = errors.New("not found")
	// ErrResolutionPending marks an import blocked on operator decisions.
	ErrResolutionPending = errors.New("resolution pending")
	// ErrConflict marks an operation racing state owned by another in-flight
	// call, e.g. a template already locked by a running generation.
	ErrConflict = errors.New("conflict")
)

// Wrap builds an error message that includes pipeline context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether the error should abort the whole generate or import
// batch rather than be skipped and counted.
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrCorrupt), errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
