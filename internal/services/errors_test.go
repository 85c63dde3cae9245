package services_test

import (
	"errors"
	"testing"

	"pollkit/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrCorrupt, "import", "extract", "bad results file", base)
	if !errors.Is(err, services.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause preserved, got %v", err)
	}
	want := "corrupt input: import: extract: bad results file: boom"
	if err.Error() != want {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation fallback, got %v", err)
	}
	if err.Error() != "validation error: pipeline failure" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	fatal := []error{services.ErrValidation, services.ErrCorrupt, services.ErrNotFound, services.ErrConflict}
	for _, marker := range fatal {
		if !services.IsFatal(services.Wrap(marker, "stage", "op", "", nil)) {
			t.Fatalf("expected %v to be fatal", marker)
		}
	}
	if services.IsFatal(services.Wrap(services.ErrFetch, "images", "download", "", nil)) {
		t.Fatal("fetch errors are recoverable per item")
	}
	if services.IsFatal(services.Wrap(services.ErrResolutionPending, "import", "finalize", "", nil)) {
		t.Fatal("pending resolutions gate the import, they do not abort it")
	}
}
