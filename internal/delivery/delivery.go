// Package delivery bundles a generated package with its roster document into
// one distribution archive, and pulls the populated document back out of a
// returned archive at import time.
package delivery

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"pollkit/internal/services"
)

// Fixed entry names inside the distribution archive. The import step relies
// on these paths.
const (
	PackageEntry    = "presentation.pptx"
	SessionDocEntry = "session.xml"
)

const maxEntryBytes = 256 << 20

// WriteArchive writes the distribution archive to path, creating parent
// directories as needed.
func WriteArchive(path string, packageBytes, rosterBytes []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "delivery", "write archive", "create output directory", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []struct {
		name string
		data []byte
	}{
		{PackageEntry, packageBytes},
		{SessionDocEntry, rosterBytes},
	}
	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			return services.Wrap(services.ErrValidation, "delivery", "write archive", fmt.Sprintf("create entry %s", entry.name), err)
		}
		if _, err := w.Write(entry.data); err != nil {
			return services.Wrap(services.ErrValidation, "delivery", "write archive", fmt.Sprintf("write entry %s", entry.name), err)
		}
	}
	if err := zw.Close(); err != nil {
		return services.Wrap(services.ErrValidation, "delivery", "write archive", "finalize archive", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(services.ErrValidation, "delivery", "write archive", "write archive file", err)
	}
	return nil
}

// ReadSessionDoc extracts the response-session document from a distribution
// archive. A missing entry is treated as a corrupt archive.
func ReadSessionDoc(path string) ([]byte, error) {
	return readEntry(path, SessionDocEntry)
}

// ReadPackage extracts the presentation package from a distribution archive.
func ReadPackage(path string) ([]byte, error) {
	return readEntry(path, PackageEntry)
}

func readEntry(path, name string) ([]byte, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, services.Wrap(services.ErrCorrupt, "delivery", "open archive", path, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, services.Wrap(services.ErrCorrupt, "delivery", "read archive", name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxEntryBytes))
		rc.Close()
		if err != nil {
			return nil, services.Wrap(services.ErrCorrupt, "delivery", "read archive", name, err)
		}
		return data, nil
	}
	return nil, services.Wrap(services.ErrCorrupt, "delivery", "read archive",
		fmt.Sprintf("archive has no %s entry", name), nil)
}
