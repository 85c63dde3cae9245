package delivery

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pollkit/internal/services"
)

func TestArchiveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bundle.zip")
	if err := WriteArchive(path, []byte("pkg-bytes"), []byte("<ResponseSession/>")); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	doc, err := ReadSessionDoc(path)
	if err != nil {
		t.Fatalf("ReadSessionDoc: %v", err)
	}
	if string(doc) != "<ResponseSession/>" {
		t.Fatalf("unexpected document %q", doc)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names[PackageEntry] || !names[SessionDocEntry] {
		t.Fatalf("archive entries %v", names)
	}
}

func TestReadSessionDocMissingEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("unrelated.txt")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write archive: %v", err)
	}

	if _, err := ReadSessionDoc(path); !errors.Is(err, services.ErrCorrupt) {
		t.Fatalf("expected corrupt archive error, got %v", err)
	}
}

func TestReadSessionDocUnreadableArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bundle.zip")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := ReadSessionDoc(path); !errors.Is(err, services.ErrCorrupt) {
		t.Fatalf("expected corrupt archive error, got %v", err)
	}
}
