package pptx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"pollkit/internal/services"
)

// Well-known part locations inside a presentation package.
const (
	ContentTypesPart = "[Content_Types].xml"
	PresentationPart = "ppt/presentation.xml"
	PresentationRels = "ppt/_rels/presentation.xml.rels"
	SlideDir         = "ppt/slides"
	LayoutDir        = "ppt/slideLayouts"
	MasterDir        = "ppt/slideMasters"
	MediaDir         = "ppt/media"
	TagDir           = "ppt/tags"
)

// Part is one named entry of the package arena.
type Part struct {
	Name string
	Data []byte
}

// Package is an in-memory working copy of a presentation archive. Parts keep
// their load order; replacing a part preserves its position so serialized
// output stays structurally diffable against the template.
type Package struct {
	parts []*Part
	index map[string]int
}

// NewPackage returns an empty arena.
func NewPackage() *Package {
	return &Package{index: make(map[string]int)}
}

// Open reads a template archive from disk into a working copy.
func Open(filePath string) (*Package, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "package", "open template", filePath, err)
	}
	return FromBytes(data)
}

// FromBytes parses an archive already held in memory.
func FromBytes(data []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, services.Wrap(services.ErrCorrupt, "package", "read archive", "not a valid package container", err)
	}

	pkg := NewPackage()
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, services.Wrap(services.ErrCorrupt, "package", "read part", file.Name, err)
		}
		content, err := io.ReadAll(rc)
		closeErr := rc.Close()
		if err != nil {
			return nil, services.Wrap(services.ErrCorrupt, "package", "read part", file.Name, err)
		}
		if closeErr != nil {
			return nil, services.Wrap(services.ErrCorrupt, "package", "close part", file.Name, closeErr)
		}
		pkg.Set(file.Name, content)
	}

	if _, ok := pkg.Part(ContentTypesPart); !ok {
		return nil, services.Wrap(services.ErrCorrupt, "package", "validate", "missing content-type registry", nil)
	}
	if _, ok := pkg.Part(PresentationPart); !ok {
		return nil, services.Wrap(services.ErrCorrupt, "package", "validate", "missing presentation document", nil)
	}
	return pkg, nil
}

// Part returns the named part if present.
func (p *Package) Part(name string) (*Part, bool) {
	i, ok := p.index[normalizeName(name)]
	if !ok {
		return nil, false
	}
	return p.parts[i], true
}

// Set stores data under name, replacing an existing part in place or
// appending a new one.
func (p *Package) Set(name string, data []byte) {
	normalized := normalizeName(name)
	if i, ok := p.index[normalized]; ok {
		p.parts[i].Data = data
		return
	}
	p.index[normalized] = len(p.parts)
	p.parts = append(p.parts, &Part{Name: normalized, Data: data})
}

// Names returns every part name in arena order.
func (p *Package) Names() []string {
	names := make([]string, len(p.parts))
	for i, part := range p.parts {
		names[i] = part.Name
	}
	return names
}

// Len reports the number of parts.
func (p *Package) Len() int {
	return len(p.parts)
}

// PartsUnder returns the names in dir, sorted for deterministic iteration.
func (p *Package) PartsUnder(dir string) []string {
	prefix := strings.TrimSuffix(normalizeName(dir), "/") + "/"
	var names []string
	for _, part := range p.parts {
		if strings.HasPrefix(part.Name, prefix) {
			names = append(names, part.Name)
		}
	}
	sort.Strings(names)
	return names
}

// RelsPathFor maps a part name to its relationship-list part.
func RelsPathFor(partName string) string {
	normalized := normalizeName(partName)
	dir, base := path.Split(normalized)
	return dir + "_rels/" + base + ".rels"
}

// WriteTo serializes the arena as a zip archive.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	counting := &countingWriter{w: w}
	zw := zip.NewWriter(counting)
	for _, part := range p.parts {
		entry, err := zw.Create(part.Name)
		if err != nil {
			return counting.n, fmt.Errorf("create archive entry %s: %w", part.Name, err)
		}
		if _, err := entry.Write(part.Data); err != nil {
			return counting.n, fmt.Errorf("write archive entry %s: %w", part.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return counting.n, fmt.Errorf("finalize archive: %w", err)
	}
	return counting.n, nil
}

// Bytes serializes the arena into a fresh buffer.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func normalizeName(name string) string {
	cleaned := strings.TrimPrefix(strings.TrimSpace(name), "/")
	return strings.ReplaceAll(cleaned, "\\", "/")
}

// ResolveTarget resolves a relationship target relative to the part that owns
// the relationship list, e.g. "../media/image1.png" from "ppt/slides".
func ResolveTarget(ownerPart, target string) string {
	if strings.HasPrefix(target, "/") {
		return normalizeName(target)
	}
	base := path.Dir(normalizeName(ownerPart))
	return path.Clean(path.Join(base, target))
}
