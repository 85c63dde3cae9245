package pptx_test

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"pollkit/internal/pptx"
)

func buildArchive(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		entry, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := entry.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

const minimalContentTypes = `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/></Types>`

const minimalPresentation = `<?xml version="1.0"?><p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst><p:sldId id="256" r:id="rId2"/></p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/></p:presentation>`

func TestFromBytesRequiresManifests(t *testing.T) {
	data := buildArchive(t, map[string]string{"ppt/presentation.xml": minimalPresentation})
	if _, err := pptx.FromBytes(data); err == nil {
		t.Fatal("expected error for missing content-type registry")
	}

	if _, err := pptx.FromBytes([]byte("not a zip")); err == nil {
		t.Fatal("expected error for malformed archive")
	}
}

func TestPackageRoundTripPreservesPartOrder(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"[Content_Types].xml":  minimalContentTypes,
		"ppt/presentation.xml": minimalPresentation,
		"ppt/media/image1.png": "binary",
	})
	pkg, err := pptx.FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}

	pkg.Set("ppt/presentation.xml", []byte("replaced"))
	pkg.Set("ppt/slides/slide1.xml", []byte("new slide"))

	serialized, err := pkg.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	reread, err := pptx.FromBytes(append(serialized[:0:0], serialized...))
	if err == nil {
		part, ok := reread.Part("ppt/presentation.xml")
		if !ok || string(part.Data) != "replaced" {
			t.Fatalf("replacement lost after round trip")
		}
	}

	zr, err := zip.NewReader(bytes.NewReader(serialized), int64(len(serialized)))
	if err != nil {
		t.Fatalf("reopen archive: %v", err)
	}
	if len(zr.File) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(zr.File))
	}
}

func TestPartsUnder(t *testing.T) {
	pkg := pptx.NewPackage()
	pkg.Set("ppt/tags/tag2.xml", []byte("b"))
	pkg.Set("ppt/tags/tag1.xml", []byte("a"))
	pkg.Set("ppt/slides/slide1.xml", []byte("s"))

	got := pkg.PartsUnder("ppt/tags")
	want := []string{"ppt/tags/tag1.xml", "ppt/tags/tag2.xml"}
	if len(got) != len(want) {
		t.Fatalf("unexpected names %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected names %v", got)
		}
	}
}

func TestRelsPathFor(t *testing.T) {
	cases := map[string]string{
		"ppt/presentation.xml":   "ppt/_rels/presentation.xml.rels",
		"ppt/slides/slide3.xml":  "ppt/slides/_rels/slide3.xml.rels",
		"/ppt/slides/slide3.xml": "ppt/slides/_rels/slide3.xml.rels",
	}
	for input, want := range cases {
		if got := pptx.RelsPathFor(input); got != want {
			t.Fatalf("RelsPathFor(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestResolveTarget(t *testing.T) {
	if got := pptx.ResolveTarget("ppt/slides/slide1.xml", "../media/image1.png"); got != "ppt/media/image1.png" {
		t.Fatalf("unexpected resolution %q", got)
	}
	if got := pptx.ResolveTarget("ppt/presentation.xml", "slides/slide1.xml"); got != "ppt/slides/slide1.xml" {
		t.Fatalf("unexpected resolution %q", got)
	}
	if got := pptx.ResolveTarget("ppt/slides/slide1.xml", "/ppt/media/a.png"); got != "ppt/media/a.png" {
		t.Fatalf("unexpected resolution %q", got)
	}
}

func TestContentTypesReplaceNotAppend(t *testing.T) {
	ct, err := pptx.ParseContentTypes([]byte(minimalContentTypes))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	before := len(ct.Defaults)
	ct.EnsureDefault("png", "image/png")
	ct.EnsureDefault("PNG", "image/png")
	if len(ct.Defaults) != before+1 {
		t.Fatalf("expected single png default, got %d entries", len(ct.Defaults))
	}

	ct.EnsureOverride("ppt/slides/slide1.xml", pptx.CTSlide)
	ct.EnsureOverride("/ppt/slides/slide1.xml", pptx.CTSlide)
	if len(ct.Overrides) != 1 {
		t.Fatalf("expected single override, got %d", len(ct.Overrides))
	}
	if ct.Overrides[0].PartName != "/ppt/slides/slide1.xml" {
		t.Fatalf("override part name not normalized: %q", ct.Overrides[0].PartName)
	}

	data, err := ct.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `Extension="png"`) {
		t.Fatalf("marshaled registry missing png default: %s", data)
	}

	reparsed, err := pptx.ParseContentTypes(data)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if len(reparsed.Overrides) != 1 || len(reparsed.Defaults) != before+1 {
		t.Fatal("round trip changed registry shape")
	}
}

func TestImageContentType(t *testing.T) {
	if pptx.ImageContentType(".JPEG") != "image/jpeg" {
		t.Fatal("jpeg extension mapping broken")
	}
	if pptx.ImageContentType("webp") != "image/webp" {
		t.Fatal("webp extension mapping broken")
	}
}
