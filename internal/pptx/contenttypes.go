package pptx

import (
	"encoding/xml"
	"fmt"
	"strings"

	"pollkit/internal/services"
)

// Content types for the part kinds the pipeline introduces.
const (
	CTSlide        = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	CTLayout       = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	CTMaster       = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	CTTags         = "application/vnd.openxmlformats-officedocument.presentationml.tags+xml"
	CTPresentation = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	CTRels         = "application/vnd.openxmlformats-package.relationships+xml"
	CTXML          = "application/xml"
)

const contentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

// ImageContentType maps a file extension (without dot) to its media content
// type. Unknown extensions fall back to the generic octet stream.
func ImageContentType(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// TypeDefault registers a content type per file extension.
type TypeDefault struct {
	Extension   string
	ContentType string
}

// TypeOverride registers a content type for one specific part.
type TypeOverride struct {
	PartName    string
	ContentType string
}

// ContentTypes is the typed view of the package's content-type registry.
type ContentTypes struct {
	Defaults  []TypeDefault
	Overrides []TypeOverride
}

type ctDefaultXML struct {
	Extension   string `xml:"Extension,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type ctOverrideXML struct {
	PartName    string `xml:"PartName,attr"`
	ContentType string `xml:"ContentType,attr"`
}

type contentTypesParse struct {
	XMLName   xml.Name        `xml:"Types"`
	Defaults  []ctDefaultXML  `xml:"Default"`
	Overrides []ctOverrideXML `xml:"Override"`
}

type contentTypesOut struct {
	XMLName   xml.Name        `xml:"Types"`
	Xmlns     string          `xml:"xmlns,attr"`
	Defaults  []ctDefaultXML  `xml:"Default"`
	Overrides []ctOverrideXML `xml:"Override"`
}

// ParseContentTypes decodes the registry part.
func ParseContentTypes(data []byte) (*ContentTypes, error) {
	var doc contentTypesParse
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrCorrupt, "package", "parse content types", "", err)
	}
	ct := &ContentTypes{}
	for _, d := range doc.Defaults {
		ct.Defaults = append(ct.Defaults, TypeDefault{Extension: d.Extension, ContentType: d.ContentType})
	}
	for _, o := range doc.Overrides {
		ct.Overrides = append(ct.Overrides, TypeOverride{PartName: o.PartName, ContentType: o.ContentType})
	}
	return ct, nil
}

// Marshal encodes the registry as a package part.
func (ct *ContentTypes) Marshal() ([]byte, error) {
	out := contentTypesOut{Xmlns: contentTypesNamespace}
	for _, d := range ct.Defaults {
		out.Defaults = append(out.Defaults, ctDefaultXML{Extension: d.Extension, ContentType: d.ContentType})
	}
	for _, o := range ct.Overrides {
		out.Overrides = append(out.Overrides, ctOverrideXML{PartName: o.PartName, ContentType: o.ContentType})
	}
	encoded, err := xml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal content types: %w", err)
	}
	return append([]byte(xml.Header), encoded...), nil
}

// EnsureDefault registers a per-extension content type, replacing any
// existing entry for the extension rather than appending a duplicate.
func (ct *ContentTypes) EnsureDefault(extension, contentType string) {
	normalized := strings.ToLower(strings.TrimPrefix(extension, "."))
	for i, d := range ct.Defaults {
		if strings.EqualFold(d.Extension, normalized) {
			ct.Defaults[i].ContentType = contentType
			return
		}
	}
	ct.Defaults = append(ct.Defaults, TypeDefault{Extension: normalized, ContentType: contentType})
}

// EnsureOverride registers a per-part content type, replacing any existing
// entry for the part rather than appending a duplicate.
func (ct *ContentTypes) EnsureOverride(partName, contentType string) {
	normalized := "/" + strings.TrimPrefix(partName, "/")
	for i, o := range ct.Overrides {
		if o.PartName == normalized {
			ct.Overrides[i].ContentType = contentType
			return
		}
	}
	ct.Overrides = append(ct.Overrides, TypeOverride{PartName: normalized, ContentType: contentType})
}

// ContentTypes reads and decodes the package's registry part.
func (p *Package) ContentTypes() (*ContentTypes, error) {
	part, ok := p.Part(ContentTypesPart)
	if !ok {
		return nil, services.Wrap(services.ErrCorrupt, "package", "content types", "registry part missing", nil)
	}
	return ParseContentTypes(part.Data)
}

// SetContentTypes encodes and stores the registry part.
func (p *Package) SetContentTypes(ct *ContentTypes) error {
	data, err := ct.Marshal()
	if err != nil {
		return err
	}
	p.Set(ContentTypesPart, data)
	return nil
}
