package pptx

import (
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"pollkit/internal/services"
)

// Relationship type URIs for the part kinds the pipeline touches.
const (
	RelTypeSlide  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	RelTypeLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	RelTypeMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	RelTypeImage  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeTags   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/tags"
	RelTypeTheme  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
)

const relsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// Kind classifies a relationship by its type URI.
type Kind int

const (
	KindOther Kind = iota
	KindSlide
	KindLayout
	KindMaster
	KindMedia
	KindTags
)

// Relationship is one entry of a part's relationship list. ReplacesID carries
// the identifier the entry had before a rebuild, empty for fresh entries.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	ReplacesID string
}

// Kind maps the type URI onto the coarse classification the rebuilder sorts by.
func (r Relationship) Kind() Kind {
	switch r.Type {
	case RelTypeSlide:
		return KindSlide
	case RelTypeLayout:
		return KindLayout
	case RelTypeMaster:
		return KindMaster
	case RelTypeImage:
		return KindMedia
	case RelTypeTags:
		return KindTags
	default:
		return KindOther
	}
}

type relationshipXML struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationshipsXML struct {
	XMLName xml.Name          `xml:"Relationships"`
	Rels    []relationshipXML `xml:"Relationship"`
}

type relationshipsOut struct {
	XMLName xml.Name          `xml:"Relationships"`
	Xmlns   string            `xml:"xmlns,attr"`
	Rels    []relationshipXML `xml:"Relationship"`
}

// ParseRelationships decodes a relationship-list part.
func ParseRelationships(data []byte) ([]Relationship, error) {
	var doc relationshipsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, services.Wrap(services.ErrCorrupt, "package", "parse relationships", "", err)
	}
	rels := make([]Relationship, 0, len(doc.Rels))
	for _, r := range doc.Rels {
		rels = append(rels, Relationship{ID: r.ID, Type: r.Type, Target: r.Target})
	}
	return rels, nil
}

// MarshalRelationships encodes a relationship list as a package part.
func MarshalRelationships(rels []Relationship) ([]byte, error) {
	out := relationshipsOut{Xmlns: relsNamespace}
	for _, r := range rels {
		out.Rels = append(out.Rels, relationshipXML{ID: r.ID, Type: r.Type, Target: r.Target})
	}
	encoded, err := xml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal relationships: %w", err)
	}
	return append([]byte(xml.Header), encoded...), nil
}

// Relationships reads and decodes the relationship list belonging to partName.
// A missing list yields an empty slice.
func (p *Package) Relationships(partName string) ([]Relationship, error) {
	part, ok := p.Part(RelsPathFor(partName))
	if !ok {
		return nil, nil
	}
	return ParseRelationships(part.Data)
}

// SetRelationships encodes and stores the relationship list for partName.
func (p *Package) SetRelationships(partName string, rels []Relationship) error {
	data, err := MarshalRelationships(rels)
	if err != nil {
		return err
	}
	p.Set(RelsPathFor(partName), data)
	return nil
}

// RelID formats the canonical identifier for index n (1-based).
func RelID(n int) string {
	return "rId" + strconv.Itoa(n)
}

// RelIndex parses the numeric suffix of a relationship identifier, 0 when the
// identifier does not follow the canonical format.
func RelIndex(id string) int {
	trimmed := strings.TrimPrefix(id, "rId")
	if trimmed == id {
		return 0
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// NextRelID returns the first identifier not taken by rels.
func NextRelID(rels []Relationship) string {
	highest := 0
	for _, r := range rels {
		if n := RelIndex(r.ID); n > highest {
			highest = n
		}
	}
	return RelID(highest + 1)
}

// SortByIndex orders rels by their numeric identifier, non-canonical IDs last.
func SortByIndex(rels []Relationship) {
	sort.SliceStable(rels, func(i, j int) bool {
		a, b := RelIndex(rels[i].ID), RelIndex(rels[j].ID)
		if a == 0 || b == 0 {
			return b == 0 && a != 0
		}
		return a < b
	})
}
