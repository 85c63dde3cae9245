package pptx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"pollkit/internal/services"
)

const relAttrNS = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

const (
	nsDrawing      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPresentation = "http://schemas.openxmlformats.org/presentationml/2006/main"

	// firstSlideNumericID is the lowest value the format allows for entries
	// of the slide-order list.
	firstSlideNumericID = 256

	defaultMasterNumericID = 2147483648
)

// PageSize is the slide surface declaration, EMU units. Zero values mean the
// template declared none.
type PageSize struct {
	Width  int64
	Height int64
}

// Presentation is the typed view of the document part: the master references,
// the slide-order list, and the page size. Template-owned children the
// assembler does not rewrite are retained verbatim, in document order, so a
// rebuild keeps them.
type Presentation struct {
	MasterNumericID uint64
	MasterRelID     string
	SlideRelIDs     []string
	Size            PageSize
	NotesSize       PageSize

	masters  []masterEntry
	rootTag  []byte
	rootName string
	children []docChild
}

type masterEntry struct {
	ID    uint64
	RelID string
}

type childKind int

const (
	childOther childKind = iota
	childMasterList
	childSlideList
)

type docChild struct {
	kind childKind
	raw  []byte
}

// idAttrs reads the numeric identifier and the relationship reference from an
// element's attribute list. Both attributes share the local name "id" and
// differ only by namespace, so struct-tag matching cannot separate them.
func idAttrs(attrs []xml.Attr) (uint64, string, error) {
	var id uint64
	var relID string
	for _, a := range attrs {
		if a.Name.Local != "id" {
			continue
		}
		switch a.Name.Space {
		case "":
			n, err := strconv.ParseUint(a.Value, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("numeric identifier %q: %w", a.Value, err)
			}
			id = n
		case relAttrNS:
			relID = a.Value
		}
	}
	return id, relID, nil
}

func sizeAttrs(attrs []xml.Attr) (PageSize, error) {
	var s PageSize
	for _, a := range attrs {
		if a.Name.Space != "" {
			continue
		}
		switch a.Name.Local {
		case "cx", "cy":
			n, err := strconv.ParseInt(a.Value, 10, 64)
			if err != nil {
				return s, fmt.Errorf("page dimension %q: %w", a.Value, err)
			}
			if a.Name.Local == "cx" {
				s.Width = n
			} else {
				s.Height = n
			}
		}
	}
	return s, nil
}

// tagName extracts the prefixed element name from a raw start tag.
func tagName(tag []byte) string {
	i := 1
	for i < len(tag) {
		switch tag[i] {
		case ' ', '\t', '\r', '\n', '>', '/':
			return string(tag[1:i])
		}
		i++
	}
	return string(tag[1:])
}

// ParsePresentation decodes the document part into its typed view. The parse
// tracks byte offsets so document children outside the rewritten lists can be
// sliced out of the input and carried through a rebuild untouched.
func ParsePresentation(data []byte) (*Presentation, error) {
	corrupt := func(message string, err error) error {
		return services.Wrap(services.ErrCorrupt, "package", "parse presentation", message, err)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	pres := &Presentation{}
	var offset int64
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, corrupt("", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch depth {
			case 0:
				pres.rootTag = data[offset:dec.InputOffset()]
				pres.rootName = tagName(pres.rootTag)
				depth = 1
			case 1:
				start := offset
				kind := childOther
				switch t.Name.Local {
				case "sldMasterIdLst":
					kind = childMasterList
				case "sldIdLst":
					kind = childSlideList
				case "sldSz":
					if pres.Size, err = sizeAttrs(t.Attr); err != nil {
						return nil, corrupt("", err)
					}
				case "notesSz":
					if pres.NotesSize, err = sizeAttrs(t.Attr); err != nil {
						return nil, corrupt("", err)
					}
				}
				if err := pres.consumeChild(dec, kind); err != nil {
					return nil, corrupt("", err)
				}
				pres.children = append(pres.children, docChild{kind: kind, raw: data[start:dec.InputOffset()]})
			}
		case xml.EndElement:
			if depth == 1 {
				depth = 0
			}
		}
		offset = dec.InputOffset()
	}

	if len(pres.masters) == 0 {
		return nil, corrupt("document declares no slide master", nil)
	}
	pres.MasterNumericID = pres.masters[0].ID
	pres.MasterRelID = pres.masters[0].RelID
	return pres, nil
}

// consumeChild reads to the end of a depth-one child element, collecting
// master and slide-order entries along the way.
func (p *Presentation) consumeChild(dec *xml.Decoder, kind childKind) error {
	nest := 1
	for nest > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			nest++
			switch {
			case kind == childMasterList && t.Name.Local == "sldMasterId":
				id, relID, err := idAttrs(t.Attr)
				if err != nil {
					return err
				}
				p.masters = append(p.masters, masterEntry{ID: id, RelID: relID})
			case kind == childSlideList && t.Name.Local == "sldId":
				_, relID, err := idAttrs(t.Attr)
				if err != nil {
					return err
				}
				if relID == "" {
					return errors.New("slide-order entry without relationship identifier")
				}
				p.SlideRelIDs = append(p.SlideRelIDs, relID)
			}
		case xml.EndElement:
			nest--
		}
	}
	return nil
}

// BuildPresentation serializes the document part from the rebuilt plan. Slide
// order is intro slides, pre-existing slides, question slides. Every other
// document child is carried over in its original position with relationship
// references rewritten per the plan's remapping table.
func BuildPresentation(pres *Presentation, plan *RelPlan) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	rootName := pres.rootName
	if len(pres.rootTag) > 0 {
		buf.Write(pres.rootTag)
	} else {
		rootName = "p:presentation"
		fmt.Fprintf(&buf, `<p:presentation xmlns:a=%q xmlns:r=%q xmlns:p=%q>`, nsDrawing, relAttrNS, nsPresentation)
	}

	masters := pres.masters
	if len(masters) == 0 {
		masters = []masterEntry{{ID: pres.MasterNumericID}}
	}

	hasSlideList := false
	for _, child := range pres.children {
		if child.kind == childSlideList {
			hasSlideList = true
		}
	}

	for _, child := range pres.children {
		switch child.kind {
		case childMasterList:
			writeMasterList(&buf, masters, plan)
			if !hasSlideList {
				writeSlideList(&buf, plan)
			}
		case childSlideList:
			writeSlideList(&buf, plan)
		default:
			buf.Write(rewriteRelRefs(child.raw, plan.Remap))
		}
	}
	if len(pres.children) == 0 {
		writeMasterList(&buf, masters, plan)
		writeSlideList(&buf, plan)
		if pres.Size.Width > 0 && pres.Size.Height > 0 {
			fmt.Fprintf(&buf, `<p:sldSz cx="%d" cy="%d"/>`, pres.Size.Width, pres.Size.Height)
		}
		if pres.NotesSize.Width > 0 && pres.NotesSize.Height > 0 {
			fmt.Fprintf(&buf, `<p:notesSz cx="%d" cy="%d"/>`, pres.NotesSize.Width, pres.NotesSize.Height)
		}
	}

	buf.WriteString("</" + rootName + ">")
	return buf.Bytes(), nil
}

func writeMasterList(buf *bytes.Buffer, masters []masterEntry, plan *RelPlan) {
	buf.WriteString("<p:sldMasterIdLst>")
	for i, m := range masters {
		id := m.ID
		relID := m.RelID
		if i == 0 {
			if id == 0 {
				id = defaultMasterNumericID
			}
			relID = plan.MasterID
		} else if mapped, ok := plan.Remap[relID]; ok {
			relID = mapped
		}
		fmt.Fprintf(buf, `<p:sldMasterId id="%d" r:id="%s"/>`, id, relID)
	}
	buf.WriteString("</p:sldMasterIdLst>")
}

func writeSlideList(buf *bytes.Buffer, plan *RelPlan) {
	ordered := make([]string, 0, len(plan.IntroIDs)+len(plan.ExistingSlideIDs)+len(plan.QuestionIDs))
	ordered = append(ordered, plan.IntroIDs...)
	ordered = append(ordered, plan.ExistingSlideIDs...)
	ordered = append(ordered, plan.QuestionIDs...)
	if len(ordered) == 0 {
		return
	}
	buf.WriteString("<p:sldIdLst>")
	for i, relID := range ordered {
		fmt.Fprintf(buf, `<p:sldId id="%d" r:id="%s"/>`, firstSlideNumericID+i, relID)
	}
	buf.WriteString("</p:sldIdLst>")
}

// rewriteRelRefs applies the relationship renumbering to references embedded
// in carried-over children. A single left-to-right pass keeps swapped
// identifiers from cascading into each other.
func rewriteRelRefs(raw []byte, remap map[string]string) []byte {
	marker := []byte(`r:id="`)
	if len(remap) == 0 || !bytes.Contains(raw, marker) {
		return raw
	}
	var out bytes.Buffer
	for {
		i := bytes.Index(raw, marker)
		if i < 0 {
			out.Write(raw)
			break
		}
		i += len(marker)
		out.Write(raw[:i])
		raw = raw[i:]
		j := bytes.IndexByte(raw, '"')
		if j < 0 {
			out.Write(raw)
			break
		}
		old := string(raw[:j])
		if mapped, ok := remap[old]; ok {
			out.WriteString(mapped)
		} else {
			out.WriteString(old)
		}
		raw = raw[j:]
	}
	return out.Bytes()
}
