package deck

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"pollkit/internal/pptx"
	"pollkit/internal/services"
)

// Layout names the synthesizer looks for before generating fresh parts.
const (
	QuestionLayoutName = "Polling Question"
	TitleLayoutName    = "Polling Title"
	RosterLayoutName   = "Polling Roster"
)

// Layouts names the layout parts question and intro slides link to.
type Layouts struct {
	QuestionPart string
	TitlePart    string
	RosterPart   string
}

type layoutParse struct {
	XMLName xml.Name `xml:"sldLayout"`
	CSld    struct {
		Name string `xml:"name,attr"`
	} `xml:"cSld"`
}

type layoutIDParse struct {
	ID uint64
}

// UnmarshalXML reads the numeric identifier by hand. The element carries two
// attributes whose local name is "id"; only the un-namespaced one is numeric,
// and struct-tag matching cannot separate them.
func (l *layoutIDParse) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		if a.Name.Space != "" || a.Name.Local != "id" {
			continue
		}
		n, err := strconv.ParseUint(a.Value, 10, 64)
		if err != nil {
			return fmt.Errorf("layout identifier %q: %w", a.Value, err)
		}
		l.ID = n
	}
	return d.Skip()
}

type masterParse struct {
	XMLName xml.Name        `xml:"sldMaster"`
	Layouts []layoutIDParse `xml:"sldLayoutIdLst>sldLayoutId"`
}

// EnsureLayouts locates or generates the polling layouts. Freshly generated
// parts are linked to the slide master's relationship list and layout-ID
// list so the package stays internally consistent.
func EnsureLayouts(pkg *pptx.Package, needTitle, needRoster bool) (Layouts, error) {
	existing, err := layoutNames(pkg)
	if err != nil {
		return Layouts{}, err
	}

	layouts := Layouts{}
	layouts.QuestionPart, err = ensureLayout(pkg, existing, QuestionLayoutName, "cust")
	if err != nil {
		return Layouts{}, err
	}
	if needTitle {
		layouts.TitlePart, err = ensureLayout(pkg, existing, TitleLayoutName, "title")
		if err != nil {
			return Layouts{}, err
		}
	}
	if needRoster {
		layouts.RosterPart, err = ensureLayout(pkg, existing, RosterLayoutName, "cust")
		if err != nil {
			return Layouts{}, err
		}
	}
	return layouts, nil
}

func layoutNames(pkg *pptx.Package) (map[string]string, error) {
	names := make(map[string]string)
	for _, part := range pkg.PartsUnder(pptx.LayoutDir) {
		if strings.Contains(part, "/_rels/") {
			continue
		}
		data, _ := pkg.Part(part)
		var doc layoutParse
		if err := xml.Unmarshal(data.Data, &doc); err != nil {
			return nil, services.Wrap(services.ErrCorrupt, "layouts", "parse", part, err)
		}
		if doc.CSld.Name != "" {
			names[doc.CSld.Name] = part
		}
	}
	return names, nil
}

func ensureLayout(pkg *pptx.Package, existing map[string]string, name, layoutType string) (string, error) {
	if part, ok := existing[name]; ok {
		return part, nil
	}

	partName := nextLayoutPartName(pkg)
	data, err := marshalPart(newLayoutOut(name, layoutType))
	if err != nil {
		return "", err
	}
	pkg.Set(partName, data)

	masterPart, err := firstMasterPart(pkg)
	if err != nil {
		return "", err
	}

	relTarget := "../slideMasters/" + strings.TrimPrefix(masterPart, pptx.MasterDir+"/")
	if err := pkg.SetRelationships(partName, []pptx.Relationship{
		{ID: pptx.RelID(1), Type: pptx.RelTypeMaster, Target: relTarget},
	}); err != nil {
		return "", err
	}

	if err := linkLayoutToMaster(pkg, masterPart, partName); err != nil {
		return "", err
	}

	existing[name] = partName
	return partName, nil
}

func nextLayoutPartName(pkg *pptx.Package) string {
	highest := 0
	for _, part := range pkg.PartsUnder(pptx.LayoutDir) {
		if strings.Contains(part, "/_rels/") {
			continue
		}
		base := strings.TrimSuffix(part, ".xml")
		i := strings.LastIndex(base, "/slideLayout")
		if i < 0 {
			continue
		}
		if n, err := strconv.Atoi(base[i+len("/slideLayout"):]); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s/slideLayout%d.xml", pptx.LayoutDir, highest+1)
}

func firstMasterPart(pkg *pptx.Package) (string, error) {
	for _, part := range pkg.PartsUnder(pptx.MasterDir) {
		if !strings.Contains(part, "/_rels/") {
			return part, nil
		}
	}
	return "", services.Wrap(services.ErrCorrupt, "layouts", "locate master", "package has no slide master part", nil)
}

// linkLayoutToMaster appends the layout to the master's relationship list and
// layout-ID list. The master part is template-owned XML the pipeline must not
// reflow, so the ID-list entry is spliced at a structural anchor and the
// result re-parsed to verify the edit landed.
func linkLayoutToMaster(pkg *pptx.Package, masterPart, layoutPart string) error {
	rels, err := pkg.Relationships(masterPart)
	if err != nil {
		return err
	}
	relID := pptx.NextRelID(rels)
	rels = append(rels, pptx.Relationship{
		ID:     relID,
		Type:   pptx.RelTypeLayout,
		Target: "../slideLayouts/" + strings.TrimPrefix(layoutPart, pptx.LayoutDir+"/"),
	})
	if err := pkg.SetRelationships(masterPart, rels); err != nil {
		return err
	}

	part, _ := pkg.Part(masterPart)
	var before masterParse
	if err := xml.Unmarshal(part.Data, &before); err != nil {
		return services.Wrap(services.ErrCorrupt, "layouts", "parse master", masterPart, err)
	}

	var nextID uint64 = 2147483649
	for _, l := range before.Layouts {
		if l.ID >= nextID {
			nextID = l.ID + 1
		}
	}

	entry := fmt.Sprintf(`<p:sldLayoutId id="%d" r:id="%s"/>`, nextID, relID)
	anchor := []byte("</p:sldLayoutIdLst>")
	idx := bytes.Index(part.Data, anchor)
	if idx < 0 {
		return services.Wrap(services.ErrCorrupt, "layouts", "link master", "master has no layout-ID list to extend", nil)
	}
	patched := make([]byte, 0, len(part.Data)+len(entry))
	patched = append(patched, part.Data[:idx]...)
	patched = append(patched, entry...)
	patched = append(patched, part.Data[idx:]...)

	var after masterParse
	if err := xml.Unmarshal(patched, &after); err != nil {
		return services.Wrap(services.ErrCorrupt, "layouts", "link master", "master unreadable after layout insertion", err)
	}
	if len(after.Layouts) != len(before.Layouts)+1 {
		return services.Wrap(services.ErrCorrupt, "layouts", "link master", "layout insertion did not register", nil)
	}

	pkg.Set(masterPart, patched)
	return nil
}
