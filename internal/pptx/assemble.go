package pptx

import (
	"path"
	"strings"
)

// RefreshContentTypes rebuilds the manifest entries for every part currently
// in the package: extension defaults for relationship, XML, and media parts,
// and explicit overrides for the presentation, slides, layouts, masters, and
// tag parts. Existing entries for other parts are left alone.
func (p *Package) RefreshContentTypes() error {
	ct, err := p.ContentTypes()
	if err != nil {
		return err
	}

	ct.EnsureDefault("rels", CTRels)
	ct.EnsureDefault("xml", CTXML)

	for _, name := range p.Names() {
		if name == ContentTypesPart {
			continue
		}
		if strings.Contains(name, "_rels/") {
			continue
		}
		switch {
		case name == PresentationPart:
			ct.EnsureOverride(name, CTPresentation)
		case underDir(name, SlideDir):
			ct.EnsureOverride(name, CTSlide)
		case underDir(name, LayoutDir):
			ct.EnsureOverride(name, CTLayout)
		case underDir(name, MasterDir):
			ct.EnsureOverride(name, CTMaster)
		case underDir(name, TagDir):
			ct.EnsureOverride(name, CTTags)
		case underDir(name, MediaDir):
			if ext := strings.TrimPrefix(path.Ext(name), "."); ext != "" {
				ct.EnsureDefault(ext, ImageContentType(ext))
			}
		}
	}

	return p.SetContentTypes(ct)
}

func underDir(name, dir string) bool {
	return strings.HasPrefix(name, dir+"/") && path.Ext(name) != ".rels"
}
