package deck

import (
	"testing"

	"pollkit/internal/pptx"
)

const fixtureContentTypes = `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/></Types>`

const fixturePresentation = `<?xml version="1.0"?><p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst><p:sldId id="256" r:id="rId2"/></p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/></p:presentation>`

const fixtureMaster = `<?xml version="1.0"?><p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree/></p:cSld><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

// templatePackage builds the smallest package the synthesizer accepts: one
// master with one layout, and one template-owned slide.
func templatePackage(t *testing.T) *pptx.Package {
	t.Helper()
	pkg := pptx.NewPackage()
	pkg.Set(pptx.ContentTypesPart, []byte(fixtureContentTypes))
	pkg.Set(pptx.PresentationPart, []byte(fixturePresentation))
	pkg.Set(pptx.MasterDir+"/slideMaster1.xml", []byte(fixtureMaster))

	layout, err := marshalPart(newLayoutOut("Title Slide", "title"))
	if err != nil {
		t.Fatalf("marshal layout fixture: %v", err)
	}
	pkg.Set(pptx.LayoutDir+"/slideLayout1.xml", layout)

	slide, err := marshalPart(newSlideOut())
	if err != nil {
		t.Fatalf("marshal slide fixture: %v", err)
	}
	pkg.Set(pptx.SlideDir+"/slide1.xml", slide)

	setRels := func(part string, rels []pptx.Relationship) {
		if err := pkg.SetRelationships(part, rels); err != nil {
			t.Fatalf("set relationships for %s: %v", part, err)
		}
	}
	setRels(pptx.PresentationPart, []pptx.Relationship{
		{ID: "rId1", Type: pptx.RelTypeMaster, Target: "slideMasters/slideMaster1.xml"},
		{ID: "rId2", Type: pptx.RelTypeSlide, Target: "slides/slide1.xml"},
	})
	setRels(pptx.MasterDir+"/slideMaster1.xml", []pptx.Relationship{
		{ID: "rId1", Type: pptx.RelTypeLayout, Target: "../slideLayouts/slideLayout1.xml"},
	})
	setRels(pptx.LayoutDir+"/slideLayout1.xml", []pptx.Relationship{
		{ID: "rId1", Type: pptx.RelTypeMaster, Target: "../slideMasters/slideMaster1.xml"},
	})
	return pkg
}

func intPtr(n int) *int { return &n }
