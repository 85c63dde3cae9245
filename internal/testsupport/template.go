package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"pollkit/internal/pptx"
)

const templateContentTypes = `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/></Types>`

const templatePresentation = `<?xml version="1.0"?><p:presentation xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst><p:sldId id="256" r:id="rId2"/></p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/></p:presentation>`

const templateMaster = `<?xml version="1.0"?><p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree/></p:cSld><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

const templateLayout = `<?xml version="1.0"?><p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" type="title"><p:cSld name="Title Slide"><p:spTree/></p:cSld></p:sldLayout>`

const templateSlide = `<?xml version="1.0"?><p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree/></p:cSld></p:sld>`

// TemplatePackage builds the smallest template the generator accepts: one
// master, one layout, and one ordinary slide.
func TemplatePackage(t testing.TB) *pptx.Package {
	t.Helper()

	pkg := pptx.NewPackage()
	pkg.Set(pptx.ContentTypesPart, []byte(templateContentTypes))
	pkg.Set(pptx.PresentationPart, []byte(templatePresentation))
	pkg.Set(pptx.MasterDir+"/slideMaster1.xml", []byte(templateMaster))
	pkg.Set(pptx.LayoutDir+"/slideLayout1.xml", []byte(templateLayout))
	pkg.Set(pptx.SlideDir+"/slide1.xml", []byte(templateSlide))

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

// WriteTemplate serializes the fixture template into dir and returns its path.
func WriteTemplate(t testing.TB, dir string) string {
	t.Helper()

	data, err := TemplatePackage(t).Bytes()
	if err != nil {
		t.Fatalf("serialize template: %v", err)
	}
	path := filepath.Join(dir, "template.pptx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	return path
}
