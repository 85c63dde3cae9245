package deck

import (
	"encoding/xml"
	"fmt"

	"pollkit/internal/imagefit"
)

// Emission structs carry literal namespace prefixes so the serialized parts
// match the presentation dialect. Parsing uses separate local-name structs.

const (
	nsDrawing      = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationship = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPresentation = "http://schemas.openxmlformats.org/presentationml/2006/main"
)

type emptyElem struct{}

type slideOut struct {
	XMLName xml.Name `xml:"p:sld"`
	XmlnsA  string   `xml:"xmlns:a,attr"`
	XmlnsR  string   `xml:"xmlns:r,attr"`
	XmlnsP  string   `xml:"xmlns:p,attr"`

	CSld      cSldOut      `xml:"p:cSld"`
	ClrMapOvr clrMapOvrOut `xml:"p:clrMapOvr"`
}

type layoutOut struct {
	XMLName xml.Name `xml:"p:sldLayout"`
	XmlnsA  string   `xml:"xmlns:a,attr"`
	XmlnsR  string   `xml:"xmlns:r,attr"`
	XmlnsP  string   `xml:"xmlns:p,attr"`
	Type    string   `xml:"type,attr,omitempty"`

	CSld      cSldOut      `xml:"p:cSld"`
	ClrMapOvr clrMapOvrOut `xml:"p:clrMapOvr"`
}

type cSldOut struct {
	Name     string          `xml:"name,attr,omitempty"`
	SpTree   spTreeOut       `xml:"p:spTree"`
	CustData *custDataLstOut `xml:"p:custDataLst,omitempty"`
}

type clrMapOvrOut struct {
	Master emptyElem `xml:"a:masterClrMapping"`
}

type custDataLstOut struct {
	Tags []tagRefOut `xml:"p:tags"`
}

type tagRefOut struct {
	RelID string `xml:"r:id,attr"`
}

type spTreeOut struct {
	NvGrpSpPr nvGrpSpPrOut `xml:"p:nvGrpSpPr"`
	GrpSpPr   emptyElem    `xml:"p:grpSpPr"`
	Shapes    []spOut      `xml:"p:sp"`
	Pictures  []picOut     `xml:"p:pic"`
}

type nvGrpSpPrOut struct {
	CNvPr      cNvPrOut  `xml:"p:cNvPr"`
	CNvGrpSpPr emptyElem `xml:"p:cNvGrpSpPr"`
	NvPr       emptyElem `xml:"p:nvPr"`
}

type cNvPrOut struct {
	ID   int    `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type spOut struct {
	NvSpPr nvSpPrOut  `xml:"p:nvSpPr"`
	SpPr   spPrOut    `xml:"p:spPr"`
	TxBody *txBodyOut `xml:"p:txBody,omitempty"`
}

type nvSpPrOut struct {
	CNvPr   cNvPrOut  `xml:"p:cNvPr"`
	CNvSpPr emptyElem `xml:"p:cNvSpPr"`
	NvPr    nvPrOut   `xml:"p:nvPr"`
}

type nvPrOut struct {
	Ph *phOut `xml:"p:ph,omitempty"`
}

type phOut struct {
	Type string `xml:"type,attr,omitempty"`
	Idx  string `xml:"idx,attr,omitempty"`
}

type spPrOut struct {
	Xfrm *xfrmOut     `xml:"a:xfrm,omitempty"`
	Geom *prstGeomOut `xml:"a:prstGeom,omitempty"`
}

type xfrmOut struct {
	Off offOut `xml:"a:off"`
	Ext extOut `xml:"a:ext"`
}

type offOut struct {
	X int64 `xml:"x,attr"`
	Y int64 `xml:"y,attr"`
}

type extOut struct {
	CX int64 `xml:"cx,attr"`
	CY int64 `xml:"cy,attr"`
}

type prstGeomOut struct {
	Prst  string    `xml:"prst,attr"`
	AvLst emptyElem `xml:"a:avLst"`
}

type txBodyOut struct {
	BodyPr   bodyPrOut `xml:"a:bodyPr"`
	LstStyle emptyElem `xml:"a:lstStyle"`
	Paras    []paraOut `xml:"a:p"`
}

type bodyPrOut struct {
	Wrap string `xml:"wrap,attr,omitempty"`
}

type paraOut struct {
	PPr  *pPrOut  `xml:"a:pPr,omitempty"`
	Runs []runOut `xml:"a:r"`
}

type pPrOut struct {
	MarL      int64         `xml:"marL,attr,omitempty"`
	Indent    int64         `xml:"indent,attr,omitempty"`
	BuAutoNum *buAutoNumOut `xml:"a:buAutoNum,omitempty"`
}

type buAutoNumOut struct {
	Type string `xml:"type,attr"`
}

type runOut struct {
	RPr  *rPrOut `xml:"a:rPr,omitempty"`
	Text string  `xml:"a:t"`
}

type rPrOut struct {
	Lang string `xml:"lang,attr,omitempty"`
	Sz   int    `xml:"sz,attr,omitempty"`
	Bold int    `xml:"b,attr,omitempty"`
}

type picOut struct {
	NvPicPr  nvPicPrOut  `xml:"p:nvPicPr"`
	BlipFill blipFillOut `xml:"p:blipFill"`
	SpPr     spPrOut     `xml:"p:spPr"`
}

type nvPicPrOut struct {
	CNvPr    cNvPrOut  `xml:"p:cNvPr"`
	CNvPicPr emptyElem `xml:"p:cNvPicPr"`
	NvPr     emptyElem `xml:"p:nvPr"`
}

type blipFillOut struct {
	Blip    blipOut    `xml:"a:blip"`
	Stretch stretchOut `xml:"a:stretch"`
}

type blipOut struct {
	Embed string `xml:"r:embed,attr"`
}

type stretchOut struct {
	FillRect emptyElem `xml:"a:fillRect"`
}

func newSlideOut() slideOut {
	return slideOut{
		XmlnsA: nsDrawing,
		XmlnsR: nsRelationship,
		XmlnsP: nsPresentation,
		CSld: cSldOut{
			SpTree: spTreeOut{
				NvGrpSpPr: nvGrpSpPrOut{CNvPr: cNvPrOut{ID: 1, Name: ""}},
			},
		},
	}
}

func newLayoutOut(name, layoutType string) layoutOut {
	return layoutOut{
		XmlnsA: nsDrawing,
		XmlnsR: nsRelationship,
		XmlnsP: nsPresentation,
		Type:   layoutType,
		CSld: cSldOut{
			Name: name,
			SpTree: spTreeOut{
				NvGrpSpPr: nvGrpSpPrOut{CNvPr: cNvPrOut{ID: 1, Name: ""}},
			},
		},
	}
}

func marshalPart(v any) ([]byte, error) {
	encoded, err := xml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal slide part: %w", err)
	}
	return append([]byte(xml.Header), encoded...), nil
}

func textShape(id int, name string, box imagefit.Rect, paras []paraOut) spOut {
	return spOut{
		NvSpPr: nvSpPrOut{CNvPr: cNvPrOut{ID: id, Name: name}},
		SpPr: spPrOut{
			Xfrm: &xfrmOut{
				Off: offOut{X: box.X, Y: box.Y},
				Ext: extOut{CX: box.W, CY: box.H},
			},
			Geom: &prstGeomOut{Prst: "rect"},
		},
		TxBody: &txBodyOut{Paras: paras},
	}
}

func plainPara(text string, sz int, bold bool) paraOut {
	rpr := &rPrOut{Lang: "en-US", Sz: sz}
	if bold {
		rpr.Bold = 1
	}
	return paraOut{Runs: []runOut{{RPr: rpr, Text: text}}}
}
