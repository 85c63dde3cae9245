package deck

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"pollkit/internal/guid"
	"pollkit/internal/pptx"
	"pollkit/internal/services"
)

// Tag names of the polling metadata convention. Each question slide owns a
// block of four tag parts: slide config (carrying the GUID), a title-shape
// marker, an answers-shape marker with scoring weights, and a countdown
// marker.
const (
	tagNameSlide     = "POLL_SLIDE"
	tagNameGUID      = "POLL_GUID"
	tagNameCountdown = "POLL_COUNTDOWN"
	tagNameStart     = "POLL_START"
	tagNameShape     = "POLL_SHAPE"
	tagNamePoints    = "POLL_POINTS"

	tagShapeTitle     = "title"
	tagShapeAnswers   = "answers"
	tagShapeCountdown = "countdown"

	tagSlideQuestion = "question"
)

const tagRecordsPerQuestion = 4

type tagEntryOut struct {
	Name string `xml:"name,attr"`
	Val  string `xml:"val,attr"`
}

type tagLstOut struct {
	XMLName xml.Name      `xml:"p:tagLst"`
	XmlnsP  string        `xml:"xmlns:p,attr"`
	Tags    []tagEntryOut `xml:"p:tag"`
}

type tagEntryParse struct {
	Name string `xml:"name,attr"`
	Val  string `xml:"val,attr"`
}

type tagLstParse struct {
	XMLName xml.Name        `xml:"tagLst"`
	Tags    []tagEntryParse `xml:"tag"`
}

// TagConfig carries the timing and scoring configuration written into the
// per-slide metadata.
type TagConfig struct {
	CountdownSeconds int
	PollStart        string
	Points           int
}

// TagBlock names the four metadata parts emitted for one question slide.
type TagBlock struct {
	Numbers [tagRecordsPerQuestion]int
	GUID    string
}

func tagPartName(n int) string {
	return fmt.Sprintf("%s/tag%d.xml", pptx.TagDir, n)
}

func tagPartNumber(partName string) int {
	base := strings.TrimSuffix(partName, ".xml")
	i := strings.LastIndex(base, "/tag")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(base[i+len("/tag"):])
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// TagOffset returns the highest tag number already present in the template,
// zero when the template has none. Tag numbering must have no gaps across
// 1..max; a gap indicates package corruption.
func TagOffset(pkg *pptx.Package) (int, error) {
	present := make(map[int]bool)
	max := 0
	for _, name := range pkg.PartsUnder(pptx.TagDir) {
		if strings.Contains(name, "/_rels/") {
			continue
		}
		n := tagPartNumber(name)
		if n == 0 {
			return 0, services.Wrap(services.ErrCorrupt, "tags", "scan", fmt.Sprintf("unrecognized tag part %s", name), nil)
		}
		present[n] = true
		if n > max {
			max = n
		}
	}
	for i := 1; i <= max; i++ {
		if !present[i] {
			return 0, services.Wrap(services.ErrCorrupt, "tags", "scan", fmt.Sprintf("tag numbering gap at %d of %d", i, max), nil)
		}
	}
	return max, nil
}

// TemplateGUIDs collects the slide identifiers already present in the
// template's metadata. The caller records them so imports can exclude
// responses to template-owned slides.
func TemplateGUIDs(pkg *pptx.Package) ([]string, error) {
	var guids []string
	for _, name := range pkg.PartsUnder(pptx.TagDir) {
		if strings.Contains(name, "/_rels/") {
			continue
		}
		part, _ := pkg.Part(name)
		var doc tagLstParse
		if err := xml.Unmarshal(part.Data, &doc); err != nil {
			return nil, services.Wrap(services.ErrCorrupt, "tags", "parse", name, err)
		}
		for _, entry := range doc.Tags {
			if entry.Name == tagNameGUID && entry.Val != "" {
				guids = append(guids, guid.Normalize(entry.Val))
			}
		}
	}
	return guids, nil
}

// EmitTags writes the four metadata parts for one question slide. batchIndex
// is 1-based within the current generation call; tagOffset is the highest tag
// number already present before the call, so blocks never collide with
// template metadata.
func EmitTags(pkg *pptx.Package, q Question, batchIndex, tagOffset int, cfg TagConfig) (TagBlock, error) {
	if batchIndex < 1 {
		return TagBlock{}, services.Wrap(services.ErrValidation, "tags", "emit", "batch index is 1-based", nil)
	}
	base := tagOffset + 1 + tagRecordsPerQuestion*(batchIndex-1)
	block := TagBlock{GUID: guid.New()}

	countdown := q.EffectiveDuration(cfg.CountdownSeconds)
	records := [tagRecordsPerQuestion][]tagEntryOut{
		{
			{Name: tagNameSlide, Val: tagSlideQuestion},
			{Name: tagNameGUID, Val: block.GUID},
			{Name: tagNameCountdown, Val: strconv.Itoa(countdown)},
			{Name: tagNameStart, Val: cfg.PollStart},
		},
		{{Name: tagNameShape, Val: tagShapeTitle}},
		{
			{Name: tagNameShape, Val: tagShapeAnswers},
			{Name: tagNamePoints, Val: Weights(q, cfg.Points)},
		},
		{{Name: tagNameShape, Val: tagShapeCountdown}},
	}

	for i, entries := range records {
		n := base + i
		block.Numbers[i] = n
		data, err := marshalPart(tagLstOut{XmlnsP: nsPresentation, Tags: entries})
		if err != nil {
			return TagBlock{}, err
		}
		pkg.Set(tagPartName(n), data)
	}
	return block, nil
}
