package deck

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"pollkit/internal/imagefit"
	"pollkit/internal/logging"
	"pollkit/internal/pptx"
	"pollkit/internal/services"
)

// Config carries the generation settings the synthesizer renders with.
type Config struct {
	Bullet           BulletStyle
	CountdownSeconds int
	PollStart        string
	Points           int
	SessionTitle     string
	RosterNames      []string
}

// Result reports what a synthesis pass emitted.
type Result struct {
	Mappings    []Mapping
	TagsEmitted int
}

// EmitSlides writes one slide part per plan entry plus the per-question
// metadata blocks, wiring each slide's relationship list to its layout, its
// tags, and its image when one was fetched. Images are keyed by slide
// position; a missing key degrades to a slide without an image.
func EmitSlides(pkg *pptx.Package, plan Plan, layouts Layouts, images map[int]imagefit.Resource, tagOffset int, cfg Config, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "deck"))

	result := Result{}
	for i, desc := range plan.Slides {
		position := plan.PartPosition(i)
		partName := plan.PartName(i)

		switch desc.Role {
		case RoleIntroTitle:
			if err := emitIntroTitle(pkg, partName, layouts.TitlePart, cfg.SessionTitle); err != nil {
				return result, err
			}
		case RoleIntroRoster:
			if err := emitIntroRoster(pkg, partName, layouts.RosterPart, cfg.RosterNames); err != nil {
				return result, err
			}
		case RoleQuestion:
			q := *desc.Question
			if err := q.Validate(); err != nil {
				return result, err
			}
			block, err := EmitTags(pkg, q, desc.BatchIndex, tagOffset, TagConfig{
				CountdownSeconds: cfg.CountdownSeconds,
				PollStart:        cfg.PollStart,
				Points:           cfg.Points,
			})
			if err != nil {
				return result, err
			}
			result.TagsEmitted += tagRecordsPerQuestion

			image, hasImage := images[position]
			if err := emitQuestionSlide(pkg, partName, position, layouts.QuestionPart, q, block, image, hasImage, cfg); err != nil {
				return result, err
			}

			result.Mappings = append(result.Mappings, Mapping{
				QuestionID:  q.ID,
				SlideGUID:   block.GUID,
				Ordinal:     desc.BatchIndex,
				Theme:       q.Theme,
				BlockLetter: q.BlockLetter,
			})
			logger.Debug("question slide emitted",
				logging.Int64(logging.FieldQuestionID, q.ID),
				logging.String(logging.FieldGUID, block.GUID),
				logging.Int("position", position),
				logging.Bool("image", hasImage))
		default:
			return result, services.Wrap(services.ErrValidation, "deck", "emit", fmt.Sprintf("unknown slide role %v", desc.Role), nil)
		}
	}
	return result, nil
}

func layoutTarget(layoutPart string) string {
	return "../slideLayouts/" + strings.TrimPrefix(layoutPart, pptx.LayoutDir+"/")
}

func emitIntroTitle(pkg *pptx.Package, partName, layoutPart, title string) error {
	slide := newSlideOut()
	if strings.TrimSpace(title) == "" {
		title = "Polling Session"
	}
	slide.CSld.SpTree.Shapes = append(slide.CSld.SpTree.Shapes,
		textShape(2, "Title", TitleBox, []paraOut{plainPara(title, titleFontSize, true)}))

	data, err := marshalPart(slide)
	if err != nil {
		return err
	}
	pkg.Set(partName, data)
	return pkg.SetRelationships(partName, []pptx.Relationship{
		{ID: pptx.RelID(1), Type: pptx.RelTypeLayout, Target: layoutTarget(layoutPart)},
	})
}

func emitIntroRoster(pkg *pptx.Package, partName, layoutPart string, names []string) error {
	slide := newSlideOut()
	slide.CSld.SpTree.Shapes = append(slide.CSld.SpTree.Shapes,
		textShape(2, "Title", TitleBox, []paraOut{plainPara("Participants", titleFontSize, true)}))

	paras := make([]paraOut, 0, len(names))
	for _, name := range names {
		paras = append(paras, plainPara(name, introFontSize, false))
	}
	if len(paras) == 0 {
		paras = append(paras, plainPara("No participants assigned", introFontSize, false))
	}
	slide.CSld.SpTree.Shapes = append(slide.CSld.SpTree.Shapes,
		textShape(3, "Roster", OptionsBoxFull, paras))

	data, err := marshalPart(slide)
	if err != nil {
		return err
	}
	pkg.Set(partName, data)
	return pkg.SetRelationships(partName, []pptx.Relationship{
		{ID: pptx.RelID(1), Type: pptx.RelTypeLayout, Target: layoutTarget(layoutPart)},
	})
}

func emitQuestionSlide(pkg *pptx.Package, partName string, position int, layoutPart string, q Question, block TagBlock, image imagefit.Resource, hasImage bool, cfg Config) error {
	slide := newSlideOut()

	slide.CSld.SpTree.Shapes = append(slide.CSld.SpTree.Shapes,
		textShape(2, "Question Title", TitleBox, []paraOut{plainPara(q.Prompt, titleFontSize, true)}))

	optionsBox := OptionsBoxFull
	if hasImage {
		optionsBox = OptionsBoxSplit
	}
	scheme := cfg.Bullet.autoNumScheme()
	paras := make([]paraOut, 0, len(q.Options))
	for _, option := range q.Options {
		para := plainPara(option, optionFontSize, false)
		para.PPr = &pPrOut{
			MarL:      optionIndentEMU,
			Indent:    -optionIndentEMU,
			BuAutoNum: &buAutoNumOut{Type: scheme},
		}
		paras = append(paras, para)
	}
	slide.CSld.SpTree.Shapes = append(slide.CSld.SpTree.Shapes,
		textShape(3, "Answers", optionsBox, paras))

	rels := []pptx.Relationship{
		{ID: pptx.RelID(1), Type: pptx.RelTypeLayout, Target: layoutTarget(layoutPart)},
	}
	var tagRefs []tagRefOut
	for _, n := range block.Numbers {
		id := pptx.RelID(len(rels) + 1)
		rels = append(rels, pptx.Relationship{ID: id, Type: pptx.RelTypeTags, Target: fmt.Sprintf("../tags/tag%d.xml", n)})
		tagRefs = append(tagRefs, tagRefOut{RelID: id})
	}
	slide.CSld.CustData = &custDataLstOut{Tags: tagRefs}

	if hasImage {
		mediaPart := fmt.Sprintf("%s/pollImage%d.%s", pptx.MediaDir, position, image.Extension)
		pkg.Set(mediaPart, image.Data)

		imageRelID := pptx.RelID(len(rels) + 1)
		rels = append(rels, pptx.Relationship{
			ID:     imageRelID,
			Type:   pptx.RelTypeImage,
			Target: "../media/" + strings.TrimPrefix(mediaPart, pptx.MediaDir+"/"),
		})

		fitted := imagefit.Fit(image.Natural, ImageBox)
		slide.CSld.SpTree.Pictures = append(slide.CSld.SpTree.Pictures, picOut{
			NvPicPr:  nvPicPrOut{CNvPr: cNvPrOut{ID: 4, Name: "Question Image"}},
			BlipFill: blipFillOut{Blip: blipOut{Embed: imageRelID}},
			SpPr: spPrOut{
				Xfrm: &xfrmOut{
					Off: offOut{X: fitted.X, Y: fitted.Y},
					Ext: extOut{CX: fitted.W, CY: fitted.H},
				},
				Geom: &prstGeomOut{Prst: "rect"},
			},
		})
	}

	if countdown := q.EffectiveDuration(cfg.CountdownSeconds); countdown > 0 {
		slide.CSld.SpTree.Shapes = append(slide.CSld.SpTree.Shapes,
			textShape(5, "Countdown", CountdownBox, []paraOut{plainPara(strconv.Itoa(countdown), countdownFontSz, true)}))
	}

	data, err := marshalPart(slide)
	if err != nil {
		return err
	}
	pkg.Set(partName, data)
	return pkg.SetRelationships(partName, rels)
}
