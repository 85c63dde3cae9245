// Package generator runs one generation call end to end: lock and read the
// template, synthesize slides and metadata for the selected questions,
// rebuild the package manifests, and bundle the result with the roster
// document into a distribution archive. Nothing is persisted until the whole
// pipeline has succeeded.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"pollkit/internal/config"
	"pollkit/internal/deck"
	"pollkit/internal/delivery"
	"pollkit/internal/imagefit"
	"pollkit/internal/logging"
	"pollkit/internal/pptx"
	"pollkit/internal/services"
	"pollkit/internal/sessiondoc"
	"pollkit/internal/store"
)

// Generator wires a generation run to configuration and persistence.
type Generator struct {
	cfg     *config.Config
	store   *store.Store
	fetcher *imagefit.Fetcher
	logger  *slog.Logger
}

// New builds a generator. A nil fetcher gets a default one with the
// configured image timeout.
func New(cfg *config.Config, st *store.Store, fetcher *imagefit.Fetcher, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "generator"))
	if fetcher == nil {
		fetcher = imagefit.NewFetcher(nil, time.Duration(cfg.Generation.ImageTimeoutSeconds)*time.Second, logger)
	}
	return &Generator{cfg: cfg, store: st, fetcher: fetcher, logger: logger}
}

// Options is the input for one generation call.
type Options struct {
	Title        string
	TemplatePath string
	Questions    []deck.Question
	Roster       []sessiondoc.RosterEntry
}

// Artifact reports what a generation call produced.
type Artifact struct {
	SessionID     int64
	ArchivePath   string
	Mappings      []deck.Mapping
	TemplateGUIDs []string
	ImageFailures []imagefit.Failure
	SlideCount    int
	TagCount      int
}

// Generate runs the whole pipeline. The template file is locked for the
// duration so two calls cannot race on the same template.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Artifact, error) {
	if opts.Title == "" {
		return nil, services.Wrap(services.ErrValidation, "generator", "generate", "session title is required", nil)
	}
	if opts.TemplatePath == "" {
		return nil, services.Wrap(services.ErrValidation, "generator", "generate", "template path is required", nil)
	}
	if len(opts.Questions) == 0 {
		return nil, services.Wrap(services.ErrValidation, "generator", "generate", "at least one question is required", nil)
	}
	for _, q := range opts.Questions {
		if err := q.Validate(); err != nil {
			return nil, err
		}
	}
	bullet, err := deck.ParseBulletStyle(g.cfg.Generation.BulletStyle)
	if err != nil {
		return nil, err
	}

	lock := flock.New(opts.TemplatePath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire template lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConflict, "generator", "generate",
			fmt.Sprintf("template %s is in use by another generation", opts.TemplatePath), nil)
	}
	defer func() { _ = lock.Unlock() }()

	pkg, err := pptx.Open(opts.TemplatePath)
	if err != nil {
		return nil, err
	}

	tagOffset, err := deck.TagOffset(pkg)
	if err != nil {
		return nil, err
	}
	templateGUIDs, err := deck.TemplateGUIDs(pkg)
	if err != nil {
		return nil, err
	}

	presPart, ok := pkg.Part(pptx.PresentationPart)
	if !ok {
		return nil, services.Wrap(services.ErrCorrupt, "generator", "generate", "template has no presentation document", nil)
	}
	pres, err := pptx.ParsePresentation(presPart.Data)
	if err != nil {
		return nil, err
	}

	introTitle := g.cfg.Generation.IntroTitleSlide
	introRoster := g.cfg.Generation.IntroRosterSlide
	plan := deck.BuildPlan(len(pres.SlideRelIDs), introTitle, introRoster, opts.Questions)

	refs := make(map[int]string)
	for i, desc := range plan.Slides {
		if desc.Role == deck.RoleQuestion && desc.Question.ImageURL != "" {
			refs[plan.PartPosition(i)] = desc.Question.ImageURL
		}
	}
	images, imageReport := g.fetcher.FetchAll(ctx, refs)

	layouts, err := deck.EnsureLayouts(pkg, introTitle, introRoster)
	if err != nil {
		return nil, err
	}

	rosterNames := make([]string, 0, len(opts.Roster))
	for _, entry := range opts.Roster {
		rosterNames = append(rosterNames, entry.DisplayName())
	}
	emitted, err := deck.EmitSlides(pkg, plan, layouts, images, tagOffset, deck.Config{
		Bullet:           bullet,
		CountdownSeconds: g.cfg.Generation.CountdownSeconds,
		PollStart:        g.cfg.Generation.PollStart,
		Points:           g.cfg.Generation.PointsPerQuestion,
		SessionTitle:     opts.Title,
		RosterNames:      rosterNames,
	}, g.logger)
	if err != nil {
		return nil, err
	}

	docRels, err := pkg.Relationships(pptx.PresentationPart)
	if err != nil {
		return nil, err
	}
	relPlan, err := pptx.RebuildDocumentRels(docRels, pres.SlideRelIDs, plan.IntroTargets(), plan.QuestionTargets())
	if err != nil {
		return nil, err
	}
	if err := pkg.SetRelationships(pptx.PresentationPart, relPlan.Rels); err != nil {
		return nil, err
	}
	presData, err := pptx.BuildPresentation(pres, relPlan)
	if err != nil {
		return nil, err
	}
	pkg.Set(pptx.PresentationPart, presData)

	if err := pkg.RefreshContentTypes(); err != nil {
		return nil, err
	}

	pkgBytes, err := pkg.Bytes()
	if err != nil {
		return nil, err
	}
	rosterDoc, err := sessiondoc.WriteRoster(opts.Roster)
	if err != nil {
		return nil, err
	}

	// Pipeline succeeded; commit.
	session, err := g.store.CreateSession(ctx, opts.Title, opts.TemplatePath)
	if err != nil {
		return nil, err
	}
	ctx = services.WithSessionID(ctx, session.ID)
	if err := g.store.SaveQuestions(ctx, session.ID, opts.Questions); err != nil {
		return nil, err
	}
	if err := g.store.SaveMappings(ctx, session.ID, emitted.Mappings); err != nil {
		return nil, err
	}
	if err := g.store.SaveRoster(ctx, session.ID, opts.Roster); err != nil {
		return nil, err
	}

	archivePath := filepath.Join(g.cfg.Paths.OutDir, fmt.Sprintf("session-%d.zip", session.ID))
	if err := delivery.WriteArchive(archivePath, pkgBytes, rosterDoc); err != nil {
		return nil, err
	}
	if err := g.store.SetSessionOutput(ctx, session.ID, archivePath, templateGUIDs); err != nil {
		return nil, err
	}

	logging.WithContext(ctx, g.logger).Info("generation complete",
		logging.Int("slides", len(plan.Slides)),
		logging.Int("tags", emitted.TagsEmitted),
		logging.Int("image_failures", len(imageReport.Failures)),
		logging.String("archive", archivePath))

	return &Artifact{
		SessionID:     session.ID,
		ArchivePath:   archivePath,
		Mappings:      emitted.Mappings,
		TemplateGUIDs: templateGUIDs,
		ImageFailures: imageReport.Failures,
		SlideCount:    len(plan.Slides),
		TagCount:      emitted.TagsEmitted,
	}, nil
}
