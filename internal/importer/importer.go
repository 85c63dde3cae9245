package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"pollkit/internal/deck"
	"pollkit/internal/delivery"
	"pollkit/internal/logging"
	"pollkit/internal/services"
	"pollkit/internal/sessiondoc"
	"pollkit/internal/store"
)

// Importer runs the import pipeline against the session database.
type Importer struct {
	store  *store.Store
	logger *slog.Logger
}

// New builds an importer.
func New(st *store.Store, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Importer{
		store:  st,
		logger: logger.With(logging.String(logging.FieldComponent, "importer")),
	}
}

// Options selects the session, the returned archive, and the operator's
// resolutions for this run.
type Options struct {
	SessionID   int64
	ArchivePath string
	Resolutions []Resolution
}

// Summary reports what an import run did.
type Summary struct {
	Dropped         DropReport
	ResponseCount   int
	DuplicateCount  int
	Anomalies       Anomalies
	ResultCount     int
	AbsentDevices   []string
	NewParticipants int
}

// Preview runs the pipeline up to anomaly detection without touching the
// database, so the caller can show the operator what needs resolving.
func (imp *Importer) Preview(ctx context.Context, sessionID int64, archivePath string) (Anomalies, error) {
	prep, err := imp.prepare(ctx, sessionID, archivePath)
	if err != nil {
		return Anomalies{}, err
	}
	return prep.anomalies, nil
}

// Run executes the whole pipeline and, on success, commits graded results,
// roster changes, and the import report in one pass at the end.
func (imp *Importer) Run(ctx context.Context, opts Options) (*Summary, error) {
	ctx = services.WithSessionID(ctx, opts.SessionID)
	prep, err := imp.prepare(ctx, opts.SessionID, opts.ArchivePath)
	if err != nil {
		return nil, err
	}

	outcome, err := Resolve(prep.anomalies, opts.Resolutions)
	if err != nil {
		return nil, err
	}

	results, err := Transform(outcome.Final, prep.mappings, prep.questions, opts.SessionID)
	if err != nil {
		return nil, err
	}

	// Everything validated; commit.
	for _, entry := range outcome.NewEntries {
		if err := imp.store.AddRosterEntry(ctx, opts.SessionID, entry); err != nil {
			return nil, err
		}
	}
	if err := imp.store.MarkAbsentDevices(ctx, opts.SessionID, outcome.Absent); err != nil {
		return nil, err
	}
	if err := imp.store.SaveResults(ctx, opts.SessionID, results); err != nil {
		return nil, err
	}

	summary := &Summary{
		Dropped:         prep.dropped,
		ResponseCount:   len(prep.deduped),
		DuplicateCount:  prep.duplicates,
		Anomalies:       prep.anomalies,
		ResultCount:     len(results),
		AbsentDevices:   outcome.Absent,
		NewParticipants: len(outcome.NewEntries),
	}
	details, err := json.Marshal(map[string]any{
		"dropped":          prep.dropped,
		"absent":           outcome.Absent,
		"new_participants": len(outcome.NewEntries),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal report details: %w", err)
	}
	if _, err := imp.store.SaveImportReport(ctx, store.ImportReport{
		SessionID:      opts.SessionID,
		SourceCount:    1,
		ResponseCount:  len(prep.deduped),
		DuplicateCount: prep.duplicates,
		AnomalyCount:   len(prep.anomalies.Expected) + len(prep.anomalies.Unregistered),
		ResolvedCount:  len(opts.Resolutions),
		DetailsJSON:    string(details),
	}); err != nil {
		return nil, err
	}
	if err := imp.store.SetSessionStatus(ctx, opts.SessionID, store.StatusImported); err != nil {
		return nil, err
	}

	logging.WithContext(ctx, imp.logger).Info("import complete",
		logging.Int("results", len(results)),
		logging.Int("dropped", prep.dropped.Total()),
		logging.Int("absent", len(outcome.Absent)))
	return summary, nil
}

type prepared struct {
	mappings   []store.Mapping
	questions  []deck.Question
	roster     []sessiondoc.RosterEntry
	deduped    []Response
	dropped    DropReport
	duplicates int
	anomalies  Anomalies
}

func (imp *Importer) prepare(ctx context.Context, sessionID int64, archivePath string) (*prepared, error) {
	session, err := imp.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	mappings, err := imp.store.MappingsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, services.Wrap(services.ErrValidation, "importer", "prepare",
			fmt.Sprintf("session %d has no question mappings; generate it first", sessionID), nil)
	}
	questions, err := imp.store.QuestionsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	roster, err := imp.store.RosterBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	docBytes, err := delivery.ReadSessionDoc(archivePath)
	if err != nil {
		return nil, err
	}
	doc, err := sessiondoc.Parse(docBytes)
	if err != nil {
		return nil, err
	}

	responses, dropped := Extract(doc, imp.logger)

	// Template-owned slides are irrelevant to grading; shed their
	// responses up front.
	templateOwned := make(map[string]bool, len(session.TemplateGUIDs))
	for _, g := range session.TemplateGUIDs {
		templateOwned[g] = true
	}
	filtered := responses[:0]
	for _, r := range responses {
		if !templateOwned[r.GUID] {
			filtered = append(filtered, r)
		}
	}

	deduped := Dedupe(filtered)
	duplicates := len(filtered) - len(deduped)

	relevant := make([]string, 0, len(mappings))
	for _, m := range mappings {
		relevant = append(relevant, m.SlideGUID)
	}

	return &prepared{
		mappings:   mappings,
		questions:  questions,
		roster:     roster,
		deduped:    deduped,
		dropped:    dropped,
		duplicates: duplicates,
		anomalies:  Detect(roster, relevant, deduped),
	}, nil
}
