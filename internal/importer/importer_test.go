package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"pollkit/internal/deck"
	"pollkit/internal/delivery"
	"pollkit/internal/services"
	"pollkit/internal/sessiondoc"
	"pollkit/internal/store"
	"pollkit/internal/testsupport"
)

func populatedDoc(questions []string, respondents map[int]string, answers map[string][][3]int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ResponseSession version="1"><Questions>`)
	for _, g := range questions {
		fmt.Fprintf(&b, `<Question guid="%s"><Answers><Answer id="1" weight="10"/><Answer id="2" weight="0"/></Answers><Responses>`, g)
		for _, a := range answers[g] {
			fmt.Fprintf(&b, `<Response respondent="%d" answer="%d" time="2026-05-04T10:%02d:00"/>`, a[0], a[1], a[2])
		}
		b.WriteString(`</Responses></Question>`)
	}
	b.WriteString(`</Questions><RespondentHeader><Column id="device" name="Device ID"/></RespondentHeader><Respondents>`)
	for id := 1; id <= len(respondents); id++ {
		fmt.Fprintf(&b, `<Respondent id="%d"><Device>%s</Device></Respondent>`, id, respondents[id])
	}
	b.WriteString(`</Respondents></ResponseSession>`)
	return b.String()
}

func TestExtractDropsAndCounts(t *testing.T) {
	raw := `<?xml version="1.0"?><ResponseSession version="1"><Questions>` +
		`<Question guid="` + detectGUIDs[0] + `"><Answers><Answer id="1" weight="10"/></Answers><Responses>` +
		`<Response respondent="1" answer="1"/>` +
		`<Response respondent="2" answer="1"/>` + // respondent without device
		`<Response respondent="1" answer="0"/>` + // missing answer
		`</Responses></Question>` +
		`<Question guid=""><Answers/><Responses><Response respondent="1" answer="1"/></Responses></Question>` +
		`</Questions><RespondentHeader><Column id="device" name="Device ID"/></RespondentHeader>` +
		`<Respondents><Respondent id="1"><Device>AAA</Device></Respondent><Respondent id="2"><Device></Device></Respondent></Respondents>` +
		`</ResponseSession>`

	doc, err := sessiondoc.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	responses, report := Extract(doc, nil)
	if len(responses) != 1 {
		t.Fatalf("expected 1 usable response, got %d", len(responses))
	}
	if responses[0].Points != 10 {
		t.Errorf("weight not applied: %+v", responses[0])
	}
	if report.UnresolvedDevice != 1 || report.MissingAnswer != 1 || report.MissingGUID != 1 {
		t.Errorf("unexpected drop report %+v", report)
	}
}

func seedSession(t *testing.T, st *store.Store, guids []string, roster []string) int64 {
	t.Helper()
	ctx := context.Background()
	session, err := st.CreateSession(ctx, "Import Test", "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	mappings := make([]deck.Mapping, 0, len(guids))
	questions := make([]deck.Question, 0, len(guids))
	correct := 0
	for i, g := range guids {
		mappings = append(mappings, deck.Mapping{QuestionID: int64(100 + i), SlideGUID: g, Ordinal: i + 1})
		questions = append(questions, deck.Question{
			ID:      int64(100 + i),
			Prompt:  fmt.Sprintf("Question %d?", i+1),
			Options: []string{"right", "wrong"},
			Correct: &correct,
		})
	}
	if err := st.SaveMappings(ctx, session.ID, mappings); err != nil {
		t.Fatalf("SaveMappings: %v", err)
	}
	if err := st.SaveQuestions(ctx, session.ID, questions); err != nil {
		t.Fatalf("SaveQuestions: %v", err)
	}
	entries := make([]sessiondoc.RosterEntry, 0, len(roster))
	for _, d := range roster {
		entries = append(entries, sessiondoc.RosterEntry{DeviceID: d, GivenName: d})
	}
	if err := st.SaveRoster(ctx, session.ID, entries); err != nil {
		t.Fatalf("SaveRoster: %v", err)
	}
	return session.ID
}

func writeBundle(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bundle.zip")
	if err := delivery.WriteArchive(path, []byte("pkg"), []byte(doc)); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}
	return path
}

func TestRunHappyPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	sessionID := seedSession(t, st, detectGUIDs, []string{"AAA", "BBB"})

	answers := map[string][][3]int{}
	for _, g := range detectGUIDs {
		answers[g] = [][3]int{{1, 1, 0}, {2, 2, 1}}
	}
	archive := writeBundle(t, populatedDoc(detectGUIDs, map[int]string{1: "AAA", 2: "BBB"}, answers))

	imp := New(st, nil)
	summary, err := imp.Run(context.Background(), Options{SessionID: sessionID, ArchivePath: archive})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ResultCount != 6 {
		t.Fatalf("expected 6 graded results, got %d", summary.ResultCount)
	}

	ctx := context.Background()
	results, err := st.ResultsBySession(ctx, sessionID)
	if err != nil {
		t.Fatalf("ResultsBySession: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("persisted results %d, want 6", len(results))
	}
	// AAA picked option 1 everywhere, the stored correct index; BBB did not.
	for _, r := range results {
		if want := r.DeviceID == "AAA"; r.Correct != want {
			t.Errorf("device %s question %d correctness %v, want %v", r.DeviceID, r.QuestionID, r.Correct, want)
		}
	}
	totals, err := st.DeviceTotals(ctx, sessionID)
	if err != nil {
		t.Fatalf("DeviceTotals: %v", err)
	}
	if totals["AAA"] != 30 || totals["BBB"] != 0 {
		t.Errorf("unexpected totals %v", totals)
	}

	session, err := st.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Status != store.StatusImported {
		t.Errorf("session status %q, want imported", session.Status)
	}
	reports, err := st.ImportReportsBySession(ctx, sessionID)
	if err != nil {
		t.Fatalf("ImportReportsBySession: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("expected 1 import report, got %d", len(reports))
	}
}

// A document referencing a slide the session never generated must abort the
// import with nothing persisted.
func TestRunRejectsForeignArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	sessionID := seedSession(t, st, detectGUIDs[:1], []string{"AAA"})

	// AAA answers the real slide too, so it is clean and its foreign
	// response survives to the transform.
	foreign := "99999999-9999-4999-8999-999999999999"
	docGUIDs := []string{detectGUIDs[0], foreign}
	answers := map[string][][3]int{
		detectGUIDs[0]: {{1, 1, 0}},
		foreign:        {{1, 1, 0}},
	}
	archive := writeBundle(t, populatedDoc(docGUIDs, map[int]string{1: "AAA"}, answers))

	imp := New(st, nil)
	_, err := imp.Run(context.Background(), Options{
		SessionID:   sessionID,
		ArchivePath: archive,
	})
	if !errors.Is(err, services.ErrCorrupt) {
		t.Fatalf("expected corrupt-archive error, got %v", err)
	}

	results, err := st.ResultsBySession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("ResultsBySession: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("no results may be persisted after a rejected import, got %d", len(results))
	}
	session, err := st.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Status != store.StatusGenerated {
		t.Errorf("session status must stay generated, got %q", session.Status)
	}
}

func TestRunBlockedUntilResolved(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	sessionID := seedSession(t, st, detectGUIDs, []string{"AAA", "BBB"})

	answers := map[string][][3]int{}
	for _, g := range detectGUIDs {
		answers[g] = [][3]int{{1, 1, 0}}
	}
	archive := writeBundle(t, populatedDoc(detectGUIDs, map[int]string{1: "AAA"}, answers))

	imp := New(st, nil)
	_, err := imp.Run(context.Background(), Options{SessionID: sessionID, ArchivePath: archive})
	if !errors.Is(err, services.ErrResolutionPending) {
		t.Fatalf("expected pending error, got %v", err)
	}

	summary, err := imp.Run(context.Background(), Options{
		SessionID:   sessionID,
		ArchivePath: archive,
		Resolutions: []Resolution{{DeviceID: "BBB", Action: ActionMarkAbsent}},
	})
	if err != nil {
		t.Fatalf("Run with resolution: %v", err)
	}
	if len(summary.AbsentDevices) != 1 || summary.AbsentDevices[0] != "BBB" {
		t.Fatalf("unexpected absent devices %v", summary.AbsentDevices)
	}

	absent, err := st.AbsentDevices(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("AbsentDevices: %v", err)
	}
	if len(absent) != 1 || absent[0] != "BBB" {
		t.Fatalf("absent flag not persisted: %v", absent)
	}
}

func TestPreviewDoesNotPersist(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	sessionID := seedSession(t, st, detectGUIDs, []string{"AAA"})

	archive := writeBundle(t, populatedDoc(detectGUIDs, map[int]string{1: "AAA"}, nil))

	imp := New(st, nil)
	anomalies, err := imp.Preview(context.Background(), sessionID, archive)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(anomalies.Expected) != 1 {
		t.Fatalf("expected the silent device flagged, got %+v", anomalies)
	}

	session, err := st.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Status != store.StatusGenerated {
		t.Errorf("preview must not advance the session, got %q", session.Status)
	}
}
