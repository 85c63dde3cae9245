package store

import "time"

// Status tracks how far a session has progressed through the pipeline.
type Status string

const (
	// StatusGenerated means the package and roster exist but no responses
	// have been imported yet.
	StatusGenerated Status = "generated"
	// StatusImported means responses were imported, resolved, and graded.
	StatusImported Status = "imported"
)

// Session is one generation run and everything imported against it.
type Session struct {
	ID           int64
	Title        string
	Status       Status
	TemplatePath string
	OutputPath   string
	// TemplateGUIDs records slide identifiers the template carried before
	// generation, so imports can skip responses to template-owned slides.
	TemplateGUIDs []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Mapping joins one question to the slide synthesized for it.
type Mapping struct {
	SessionID   int64
	QuestionID  int64
	SlideGUID   string
	Ordinal     int
	Theme       string
	BlockLetter string
}

// RosterEntry is one participant-to-device assignment within a session.
type RosterEntry struct {
	SessionID    int64
	Position     int
	DeviceID     string
	GivenName    string
	FamilyName   string
	Organization string
}

// Result origins distinguish device-reported answers from operator edits.
const (
	OriginDevice   = "device"
	OriginOperator = "operator"
)

// GradedResult is one participant's scored answer to one question.
type GradedResult struct {
	SessionID   int64
	QuestionID  int64
	DeviceID    string
	OptionIndex int
	// Correct reports whether the chosen option matches the question's
	// stored correct index; always false when the question declares none.
	Correct bool
	Points  int
	// AnsweredAt is the device timestamp, nil when the hardware recorded
	// none or the result was entered by the operator.
	AnsweredAt *time.Time
	Origin     string
}

// ImportReport summarizes one import run.
type ImportReport struct {
	ID             int64
	SessionID      int64
	CreatedAt      time.Time
	SourceCount    int
	ResponseCount  int
	DuplicateCount int
	AnomalyCount   int
	ResolvedCount  int
	// DetailsJSON carries the per-anomaly breakdown for inspection.
	DetailsJSON string
}
