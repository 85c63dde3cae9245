package importer

import (
	"log/slog"
	"time"

	"pollkit/internal/guid"
	"pollkit/internal/logging"
	"pollkit/internal/sessiondoc"
)

// Response is one device's answer to one question slide, flattened out of
// the response-session document.
type Response struct {
	DeviceID string
	// GUID is the normalized slide identifier the answer belongs to.
	GUID string
	// OptionID is the 1-based answer identifier the device chose.
	OptionID int
	// Points is the weight the scoring table assigns the chosen option.
	Points int
	// Answered is the device timestamp, zero when none was recorded.
	Answered time.Time
}

// DropReport counts response rows discarded during extraction. Dropped rows
// are recoverable per-item problems, never fatal to the batch.
type DropReport struct {
	UnresolvedDevice int
	MissingGUID      int
	MissingAnswer    int
}

// Total sums all dropped rows.
func (r DropReport) Total() int {
	return r.UnresolvedDevice + r.MissingGUID + r.MissingAnswer
}

// Extract flattens a populated document into responses. Rows whose
// respondent has no device serial, whose question element carries no usable
// identifier, or which lack an answer value are dropped and counted.
func Extract(doc *sessiondoc.Document, logger *slog.Logger) ([]Response, DropReport) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(logging.String(logging.FieldComponent, "importer"))

	devices := doc.DeviceLookup()
	var (
		responses []Response
		report    DropReport
	)
	for _, q := range doc.Questions {
		id := guid.Normalize(q.GUID)
		if !guid.Valid(id) {
			report.MissingGUID += len(q.Responses)
			logger.Warn("question element without usable identifier",
				logging.String(logging.FieldGUID, q.GUID),
				logging.Int("dropped", len(q.Responses)))
			continue
		}
		weights := make(map[int]int, len(q.Answers))
		for _, a := range q.Answers {
			weights[a.ID] = a.Weight
		}
		for _, raw := range q.Responses {
			device, ok := devices[raw.RespondentID]
			if !ok {
				report.UnresolvedDevice++
				logger.Warn("response with unresolvable respondent",
					logging.Int("respondent", raw.RespondentID),
					logging.String(logging.FieldGUID, id))
				continue
			}
			if raw.AnswerID <= 0 {
				report.MissingAnswer++
				logger.Warn("response without answer value",
					logging.String(logging.FieldDeviceID, device),
					logging.String(logging.FieldGUID, id))
				continue
			}
			responses = append(responses, Response{
				DeviceID: device,
				GUID:     id,
				OptionID: raw.AnswerID,
				Points:   weights[raw.AnswerID],
				Answered: raw.Answered,
			})
		}
	}
	return responses, report
}
