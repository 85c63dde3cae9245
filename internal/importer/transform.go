package importer

import (
	"fmt"

	"pollkit/internal/deck"
	"pollkit/internal/services"
	"pollkit/internal/store"
)

// Transform grades the finalized responses against the session's stored
// questions and mappings. A response whose slide identifier has no mapping
// means the archive does not belong to this session, so the whole batch
// aborts. Correctness comes from the question's stored correct index; a
// question without one grades every answer as incorrect.
func Transform(final []Response, mappings []store.Mapping, questions []deck.Question, sessionID int64) ([]store.GradedResult, error) {
	byGUID := make(map[string]store.Mapping, len(mappings))
	for _, m := range mappings {
		byGUID[m.SlideGUID] = m
	}
	correctIndex := make(map[int64]*int, len(questions))
	for _, q := range questions {
		correctIndex[q.ID] = q.Correct
	}

	results := make([]store.GradedResult, 0, len(final))
	for _, r := range final {
		mapping, ok := byGUID[r.GUID]
		if !ok {
			return nil, services.Wrap(services.ErrCorrupt, "importer", "transform",
				fmt.Sprintf("response slide %s has no mapping in session %d; archive does not belong to this session", r.GUID, sessionID), nil)
		}
		result := store.GradedResult{
			SessionID:   sessionID,
			QuestionID:  mapping.QuestionID,
			DeviceID:    r.DeviceID,
			OptionIndex: r.OptionID - 1,
			Points:      r.Points,
			Origin:      store.OriginDevice,
		}
		if correct := correctIndex[mapping.QuestionID]; correct != nil {
			result.Correct = result.OptionIndex == *correct
		}
		if !r.Answered.IsZero() {
			ts := r.Answered
			result.AnsweredAt = &ts
		}
		results = append(results, result)
	}
	return results, nil
}
