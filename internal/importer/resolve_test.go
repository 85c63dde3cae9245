package importer

import (
	"errors"
	"testing"

	"pollkit/internal/services"
)

func TestResolveBlockedWhilePending(t *testing.T) {
	anomalies := Anomalies{
		Expected: []DeviceIssue{{DeviceID: "AAA", Missing: detectGUIDs[:1]}},
	}
	if _, err := Resolve(anomalies, nil); !errors.Is(err, services.ErrResolutionPending) {
		t.Fatalf("expected pending error, got %v", err)
	}
}

func TestResolveAggregateRequiresSource(t *testing.T) {
	anomalies := Anomalies{
		Expected: []DeviceIssue{{DeviceID: "AAA", Missing: detectGUIDs[:1]}},
	}
	_, err := Resolve(anomalies, []Resolution{{DeviceID: "AAA", Action: ActionAggregate}})
	if !errors.Is(err, services.ErrResolutionPending) {
		t.Fatalf("expected pending error for missing source, got %v", err)
	}
}

func TestResolveNewParticipantRequiresName(t *testing.T) {
	anomalies := Anomalies{
		Unregistered: []DeviceIssue{{DeviceID: "ZZZ"}},
	}
	_, err := Resolve(anomalies, []Resolution{{DeviceID: "ZZZ", Action: ActionAddParticipant}})
	if !errors.Is(err, services.ErrResolutionPending) {
		t.Fatalf("expected pending error for unnamed participant, got %v", err)
	}
}

func TestResolveRejectsUnflaggedDevice(t *testing.T) {
	_, err := Resolve(Anomalies{}, []Resolution{{DeviceID: "AAA", Action: ActionMarkAbsent}})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveMarkAbsentZeroesDevice(t *testing.T) {
	anomalies := Anomalies{
		Clean: []Response{{DeviceID: "BBB", GUID: detectGUIDs[0], OptionID: 1}},
		Expected: []DeviceIssue{{
			DeviceID:  "AAA",
			Missing:   detectGUIDs[1:],
			Responses: []Response{{DeviceID: "AAA", GUID: detectGUIDs[0], OptionID: 2}},
		}},
	}
	outcome, err := Resolve(anomalies, []Resolution{{DeviceID: "AAA", Action: ActionMarkAbsent}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(outcome.Absent) != 1 || outcome.Absent[0] != "AAA" {
		t.Fatalf("absent list %v", outcome.Absent)
	}
	for _, r := range outcome.Final {
		if r.DeviceID == "AAA" {
			t.Fatalf("absent device's responses must not survive: %+v", r)
		}
	}
	if len(outcome.Final) != 1 {
		t.Fatalf("clean responses must pass through, got %d", len(outcome.Final))
	}
}

// Unregistered device D answered two of three slides; roster device E missed
// those same two. Aggregating E from D must cover all three slides and
// consume D.
func TestResolveAggregateWithUnknown(t *testing.T) {
	anomalies := Anomalies{
		Expected: []DeviceIssue{{
			DeviceID:  "E",
			Missing:   []string{detectGUIDs[1], detectGUIDs[2]},
			Responses: []Response{{DeviceID: "E", GUID: detectGUIDs[0], OptionID: 1}},
		}},
		Unregistered: []DeviceIssue{{
			DeviceID: "D",
			Responses: []Response{
				{DeviceID: "D", GUID: detectGUIDs[1], OptionID: 2},
				{DeviceID: "D", GUID: detectGUIDs[2], OptionID: 3},
			},
		}},
	}

	outcome, err := Resolve(anomalies, []Resolution{
		{DeviceID: "E", Action: ActionAggregate, SourceDevice: "D"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	covered := make(map[string]bool)
	for _, r := range outcome.Final {
		if r.DeviceID != "E" {
			t.Fatalf("merged response not re-tagged: %+v", r)
		}
		covered[r.GUID] = true
	}
	for _, g := range detectGUIDs {
		if !covered[g] {
			t.Errorf("slide %s not covered after aggregation", g)
		}
	}
	if len(outcome.NewEntries) != 0 || len(outcome.Absent) != 0 {
		t.Errorf("aggregation should have no roster side effects: %+v", outcome)
	}
}

func TestResolveConsumedSourceCannotResolveIndependently(t *testing.T) {
	anomalies := Anomalies{
		Expected:     []DeviceIssue{{DeviceID: "E", Missing: detectGUIDs[:1]}},
		Unregistered: []DeviceIssue{{DeviceID: "D", Responses: []Response{{DeviceID: "D", GUID: detectGUIDs[0], OptionID: 1}}}},
	}
	_, err := Resolve(anomalies, []Resolution{
		{DeviceID: "E", Action: ActionAggregate, SourceDevice: "D"},
		{DeviceID: "D", Action: ActionIgnoreResponses},
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for consumed source, got %v", err)
	}
}

func TestResolveAggregateSourceWinsOnSharedSlide(t *testing.T) {
	anomalies := Anomalies{
		Expected: []DeviceIssue{{
			DeviceID: "E",
			Missing:  []string{detectGUIDs[1]},
			Responses: []Response{
				{DeviceID: "E", GUID: detectGUIDs[0], OptionID: 1},
			},
		}},
		Unregistered: []DeviceIssue{{
			DeviceID: "D",
			Responses: []Response{
				{DeviceID: "D", GUID: detectGUIDs[0], OptionID: 4},
				{DeviceID: "D", GUID: detectGUIDs[1], OptionID: 2},
			},
		}},
	}
	outcome, err := Resolve(anomalies, []Resolution{
		{DeviceID: "E", Action: ActionAggregate, SourceDevice: "D"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, r := range outcome.Final {
		if r.GUID == detectGUIDs[0] && r.OptionID != 4 {
			t.Fatalf("source answer must win on a shared slide, got option %d", r.OptionID)
		}
	}
}

func TestResolveAddParticipantCarriesResponses(t *testing.T) {
	anomalies := Anomalies{
		Unregistered: []DeviceIssue{{
			DeviceID:  "ZZZ",
			Responses: []Response{{DeviceID: "ZZZ", GUID: detectGUIDs[0], OptionID: 1}},
		}},
	}
	outcome, err := Resolve(anomalies, []Resolution{
		{DeviceID: "ZZZ", Action: ActionAddParticipant, GivenName: "Late", FamilyName: "Joiner"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(outcome.NewEntries) != 1 || outcome.NewEntries[0].DeviceID != "ZZZ" {
		t.Fatalf("roster entry not produced: %+v", outcome.NewEntries)
	}
	if len(outcome.Final) != 1 || outcome.Final[0].DeviceID != "ZZZ" {
		t.Fatalf("responses must carry through unchanged: %+v", outcome.Final)
	}
}

func TestParseAction(t *testing.T) {
	for _, valid := range []string{"mark-absent", "aggregate-with-unknown", "ignore-device", "ignore-responses", "add-as-new-participant"} {
		if _, err := ParseAction(valid); err != nil {
			t.Errorf("ParseAction(%q): %v", valid, err)
		}
	}
	if _, err := ParseAction("retcon"); !errors.Is(err, services.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
