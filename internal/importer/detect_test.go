package importer

import (
	"testing"

	"pollkit/internal/sessiondoc"
)

var detectGUIDs = []string{
	"11111111-1111-4111-8111-111111111111",
	"22222222-2222-4222-8222-222222222222",
	"33333333-3333-4333-8333-333333333333",
}

func rosterOf(devices ...string) []sessiondoc.RosterEntry {
	entries := make([]sessiondoc.RosterEntry, 0, len(devices))
	for _, d := range devices {
		entries = append(entries, sessiondoc.RosterEntry{DeviceID: d})
	}
	return entries
}

// One roster device answers everything, the other answers nothing.
func TestDetectFlagsSilentRosterDevice(t *testing.T) {
	roster := rosterOf("AAA", "BBB")
	var responses []Response
	for _, g := range detectGUIDs {
		responses = append(responses, Response{DeviceID: "AAA", GUID: g, OptionID: 1})
	}

	anomalies := Detect(roster, detectGUIDs, responses)
	if len(anomalies.Unregistered) != 0 {
		t.Fatalf("no unregistered devices expected, got %d", len(anomalies.Unregistered))
	}
	if len(anomalies.Expected) != 1 || anomalies.Expected[0].DeviceID != "BBB" {
		t.Fatalf("expected BBB flagged, got %+v", anomalies.Expected)
	}
	if len(anomalies.Expected[0].Missing) != len(detectGUIDs) {
		t.Errorf("silent device should miss every relevant slide, missing %v", anomalies.Expected[0].Missing)
	}
	if len(anomalies.Clean) != len(detectGUIDs) {
		t.Errorf("complete device's responses should pass through, got %d", len(anomalies.Clean))
	}
}

func TestDetectPartitionIsCompleteAndDisjoint(t *testing.T) {
	roster := rosterOf("AAA", "BBB")
	responses := []Response{
		{DeviceID: "AAA", GUID: detectGUIDs[0], OptionID: 1},
		{DeviceID: "AAA", GUID: detectGUIDs[1], OptionID: 1},
		{DeviceID: "AAA", GUID: detectGUIDs[2], OptionID: 1},
		{DeviceID: "BBB", GUID: detectGUIDs[0], OptionID: 2},
		{DeviceID: "ZZZ", GUID: detectGUIDs[1], OptionID: 3},
		{DeviceID: "ZZZ", GUID: detectGUIDs[2], OptionID: 3},
	}

	anomalies := Detect(roster, detectGUIDs, responses)

	total := len(anomalies.Clean)
	for _, issue := range anomalies.Expected {
		total += len(issue.Responses)
	}
	for _, issue := range anomalies.Unregistered {
		total += len(issue.Responses)
	}
	if total != len(responses) {
		t.Fatalf("partition incomplete: %d of %d responses placed", total, len(responses))
	}

	seen := make(map[Response]bool)
	count := func(rs []Response) {
		for _, r := range rs {
			if seen[r] {
				t.Fatalf("response %+v counted twice", r)
			}
			seen[r] = true
		}
	}
	count(anomalies.Clean)
	for _, issue := range anomalies.Expected {
		count(issue.Responses)
	}
	for _, issue := range anomalies.Unregistered {
		count(issue.Responses)
	}
}

func TestDetectWithNoRelevantSlides(t *testing.T) {
	roster := rosterOf("AAA")
	anomalies := Detect(roster, nil, nil)
	if anomalies.NeedsResolution() {
		t.Fatalf("nothing should be flagged without relevant slides: %+v", anomalies)
	}
}

func TestDetectGroupsUnregisteredByDevice(t *testing.T) {
	anomalies := Detect(rosterOf(), detectGUIDs[:1], []Response{
		{DeviceID: "XXX", GUID: detectGUIDs[0], OptionID: 1},
		{DeviceID: "YYY", GUID: detectGUIDs[0], OptionID: 2},
		{DeviceID: "XXX", GUID: detectGUIDs[0], OptionID: 3},
	})
	if len(anomalies.Unregistered) != 2 {
		t.Fatalf("expected 2 unregistered devices, got %d", len(anomalies.Unregistered))
	}
	if anomalies.Unregistered[0].DeviceID != "XXX" || anomalies.Unregistered[1].DeviceID != "YYY" {
		t.Errorf("first-appearance order not preserved: %+v", anomalies.Unregistered)
	}
	if len(anomalies.Unregistered[0].Responses) != 2 {
		t.Errorf("responses not grouped by device: %+v", anomalies.Unregistered[0])
	}
}
