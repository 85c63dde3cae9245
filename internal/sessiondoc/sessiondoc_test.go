package sessiondoc

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pollkit/internal/services"
)

func TestWriteRosterRoundTrip(t *testing.T) {
	roster := []RosterEntry{
		{DeviceID: "1A2B3C", GivenName: "Ada", FamilyName: "Lovelace", Organization: "Engineering"},
		{DeviceID: "4D5E6F", GivenName: "Grace", FamilyName: "Hopper", Organization: ""},
	}

	data, err := WriteRoster(roster)
	if err != nil {
		t.Fatalf("WriteRoster: %v", err)
	}
	if !strings.HasPrefix(string(data), "<?xml") {
		t.Fatalf("expected XML declaration, got %q", string(data[:20]))
	}

	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Questions) != 0 {
		t.Fatalf("roster document should carry no questions, got %d", len(doc.Questions))
	}
	if len(doc.Respondents) != 2 {
		t.Fatalf("expected 2 respondents, got %d", len(doc.Respondents))
	}
	for i, r := range doc.Respondents {
		if r.ID != i+1 {
			t.Errorf("respondent %d: expected sequential id %d, got %d", i, i+1, r.ID)
		}
	}
	if doc.Respondents[0].DeviceID != "1A2B3C" {
		t.Errorf("unexpected device id %q", doc.Respondents[0].DeviceID)
	}
	if got := doc.Respondents[0].Properties[ColumnGivenName]; got != "Ada" {
		t.Errorf("unexpected given name %q", got)
	}
}

func TestParsePopulatedDocument(t *testing.T) {
	const payload = `<?xml version="1.0"?>
<ResponseSession version="1">
  <Questions>
    <Question guid="0E3C9AC0-1111-4222-8333-444455556666">
      <Answers>
        <Answer id="1" weight="10"/>
        <Answer id="2" weight="0"/>
      </Answers>
      <Responses>
        <Response respondent="1" answer="1" time="2026-05-04T10:15:00"/>
        <Response respondent="2" answer="2"/>
      </Responses>
    </Question>
  </Questions>
  <RespondentHeader>
    <Column id="device" name="Device ID"/>
    <Column id="given" name="First Name"/>
  </RespondentHeader>
  <Respondents>
    <Respondent id="1"><Device>1A2B3C</Device><Property column="given">Ada</Property></Respondent>
    <Respondent id="2"><Device></Device></Respondent>
  </Respondents>
</ResponseSession>`

	doc, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(doc.Questions))
	}
	q := doc.Questions[0]
	if len(q.Answers) != 2 || q.Answers[0].Weight != 10 {
		t.Fatalf("unexpected answers %+v", q.Answers)
	}
	if len(q.Responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(q.Responses))
	}
	want := time.Date(2026, 5, 4, 10, 15, 0, 0, time.UTC)
	if !q.Responses[0].Answered.Equal(want) {
		t.Errorf("unexpected timestamp %v", q.Responses[0].Answered)
	}
	if !q.Responses[1].Answered.IsZero() {
		t.Errorf("missing timestamp should parse as zero, got %v", q.Responses[1].Answered)
	}

	lookup := doc.DeviceLookup()
	if lookup[1] != "1A2B3C" {
		t.Errorf("unexpected device for respondent 1: %q", lookup[1])
	}
	if _, ok := lookup[2]; ok {
		t.Errorf("respondent without device should be absent from lookup")
	}
}

func TestParseRejectsMissingDeviceColumn(t *testing.T) {
	const payload = `<?xml version="1.0"?>
<ResponseSession version="1">
  <RespondentHeader>
    <Column id="given" name="First Name"/>
  </RespondentHeader>
</ResponseSession>`

	_, err := Parse([]byte(payload))
	if !errors.Is(err, services.ErrCorrupt) {
		t.Fatalf("expected corrupt document error, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		entry RosterEntry
		want  string
	}{
		{RosterEntry{DeviceID: "ABC", GivenName: "Ada", FamilyName: "Lovelace"}, "Ada Lovelace"},
		{RosterEntry{DeviceID: "ABC", GivenName: "Ada"}, "Ada"},
		{RosterEntry{DeviceID: "ABC", FamilyName: "Lovelace"}, "Lovelace"},
		{RosterEntry{DeviceID: "ABC"}, "ABC"},
	}
	for _, tc := range cases {
		if got := tc.entry.DisplayName(); got != tc.want {
			t.Errorf("DisplayName(%+v) = %q, want %q", tc.entry, got, tc.want)
		}
	}
}
