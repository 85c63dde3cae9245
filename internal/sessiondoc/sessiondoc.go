// Package sessiondoc reads and writes the response-session dialect: the
// roster-carrying document bundled with a generated package, and the same
// document returned from the polling hardware with answers filled in.
package sessiondoc

import (
	"encoding/xml"
	"time"

	"pollkit/internal/services"
)

// Column identifiers of the respondent header. The device column is required;
// the rest are custom properties.
const (
	ColumnDevice       = "device"
	ColumnGivenName    = "given"
	ColumnFamilyName   = "family"
	ColumnOrganization = "org"
)

// timeLayout is how the polling hardware stamps responses.
const timeLayout = "2006-01-02T15:04:05"

// RosterEntry is one participant-to-device assignment.
type RosterEntry struct {
	DeviceID     string
	GivenName    string
	FamilyName   string
	Organization string
}

// DisplayName renders the participant's full name.
func (r RosterEntry) DisplayName() string {
	switch {
	case r.GivenName == "" && r.FamilyName == "":
		return r.DeviceID
	case r.GivenName == "":
		return r.FamilyName
	case r.FamilyName == "":
		return r.GivenName
	default:
		return r.GivenName + " " + r.FamilyName
	}
}

// Answer is one scored option of a question element.
type Answer struct {
	ID     int
	Weight int
}

// RawResponse is one respondent's answer to one question element.
type RawResponse struct {
	RespondentID int
	AnswerID     int
	// Answered is the device timestamp, zero when the hardware recorded none.
	Answered time.Time
}

// QuestionElement is one question of the populated document, keyed by the
// slide identifier minted at generation time.
type QuestionElement struct {
	GUID      string
	Answers   []Answer
	Responses []RawResponse
}

// Respondent is one row of the respondent list.
type Respondent struct {
	ID         int
	DeviceID   string
	Properties map[string]string
}

// Document is the typed form of a response-session file.
type Document struct {
	Questions   []QuestionElement
	Columns     []ColumnSpec
	Respondents []Respondent
}

// ColumnSpec declares one respondent header column.
type ColumnSpec struct {
	ID   string
	Name string
}

// DeviceLookup maps sequential respondent identifiers to physical device
// serials. Respondents without a device value are absent from the map.
func (d *Document) DeviceLookup() map[int]string {
	lookup := make(map[int]string, len(d.Respondents))
	for _, r := range d.Respondents {
		if r.DeviceID != "" {
			lookup[r.ID] = r.DeviceID
		}
	}
	return lookup
}

type answerXML struct {
	ID     int `xml:"id,attr"`
	Weight int `xml:"weight,attr"`
}

type responseXML struct {
	Respondent int    `xml:"respondent,attr"`
	Answer     int    `xml:"answer,attr"`
	Time       string `xml:"time,attr,omitempty"`
}

type questionXML struct {
	GUID      string        `xml:"guid,attr"`
	Answers   []answerXML   `xml:"Answers>Answer"`
	Responses []responseXML `xml:"Responses>Response"`
}

type columnXML struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type propertyXML struct {
	Column string `xml:"column,attr"`
	Value  string `xml:",chardata"`
}

type respondentXML struct {
	ID         int           `xml:"id,attr"`
	Device     string        `xml:"Device"`
	Properties []propertyXML `xml:"Property"`
}

type documentXML struct {
	XMLName     xml.Name        `xml:"ResponseSession"`
	Version     int             `xml:"version,attr"`
	Questions   []questionXML   `xml:"Questions>Question"`
	Columns     []columnXML     `xml:"RespondentHeader>Column"`
	Respondents []respondentXML `xml:"Respondents>Respondent"`
}

// WriteRoster serializes a roster-only document: an empty question list, the
// respondent header, and the participant list with sequential identifiers.
func WriteRoster(roster []RosterEntry) ([]byte, error) {
	doc := documentXML{
		Version: 1,
		Columns: []columnXML{
			{ID: ColumnDevice, Name: "Device ID"},
			{ID: ColumnGivenName, Name: "First Name"},
			{ID: ColumnFamilyName, Name: "Last Name"},
			{ID: ColumnOrganization, Name: "Organization"},
		},
	}
	for i, entry := range roster {
		doc.Respondents = append(doc.Respondents, respondentXML{
			ID:     i + 1,
			Device: entry.DeviceID,
			Properties: []propertyXML{
				{Column: ColumnGivenName, Value: entry.GivenName},
				{Column: ColumnFamilyName, Value: entry.FamilyName},
				{Column: ColumnOrganization, Value: entry.Organization},
			},
		})
	}

	encoded, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sessiondoc", "write roster", "", err)
	}
	return append([]byte(xml.Header), encoded...), nil
}

// Parse decodes a response-session file. A document whose respondent header
// lacks the device column is rejected outright; per-row problems are left to
// the extractor.
func Parse(data []byte) (*Document, error) {
	var raw documentXML
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrCorrupt, "sessiondoc", "parse", "response-session document unreadable", err)
	}

	hasDevice := false
	doc := &Document{}
	for _, col := range raw.Columns {
		if col.ID == ColumnDevice {
			hasDevice = true
		}
		doc.Columns = append(doc.Columns, ColumnSpec{ID: col.ID, Name: col.Name})
	}
	if !hasDevice {
		return nil, services.Wrap(services.ErrCorrupt, "sessiondoc", "parse", "respondent header is missing the device column", nil)
	}

	for _, q := range raw.Questions {
		element := QuestionElement{GUID: q.GUID}
		for _, a := range q.Answers {
			element.Answers = append(element.Answers, Answer{ID: a.ID, Weight: a.Weight})
		}
		for _, r := range q.Responses {
			element.Responses = append(element.Responses, RawResponse{
				RespondentID: r.Respondent,
				AnswerID:     r.Answer,
				Answered:     parseTime(r.Time),
			})
		}
		doc.Questions = append(doc.Questions, element)
	}

	for _, r := range raw.Respondents {
		respondent := Respondent{ID: r.ID, DeviceID: r.Device, Properties: make(map[string]string, len(r.Properties))}
		for _, p := range r.Properties {
			respondent.Properties[p.Column] = p.Value
		}
		doc.Respondents = append(doc.Respondents, respondent)
	}
	return doc, nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(timeLayout, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

// FormatTime renders a timestamp the way the hardware does; used by tests and
// fixtures that fabricate populated documents.
func FormatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(timeLayout)
}
