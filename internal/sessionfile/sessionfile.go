// Package sessionfile reads the operator-authored session description: a TOML
// file naming the session, its question set, and the expected participants.
package sessionfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pollkit/internal/deck"
	"pollkit/internal/services"
	"pollkit/internal/sessiondoc"
)

// Document is the parsed session description.
type Document struct {
	Title        string
	TemplatePath string
	Questions    []deck.Question
	Roster       []sessiondoc.RosterEntry
}

type fileSchema struct {
	Title        string              `toml:"title"`
	Template     string              `toml:"template"`
	Questions    []questionSchema    `toml:"question"`
	Participants []participantSchema `toml:"participant"`
}

type questionSchema struct {
	ID              int64    `toml:"id"`
	Prompt          string   `toml:"prompt"`
	Options         []string `toml:"options"`
	Correct         *int     `toml:"correct"`
	DurationSeconds *int     `toml:"duration_seconds"`
	ImageURL        string   `toml:"image_url"`
	Theme           string   `toml:"theme"`
	BlockLetter     string   `toml:"block_letter"`
}

type participantSchema struct {
	Device       string `toml:"device"`
	GivenName    string `toml:"given_name"`
	FamilyName   string `toml:"family_name"`
	Organization string `toml:"organization"`
}

// Load reads and validates a session description from path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sessionfile", "load", path, err)
	}
	return Parse(data)
}

// Parse decodes a session description. Question IDs default to their position
// when omitted, and participant names are normalized to title case.
func Parse(data []byte) (*Document, error) {
	var raw fileSchema
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrValidation, "sessionfile", "parse", "decode session file", err)
	}

	doc := &Document{
		Title:        strings.TrimSpace(raw.Title),
		TemplatePath: strings.TrimSpace(raw.Template),
	}
	if doc.Title == "" {
		return nil, services.Wrap(services.ErrValidation, "sessionfile", "parse", "session file has no title", nil)
	}
	if len(raw.Questions) == 0 {
		return nil, services.Wrap(services.ErrValidation, "sessionfile", "parse", "session file has no questions", nil)
	}

	for i, q := range raw.Questions {
		question := deck.Question{
			ID:              q.ID,
			Prompt:          strings.TrimSpace(q.Prompt),
			Options:         q.Options,
			Correct:         q.Correct,
			DurationSeconds: q.DurationSeconds,
			ImageURL:        strings.TrimSpace(q.ImageURL),
			Theme:           strings.TrimSpace(q.Theme),
			BlockLetter:     strings.TrimSpace(q.BlockLetter),
		}
		if question.ID == 0 {
			question.ID = int64(i + 1)
		}
		if err := question.Validate(); err != nil {
			return nil, err
		}
		doc.Questions = append(doc.Questions, question)
	}

	titler := cases.Title(language.Und, cases.NoLower)
	seen := make(map[string]struct{}, len(raw.Participants))
	for _, p := range raw.Participants {
		device := strings.TrimSpace(p.Device)
		if device == "" {
			return nil, services.Wrap(services.ErrValidation, "sessionfile", "parse", "participant without a device identifier", nil)
		}
		if _, dup := seen[device]; dup {
			return nil, services.Wrap(services.ErrValidation, "sessionfile", "parse", fmt.Sprintf("duplicate participant device %s", device), nil)
		}
		seen[device] = struct{}{}
		doc.Roster = append(doc.Roster, sessiondoc.RosterEntry{
			DeviceID:     device,
			GivenName:    titler.String(strings.TrimSpace(p.GivenName)),
			FamilyName:   titler.String(strings.TrimSpace(p.FamilyName)),
			Organization: strings.TrimSpace(p.Organization),
		})
	}

	return doc, nil
}
