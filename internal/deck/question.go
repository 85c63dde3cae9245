package deck

import (
	"fmt"
	"strings"

	"pollkit/internal/services"
)

// Question is the immutable input for one polling slide.
type Question struct {
	// ID is the stable, externally owned question identifier.
	ID int64
	// Prompt is the question text rendered in the title shape.
	Prompt string
	// Options holds 2 to 4 answer strings in display order.
	Options []string
	// Correct is the 0-based index of the correct option, nil when unknown.
	Correct *int
	// DurationSeconds overrides the configured countdown for this question.
	// nil falls back to the configured default; an explicit 0 disables it.
	DurationSeconds *int
	// ImageURL optionally references an illustration to embed on the slide.
	ImageURL string
	// Theme and BlockLetter are the two-part classification tag.
	Theme       string
	BlockLetter string
}

// Validate checks the option count bounds and prompt presence.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return services.Wrap(services.ErrValidation, "deck", "validate question", fmt.Sprintf("question %d has an empty prompt", q.ID), nil)
	}
	if len(q.Options) < 2 || len(q.Options) > 4 {
		return services.Wrap(services.ErrValidation, "deck", "validate question", fmt.Sprintf("question %d has %d options, want 2..4", q.ID, len(q.Options)), nil)
	}
	if q.Correct != nil && (*q.Correct < 0 || *q.Correct >= len(q.Options)) {
		return services.Wrap(services.ErrValidation, "deck", "validate question", fmt.Sprintf("question %d correct index %d out of range", q.ID, *q.Correct), nil)
	}
	if q.DurationSeconds != nil && *q.DurationSeconds < 0 {
		return services.Wrap(services.ErrValidation, "deck", "validate question", fmt.Sprintf("question %d has a negative duration", q.ID), nil)
	}
	return nil
}

// EffectiveDuration resolves the countdown for the question against the
// configured default. Zero means no countdown shape.
func (q Question) EffectiveDuration(defaultSeconds int) int {
	if q.DurationSeconds != nil {
		return *q.DurationSeconds
	}
	return defaultSeconds
}

// Mapping is the contract artifact recorded once per synthesized question
// slide and consumed unmodified during import.
type Mapping struct {
	QuestionID int64
	// SlideGUID joins generation and import. Empty when emission failed.
	SlideGUID string
	// Ordinal is 1-based and contiguous relative to the first question
	// slide; intro slides are excluded from the numbering.
	Ordinal     int
	Theme       string
	BlockLetter string
}

// BulletStyle selects the numbering scheme for option paragraphs.
type BulletStyle string

const (
	BulletArabicPeriod BulletStyle = "arabic-period"
	BulletArabicParen  BulletStyle = "arabic-paren"
	BulletAlphaPeriod  BulletStyle = "alpha-period"
	BulletRomanPeriod  BulletStyle = "roman-period"
)

// ParseBulletStyle maps a configuration string onto a style, defaulting to
// the Arabic period scheme for the empty string.
func ParseBulletStyle(value string) (BulletStyle, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(BulletArabicPeriod):
		return BulletArabicPeriod, nil
	case string(BulletArabicParen):
		return BulletArabicParen, nil
	case string(BulletAlphaPeriod):
		return BulletAlphaPeriod, nil
	case string(BulletRomanPeriod):
		return BulletRomanPeriod, nil
	default:
		return "", services.Wrap(services.ErrValidation, "deck", "parse bullet style", fmt.Sprintf("unsupported style %q", value), nil)
	}
}

// autoNumScheme maps the style onto the drawing dialect's auto-number token.
func (b BulletStyle) autoNumScheme() string {
	switch b {
	case BulletArabicParen:
		return "arabicParenR"
	case BulletAlphaPeriod:
		return "alphaUcPeriod"
	case BulletRomanPeriod:
		return "romanUcPeriod"
	default:
		return "arabicPeriod"
	}
}

// Weights renders the comma-joined positional scoring list for the question:
// full weight on the correct option, zero elsewhere. Without a known correct
// option every position scores zero.
func Weights(q Question, points int) string {
	parts := make([]string, len(q.Options))
	for i := range parts {
		if q.Correct != nil && *q.Correct == i {
			parts[i] = fmt.Sprintf("%d", points)
		} else {
			parts[i] = "0"
		}
	}
	return strings.Join(parts, ",")
}
