package deck

import (
	"errors"
	"testing"

	"pollkit/internal/services"
)

func TestQuestionValidate(t *testing.T) {
	valid := Question{ID: 1, Prompt: "Capital of France?", Options: []string{"Paris", "Lyon", "Nice"}, Correct: intPtr(0)}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}

	cases := []struct {
		name string
		q    Question
	}{
		{"empty prompt", Question{ID: 2, Prompt: "  ", Options: []string{"a", "b"}}},
		{"one option", Question{ID: 3, Prompt: "Q", Options: []string{"a"}}},
		{"five options", Question{ID: 4, Prompt: "Q", Options: []string{"a", "b", "c", "d", "e"}}},
		{"correct out of range", Question{ID: 5, Prompt: "Q", Options: []string{"a", "b"}, Correct: intPtr(2)}},
		{"negative duration", Question{ID: 6, Prompt: "Q", Options: []string{"a", "b"}, DurationSeconds: intPtr(-1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.q.Validate(); !errors.Is(err, services.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestEffectiveDuration(t *testing.T) {
	q := Question{ID: 1, Prompt: "Q", Options: []string{"a", "b"}}
	if got := q.EffectiveDuration(30); got != 30 {
		t.Errorf("default duration %d, want 30", got)
	}
	q.DurationSeconds = intPtr(45)
	if got := q.EffectiveDuration(30); got != 45 {
		t.Errorf("override duration %d, want 45", got)
	}
	q.DurationSeconds = intPtr(0)
	if got := q.EffectiveDuration(30); got != 0 {
		t.Errorf("explicit zero should disable the countdown, got %d", got)
	}
}

func TestParseBulletStyle(t *testing.T) {
	cases := map[string]BulletStyle{
		"":              BulletArabicPeriod,
		"arabic-period": BulletArabicPeriod,
		"arabic-paren":  BulletArabicParen,
		"alpha-period":  BulletAlphaPeriod,
		"Roman-Period":  BulletRomanPeriod,
	}
	for input, want := range cases {
		got, err := ParseBulletStyle(input)
		if err != nil {
			t.Errorf("ParseBulletStyle(%q): %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseBulletStyle(%q) = %v, want %v", input, got, want)
		}
	}
	if _, err := ParseBulletStyle("squares"); !errors.Is(err, services.ErrValidation) {
		t.Errorf("expected validation error for unknown style, got %v", err)
	}
}

func TestAutoNumScheme(t *testing.T) {
	cases := map[BulletStyle]string{
		BulletArabicPeriod: "arabicPeriod",
		BulletArabicParen:  "arabicParenR",
		BulletAlphaPeriod:  "alphaUcPeriod",
		BulletRomanPeriod:  "romanUcPeriod",
	}
	for style, want := range cases {
		if got := style.autoNumScheme(); got != want {
			t.Errorf("%v scheme = %q, want %q", style, got, want)
		}
	}
}

func TestWeights(t *testing.T) {
	q := Question{Options: []string{"a", "b", "c"}, Correct: intPtr(1)}
	if got := Weights(q, 10); got != "0,10,0" {
		t.Errorf("Weights = %q, want 0,10,0", got)
	}
	q.Correct = nil
	if got := Weights(q, 10); got != "0,0,0" {
		t.Errorf("Weights without correct option = %q, want 0,0,0", got)
	}
}
