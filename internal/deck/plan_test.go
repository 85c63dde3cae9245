package deck

import (
	"reflect"
	"testing"
)

func TestBuildPlanOrdering(t *testing.T) {
	questions := []Question{
		{ID: 10, Prompt: "First?", Options: []string{"a", "b"}},
		{ID: 20, Prompt: "Second?", Options: []string{"a", "b"}},
	}
	plan := BuildPlan(3, true, true, questions)

	if len(plan.Slides) != 4 {
		t.Fatalf("expected 4 planned slides, got %d", len(plan.Slides))
	}
	wantRoles := []Role{RoleIntroTitle, RoleIntroRoster, RoleQuestion, RoleQuestion}
	for i, d := range plan.Slides {
		if d.Role != wantRoles[i] {
			t.Errorf("slide %d: role %v, want %v", i, d.Role, wantRoles[i])
		}
	}
	if plan.Slides[2].BatchIndex != 1 || plan.Slides[3].BatchIndex != 2 {
		t.Errorf("batch indexes %d, %d; want 1, 2", plan.Slides[2].BatchIndex, plan.Slides[3].BatchIndex)
	}
	if plan.Slides[2].Question.ID != 10 {
		t.Errorf("question order not preserved: got id %d", plan.Slides[2].Question.ID)
	}
	if plan.IntroCount() != 2 || plan.QuestionCount() != 2 {
		t.Errorf("counts: intro %d question %d", plan.IntroCount(), plan.QuestionCount())
	}
}

func TestPlanPartNamesContinueAfterTemplate(t *testing.T) {
	plan := BuildPlan(3, true, false, []Question{{ID: 1, Prompt: "Q", Options: []string{"a", "b"}}})

	if got := plan.PartPosition(0); got != 4 {
		t.Errorf("first planned slide position %d, want 4", got)
	}
	if got := plan.PartName(1); got != "ppt/slides/slide5.xml" {
		t.Errorf("part name %q", got)
	}
	if got := plan.IntroTargets(); !reflect.DeepEqual(got, []string{"slides/slide4.xml"}) {
		t.Errorf("intro targets %v", got)
	}
	if got := plan.QuestionTargets(); !reflect.DeepEqual(got, []string{"slides/slide5.xml"}) {
		t.Errorf("question targets %v", got)
	}
}

func TestBuildPlanWithoutIntros(t *testing.T) {
	plan := BuildPlan(0, false, false, []Question{
		{ID: 1, Prompt: "Q", Options: []string{"a", "b"}},
	})
	if plan.IntroCount() != 0 {
		t.Fatalf("expected no intro slides, got %d", plan.IntroCount())
	}
	if got := plan.PartName(0); got != "ppt/slides/slide1.xml" {
		t.Errorf("part name %q", got)
	}
	if plan.Slides[0].BatchIndex != 1 {
		t.Errorf("batch index %d, want 1", plan.Slides[0].BatchIndex)
	}
}
