package deck

import "fmt"

// Role tags one entry of the slide plan.
type Role int

const (
	RoleIntroTitle Role = iota
	RoleIntroRoster
	RoleQuestion
)

func (r Role) String() string {
	switch r {
	case RoleIntroTitle:
		return "intro-title"
	case RoleIntroRoster:
		return "intro-roster"
	case RoleQuestion:
		return "question"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Descriptor is one planned slide. BatchIndex is 1-based within the question
// slides of the current generation call and zero for intro slides.
type Descriptor struct {
	Role       Role
	Question   *Question
	BatchIndex int
}

// Plan is the single authoritative ordering for a generation call: intro
// slides first, then one question slide per input question. Every component
// that needs a slide position derives it from here instead of inferring it
// from array indices.
type Plan struct {
	// ExistingSlides counts the slides already present in the template.
	ExistingSlides int
	Slides         []Descriptor
}

// BuildPlan assembles the plan from the configuration toggles and the
// selected question set.
func BuildPlan(existingSlides int, introTitle, introRoster bool, questions []Question) Plan {
	plan := Plan{ExistingSlides: existingSlides}
	if introTitle {
		plan.Slides = append(plan.Slides, Descriptor{Role: RoleIntroTitle})
	}
	if introRoster {
		plan.Slides = append(plan.Slides, Descriptor{Role: RoleIntroRoster})
	}
	for i := range questions {
		plan.Slides = append(plan.Slides, Descriptor{
			Role:       RoleQuestion,
			Question:   &questions[i],
			BatchIndex: i + 1,
		})
	}
	return plan
}

// IntroCount reports how many intro slides precede the question range.
func (p Plan) IntroCount() int {
	count := 0
	for _, d := range p.Slides {
		if d.Role != RoleQuestion {
			count++
		}
	}
	return count
}

// QuestionCount reports the number of question slides in the plan.
func (p Plan) QuestionCount() int {
	return len(p.Slides) - p.IntroCount()
}

// PartPosition returns the slide part number for plan entry i. Part numbers
// continue after the template's own slide parts so names never collide.
func (p Plan) PartPosition(i int) int {
	return p.ExistingSlides + i + 1
}

// PartName returns the package part name for plan entry i.
func (p Plan) PartName(i int) string {
	return fmt.Sprintf("ppt/slides/slide%d.xml", p.PartPosition(i))
}

// IntroTargets lists the document-relative targets of the planned intro
// slides, in insertion order.
func (p Plan) IntroTargets() []string {
	var targets []string
	for i, d := range p.Slides {
		if d.Role != RoleQuestion {
			targets = append(targets, fmt.Sprintf("slides/slide%d.xml", p.PartPosition(i)))
		}
	}
	return targets
}

// QuestionTargets lists the document-relative targets of the planned
// question slides, in order.
func (p Plan) QuestionTargets() []string {
	var targets []string
	for i, d := range p.Slides {
		if d.Role == RoleQuestion {
			targets = append(targets, fmt.Sprintf("slides/slide%d.xml", p.PartPosition(i)))
		}
	}
	return targets
}
