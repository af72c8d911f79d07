package form

import "fmt"

// Step identifies one screen of the application form.
type Step int

const (
	StepPersonal Step = iota
	StepExperience
	StepDocuments
	StepReview
)

// StepCount is the number of steps in the form.
const StepCount = 4

type stepDescriptor struct {
	name  string
	label string
	valid func(*FormData) bool
}

// Dispatch table; indexed by Step, so order must match the constants.
var steps = [StepCount]stepDescriptor{
	StepPersonal:   {name: "personal", label: "Personal Info", valid: personalValid},
	StepExperience: {name: "experience", label: "Experience", valid: experienceValid},
	StepDocuments:  {name: "documents", label: "Documents", valid: documentsValid},
	StepReview:     {name: "review", label: "Review", valid: reviewValid},
}

// Valid reports whether s is one of the four steps.
func (s Step) Valid() bool {
	return s >= StepPersonal && s <= StepReview
}

func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return steps[s].name
}

// Label is the human readable name shown by the progress bar.
func (s Step) Label() string {
	if !s.Valid() {
		return ""
	}
	return steps[s].label
}

// IsStepValid evaluates the step's own predicate against fd. Out-of-range steps
// are never valid.
func (s Step) IsStepValid(fd *FormData) bool {
	if !s.Valid() || fd == nil {
		return false
	}
	return steps[s].valid(fd)
}

// Labels returns the step labels in order.
func Labels() []string {
	out := make([]string, StepCount)
	for i, d := range steps {
		out[i] = d.label
	}
	return out
}

// ParseStep maps a step name back to its Step.
func ParseStep(name string) (Step, bool) {
	for i, d := range steps {
		if d.name == name {
			return Step(i), true
		}
	}
	return 0, false
}

func personalValid(fd *FormData) bool {
	return fd.FirstName != "" && fd.LastName != "" && fd.Email != "" && fd.Phone != ""
}

func experienceValid(fd *FormData) bool {
	return fd.YearsExperience != "" && fd.Education != ""
}

func documentsValid(fd *FormData) bool {
	return fd.Resume != nil
}

// The review step has no gate of its own; submission is guarded by the wizard.
func reviewValid(*FormData) bool {
	return true
}
