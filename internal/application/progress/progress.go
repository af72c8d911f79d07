// Package progress derives the progress bar view from the current step.
package progress

import "math"

// State of one indicator.
type State string

const (
	Completed State = "completed"
	Active    State = "active"
	Pending   State = "pending"
)

type Indicator struct {
	Index int    `json:"index"`
	Label string `json:"label"`
	State State  `json:"state"`
}

// View is everything the progress bar shows. It holds no state of its own.
type View struct {
	CurrentStep int         `json:"currentStep"`
	TotalSteps  int         `json:"totalSteps"`
	Percent     int         `json:"percent"`
	Steps       []Indicator `json:"steps"`
}

// Derive builds the view for current out of total steps. Missing labels are
// left empty.
func Derive(current, total int, labels []string) View {
	v := View{CurrentStep: current, TotalSteps: total}
	if total <= 0 {
		return v
	}

	v.Percent = int(math.Round(float64(current+1) / float64(total) * 100))
	v.Steps = make([]Indicator, total)
	for i := 0; i < total; i++ {
		ind := Indicator{Index: i, State: Pending}
		if i < len(labels) {
			ind.Label = labels[i]
		}
		switch {
		case i < current:
			ind.State = Completed
		case i == current:
			ind.State = Active
		}
		v.Steps[i] = ind
	}
	return v
}
