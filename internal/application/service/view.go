package service

import (
	"careerflow/internal/application/form"
	"careerflow/internal/application/progress"
	"careerflow/internal/application/upload"
	"careerflow/internal/application/wizard"
)

// StepStatus is one step as the client renders it.
type StepStatus struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Valid bool   `json:"valid"`
}

// DocumentSlot tells the client what each upload control accepts.
type DocumentSlot struct {
	Field         string   `json:"field"`
	AcceptedTypes []string `json:"acceptedTypes"`
	MaxSizeMB     int      `json:"maxSizeMB"`
	Required      bool     `json:"required"`
}

// View is the session as returned by the API. File contents are never included.
type View struct {
	ID          string         `json:"id"`
	JobID       string         `json:"jobId,omitempty"`
	JobTitle    string         `json:"jobTitle,omitempty"`
	CurrentStep int            `json:"currentStep"`
	StepName    string         `json:"stepName"`
	CanGoNext   bool           `json:"canGoNext"`
	CanGoBack   bool           `json:"canGoBack"`
	CanSubmit   bool           `json:"canSubmit"`
	Submitting  bool           `json:"submitting"`
	Steps       []StepStatus   `json:"steps"`
	Progress    progress.View  `json:"progress"`
	Documents   []DocumentSlot `json:"documents"`
	Data        *form.FormData `json:"data"`
}

// buildView renders w. submitting is true while any request, here or on
// another replica, is submitting the session.
func buildView(w *wizard.Wizard, jobTitle string, submitting bool) *View {
	step := w.CurrentStep()
	data := w.Data()
	if data == nil {
		data = form.New()
	}

	v := &View{
		ID:          w.ID(),
		JobID:       w.JobID(),
		JobTitle:    jobTitle,
		CurrentStep: int(step),
		StepName:    step.String(),
		CanGoBack:   step > form.StepPersonal,
		Submitting:  submitting,
		Progress:    progress.Derive(int(step), form.StepCount, form.Labels()),
		Data:        data.WithoutFileData(),
	}

	for s := form.StepPersonal; s <= form.StepReview; s++ {
		v.Steps = append(v.Steps, StepStatus{Name: s.String(), Label: s.Label(), Valid: s.IsStepValid(data)})
	}
	v.CanGoNext = step < form.StepReview && step.IsStepValid(data)
	v.CanSubmit = step == form.StepReview && !submitting

	for _, name := range upload.SlotNames() {
		slot, _ := upload.SlotFor(name)
		v.Documents = append(v.Documents, DocumentSlot{
			Field:         slot.Field,
			AcceptedTypes: slot.AcceptedTypes,
			MaxSizeMB:     slot.MaxSizeMB,
			Required:      slot.Required,
		})
	}
	return v
}
