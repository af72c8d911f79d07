// Package wizard is the orchestrator of one application session: it owns the
// form aggregate, the current step and the submission guard.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"careerflow/internal/application/form"
	"careerflow/internal/common/logger"
)

var (
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrSessionClosed      = errors.New("application already submitted")
	ErrSubmissionFailed   = errors.New("submission failed")
)

// DefaultConfirmationRoute is where the applicant is sent after a successful submit.
const DefaultConfirmationRoute = "/application-success"

// Submission is the payload handed to the submission boundary.
type Submission struct {
	ID          string
	SessionID   string
	JobID       string
	Data        *form.FormData
	SubmittedAt time.Time
}

// Submitter performs one remote submission attempt. A nil error means the
// boundary accepted the application.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub Submission) error

func (f SubmitterFunc) Submit(ctx context.Context, sub Submission) error { return f(ctx, sub) }

// Result of a successful submit.
type Result struct {
	SubmissionID string
	Redirect     string
}

// State is the persistable part of a wizard. Version is the store revision the
// state was loaded at; stores use it to refuse writes based on stale reads.
type State struct {
	ID          string         `json:"id"`
	Version     int64          `json:"version"`
	JobID       string         `json:"jobId,omitempty"`
	CurrentStep form.Step      `json:"currentStep"`
	Data        *form.FormData `json:"data"`
	Finished    bool           `json:"finished"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type Option func(*Wizard)

func WithJobID(jobID string) Option {
	return func(w *Wizard) { w.jobID = jobID }
}

func WithConfirmationRoute(route string) Option {
	return func(w *Wizard) {
		if route != "" {
			w.confirmationRoute = route
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// Wizard is safe for concurrent use.
type Wizard struct {
	mu sync.Mutex

	id         string
	version    int64
	jobID      string
	data       *form.FormData
	step       form.Step
	submitting bool
	finished   bool
	createdAt  time.Time
	updatedAt  time.Time

	submitter         Submitter
	confirmationRoute string
	now               func() time.Time
	logger            logger.Logger
}

// New starts a fresh session on the first step with an empty aggregate.
func New(id string, submitter Submitter, log logger.Logger, opts ...Option) *Wizard {
	w := &Wizard{
		id:                id,
		data:              form.New(),
		step:              form.StepPersonal,
		submitter:         submitter,
		confirmationRoute: DefaultConfirmationRoute,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = log.WithFields(map[string]interface{}{"component": "wizard", "sessionId": id})
	w.createdAt = w.now().UTC()
	w.updatedAt = w.createdAt
	return w
}

// Restore rebuilds a wizard from persisted state. An out-of-range step is
// clamped back into bounds.
func Restore(st State, submitter Submitter, log logger.Logger, opts ...Option) *Wizard {
	w := New(st.ID, submitter, log, append([]Option{WithJobID(st.JobID)}, opts...)...)
	if st.Data != nil {
		w.data = st.Data.Clone()
	}
	w.version = st.Version
	w.step = clamp(st.CurrentStep)
	w.finished = st.Finished
	if w.finished {
		w.data = nil
	}
	if !st.CreatedAt.IsZero() {
		w.createdAt = st.CreatedAt
	}
	if !st.UpdatedAt.IsZero() {
		w.updatedAt = st.UpdatedAt
	}
	return w
}

func (w *Wizard) ID() string { return w.id }

func (w *Wizard) JobID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.jobID
}

func (w *Wizard) CurrentStep() form.Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

func (w *Wizard) IsSubmitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

func (w *Wizard) Finished() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.finished
}

// Data returns a copy of the aggregate, or nil once the application is submitted.
func (w *Wizard) Data() *form.FormData {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.data == nil {
		return nil
	}
	return w.data.Clone()
}

// StepValid evaluates a step predicate against the current aggregate.
func (w *Wizard) StepValid(s form.Step) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.data == nil {
		return false
	}
	return s.IsStepValid(w.data)
}

// NextStep advances one step. It is a no-op on the last step and never looks
// at the step predicates; callers gate it.
func (w *Wizard) NextStep() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return ErrSessionClosed
	}
	if w.step < form.StepReview {
		w.step++
		w.touch()
	}
	return nil
}

// PrevStep goes back one step. It is a no-op on the first step.
func (w *Wizard) PrevStep() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return ErrSessionClosed
	}
	if w.step > form.StepPersonal {
		w.step--
		w.touch()
	}
	return nil
}

// Update applies the changes in order through the reducer, all or nothing.
func (w *Wizard) Update(changes ...form.FieldChanged) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return ErrSessionClosed
	}
	if err := form.ApplyAll(w.data, changes...); err != nil {
		return err
	}
	w.touch()
	return nil
}

// AddSkill reports whether the skill list changed.
func (w *Wizard) AddSkill(skill string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return false, ErrSessionClosed
	}
	added := form.AddSkill(w.data, skill)
	if added {
		w.touch()
	}
	return added, nil
}

func (w *Wizard) RemoveSkill(skill string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return false, ErrSessionClosed
	}
	removed := form.RemoveSkill(w.data, skill)
	if removed {
		w.touch()
	}
	return removed, nil
}

// AddCertification reports whether the certification list changed.
func (w *Wizard) AddCertification(cert string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return false, ErrSessionClosed
	}
	added := form.AddCertification(w.data, cert)
	if added {
		w.touch()
	}
	return added, nil
}

func (w *Wizard) RemoveCertification(cert string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finished {
		return false, ErrSessionClosed
	}
	removed := form.RemoveCertification(w.data, cert)
	if removed {
		w.touch()
	}
	return removed, nil
}

// SetDocument is the onFileSelect target of a document slot. A nil file clears it.
func (w *Wizard) SetDocument(field string, f *form.File) error {
	if !form.IsFileField(field) {
		return fmt.Errorf("%w: %q", form.ErrUnknownField, field)
	}
	return w.Update(form.FieldChanged{Field: field, Value: f})
}

// Snapshot captures the persistable state.
func (w *Wizard) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := State{
		ID:          w.id,
		Version:     w.version,
		JobID:       w.jobID,
		CurrentStep: w.step,
		Finished:    w.finished,
		CreatedAt:   w.createdAt,
		UpdatedAt:   w.updatedAt,
	}
	if w.data != nil {
		st.Data = w.data.Clone()
	}
	return st
}

// Submit sends the whole aggregate to the submitter once. A second call while
// one is in flight returns ErrSubmissionInFlight without reaching the
// submitter. On failure the guard is released and the step is left as is; on
// success the aggregate is discarded and the wizard is closed.
func (w *Wizard) Submit(ctx context.Context) (Result, error) {
	w.mu.Lock()
	if w.finished {
		w.mu.Unlock()
		return Result{}, ErrSessionClosed
	}
	if w.submitting {
		w.mu.Unlock()
		return Result{}, ErrSubmissionInFlight
	}
	w.submitting = true
	sub := Submission{
		ID:          uuid.NewString(),
		SessionID:   w.id,
		JobID:       w.jobID,
		Data:        w.data.Clone(),
		SubmittedAt: w.now().UTC(),
	}
	w.mu.Unlock()

	err := w.submitter.Submit(ctx, sub)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false

	if err != nil {
		w.logger.WithError(err).Error("Application submission failed", map[string]interface{}{
			"submissionId": sub.ID,
			"step":         w.step.String(),
		})
		return Result{}, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	w.finished = true
	w.data = nil
	w.touch()
	w.logger.Info("Application submitted", map[string]interface{}{"submissionId": sub.ID})
	return Result{SubmissionID: sub.ID, Redirect: w.confirmationRoute}, nil
}

func (w *Wizard) touch() {
	w.updatedAt = w.now().UTC()
}

func clamp(s form.Step) form.Step {
	switch {
	case s < form.StepPersonal:
		return form.StepPersonal
	case s > form.StepReview:
		return form.StepReview
	}
	return s
}
