// Package service runs application sessions: it loads the wizard for a
// session, applies one action, persists the result and, after a successful
// submission, records the application and notifies the people involved.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"careerflow/internal/application/form"
	"careerflow/internal/application/session"
	"careerflow/internal/application/upload"
	"careerflow/internal/application/wizard"
	apperrors "careerflow/internal/common/errors"
	httpclient "careerflow/internal/common/http"
	"careerflow/internal/common/logger"
	"careerflow/internal/common/metrics"
	"careerflow/internal/common/observability"
	"careerflow/internal/common/validation"
	"careerflow/internal/models"
	"careerflow/internal/notify"
	"careerflow/internal/store"
)

// JobLookup resolves the job an application refers to.
type JobLookup interface {
	GetByID(ctx context.Context, id string) (*models.Job, error)
	ListActive(ctx context.Context, limit int) ([]models.Job, error)
}

// ApplicationRecorder keeps the record of an accepted application.
type ApplicationRecorder interface {
	Create(ctx context.Context, rec *models.ApplicationRecord) error
}

// Notifier sends the post-submission messages.
type Notifier interface {
	ApplicationSubmitted(ctx context.Context, notice notify.ApplicationNotice) []models.Notification
}

// SubmissionMetrics records submission outcomes.
type SubmissionMetrics interface {
	RecordSubmission(ctx context.Context, duration time.Duration, result string)
	RecordSideEffectFailure(ctx context.Context, step string)
}

// maxSaveAttempts bounds how often one action is replayed after losing a save race.
const maxSaveAttempts = 3

type Config struct {
	ConfirmationRoute string
}

// Deps are the collaborators of the service. Jobs, Records, Notifier and
// Metrics are optional.
type Deps struct {
	Store     session.Store
	Submitter wizard.Submitter
	Jobs      JobLookup
	Records   ApplicationRecorder
	Notifier  Notifier
	Metrics   SubmissionMetrics
	Clock     upload.Clock
}

// SubmitResult is returned to the applicant after an accepted submission.
type SubmitResult struct {
	Status       string `json:"status"`
	Redirect     string `json:"redirect"`
	SubmissionID string `json:"submissionId"`
}

type Service struct {
	cfg    Config
	deps   Deps
	logger logger.Logger
	now    func() time.Time
}

func New(cfg Config, deps Deps, log logger.Logger) *Service {
	if cfg.ConfirmationRoute == "" {
		cfg.ConfirmationRoute = wizard.DefaultConfirmationRoute
	}
	if deps.Clock == nil {
		deps.Clock = upload.RealClock()
	}
	return &Service{
		cfg:    cfg,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "application-service"}),
		now:    time.Now,
	}
}

// Start opens a new session with an empty form on the first step. jobID is
// optional and never validated.
func (s *Service) Start(ctx context.Context, jobID string) (*View, error) {
	id := uuid.New().String()
	w := wizard.New(id, s.deps.Submitter, s.logger,
		wizard.WithJobID(strings.TrimSpace(jobID)),
		wizard.WithConfirmationRoute(s.cfg.ConfirmationRoute),
		wizard.WithClock(s.now),
	)
	if err := s.deps.Store.Create(ctx, w.Snapshot()); err != nil {
		return nil, s.mapError(id, err)
	}
	metrics.SessionsStarted.Inc()
	s.logger.Info("application session started", map[string]interface{}{
		"sessionId": id,
		"jobId":     jobID,
	})
	return s.view(ctx, w), nil
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	w, err := s.load(ctx, id, s.deps.Submitter)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, w), nil
}

// Patch applies a shallow patch of fields. Keys absent from the patch are kept.
func (s *Service) Patch(ctx context.Context, id string, patch map[string]interface{}) (*View, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) error {
		return w.Update(form.FromPatch(patch)...)
	})
}

func (s *Service) AddSkill(ctx context.Context, id, skill string) (*View, error) {
	if strings.TrimSpace(skill) == "" {
		return nil, apperrors.NewValidationError("skill must not be empty")
	}
	return s.mutate(ctx, id, func(w *wizard.Wizard) error {
		_, err := w.AddSkill(skill)
		return err
	})
}

func (s *Service) RemoveSkill(ctx context.Context, id, skill string) (*View, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) error {
		_, err := w.RemoveSkill(skill)
		return err
	})
}

func (s *Service) AddCertification(ctx context.Context, id, cert string) (*View, error) {
	if strings.TrimSpace(cert) == "" {
		return nil, apperrors.NewValidationError("certification must not be empty")
	}
	return s.mutate(ctx, id, func(w *wizard.Wizard) error {
		_, err := w.AddCertification(cert)
		return err
	})
}

func (s *Service) RemoveCertification(ctx context.Context, id, cert string) (*View, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) error {
		_, err := w.RemoveCertification(cert)
		return err
	})
}

// Next advances when the current step is complete; an incomplete step is
// refused the way a disabled Next button would be.
func (s *Service) Next(ctx context.Context, id string) (*View, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) error {
		if w.Finished() {
			return wizard.ErrSessionClosed
		}
		step := w.CurrentStep()
		if step == form.StepReview {
			return nil
		}
		if !w.StepValid(step) {
			metrics.StepRejections.WithLabelValues(step.String()).Inc()
			return apperrors.NewStepInvalidError(step.String())
		}
		if err := w.NextStep(); err != nil {
			return err
		}
		metrics.StepTransitions.WithLabelValues("next", step.String()).Inc()
		return nil
	})
}

func (s *Service) Prev(ctx context.Context, id string) (*View, error) {
	return s.mutate(ctx, id, func(w *wizard.Wizard) error {
		step := w.CurrentStep()
		if err := w.PrevStep(); err != nil {
			return err
		}
		if step > form.StepPersonal {
			metrics.StepTransitions.WithLabelValues("prev", step.String()).Inc()
		}
		return nil
	})
}

// Upload runs the slot's upload control and stores the accepted file. A
// rejected file leaves the previous selection in place.
func (s *Service) Upload(ctx context.Context, id, field string, file *form.File) (*View, error) {
	slot, ok := upload.SlotFor(field)
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("Document slot", field)
	}
	if file != nil && (file.ContentType == "" || file.ContentType == "application/octet-stream") && len(file.Data) > 0 {
		file.ContentType = mimetype.Detect(file.Data).String()
	}

	return s.mutate(ctx, id, func(w *wizard.Wizard) error {
		if w.Finished() {
			return wizard.ErrSessionClosed
		}
		var setErr error
		err := slot.Control(s.deps.Clock).Select(ctx, file, func(f *form.File) {
			setErr = w.SetDocument(field, f)
		})
		switch {
		case err != nil:
			metrics.Uploads.WithLabelValues(field, uploadResult(err)).Inc()
			return err
		case setErr != nil:
			return setErr
		}
		metrics.Uploads.WithLabelValues(field, "accepted").Inc()
		return nil
	})
}

func (s *Service) RemoveDocument(ctx context.Context, id, field string) (*View, error) {
	slot, ok := upload.SlotFor(field)
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("Document slot", field)
	}
	return s.mutate(ctx, id, func(w *wizard.Wizard) error {
		var setErr error
		slot.Control(s.deps.Clock).Remove(func(f *form.File) {
			setErr = w.SetDocument(field, f)
		})
		return setErr
	})
}

// Abandon discards the session and everything collected in it.
func (s *Service) Abandon(ctx context.Context, id string) error {
	if _, err := s.deps.Store.Load(ctx, id); err != nil {
		return s.mapError(id, err)
	}
	if err := s.deps.Store.Delete(ctx, id); err != nil {
		return s.mapError(id, err)
	}
	s.logger.Info("application session abandoned", map[string]interface{}{"sessionId": id})
	return nil
}

// Submit sends the application once. Concurrent calls for the same session,
// from either submit action or another replica, get SUBMISSION_IN_FLIGHT.
func (s *Service) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	acquired, err := s.deps.Store.AcquireSubmit(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if !acquired {
		s.recordSubmission(ctx, 0, observability.ResultInFlight)
		return nil, apperrors.NewSubmissionInFlightError()
	}
	defer func() {
		if err := s.deps.Store.ReleaseSubmit(context.WithoutCancel(ctx), id); err != nil {
			s.logger.Warn("failed to release submit lock", map[string]interface{}{
				"error":     err,
				"sessionId": id,
			})
		}
	}()

	// Loaded under the lock so a submission that just finished is seen as closed.
	capture := &capturingSubmitter{next: s.deps.Submitter}
	w, err := s.load(ctx, id, capture)
	if err != nil {
		return nil, err
	}
	if w.Finished() {
		return nil, apperrors.NewSessionClosedError(id)
	}

	metrics.SubmissionsInFlight.Inc()
	started := s.now()
	res, err := w.Submit(ctx)
	elapsed := s.now().Sub(started)
	metrics.SubmissionsInFlight.Dec()

	if err != nil {
		result := observability.ResultFailure
		if httpclient.IsTimeout(err) {
			result = observability.ResultTimeout
		}
		s.recordSubmission(ctx, elapsed, result)
		return nil, s.mapError(id, err)
	}
	s.recordSubmission(ctx, elapsed, observability.ResultSuccess)

	s.afterSubmit(context.WithoutCancel(ctx), capture.submission)

	// The closed state carries no form data and stays until the session
	// expires, so later actions get SESSION_CLOSED instead of SESSION_NOT_FOUND.
	if err := s.deps.Store.Close(context.WithoutCancel(ctx), w.Snapshot()); err != nil {
		s.logger.Warn("failed to close submitted session", map[string]interface{}{
			"error":     err,
			"sessionId": id,
		})
	}

	return &SubmitResult{
		Status:       "submitted",
		Redirect:     res.Redirect,
		SubmissionID: res.SubmissionID,
	}, nil
}

// Job returns display context for a job id.
func (s *Service) Job(ctx context.Context, id string) (*models.Job, error) {
	if s.deps.Jobs == nil {
		return nil, apperrors.NewResourceNotFoundError("Job", id)
	}
	job, err := s.deps.Jobs.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(id, err)
	}
	return job, nil
}

func (s *Service) Jobs(ctx context.Context, limit int) ([]models.Job, error) {
	if s.deps.Jobs == nil {
		return []models.Job{}, nil
	}
	jobs, err := s.deps.Jobs.ListActive(ctx, limit)
	if err != nil {
		return nil, s.mapError("", err)
	}
	return jobs, nil
}

// afterSubmit records the application and sends notifications. Nothing here
// can change the outcome of the submission.
func (s *Service) afterSubmit(ctx context.Context, sub *wizard.Submission) {
	if sub == nil || sub.Data == nil {
		return
	}
	fd := sub.Data

	if s.deps.Records != nil {
		rec := &models.ApplicationRecord{
			SubmissionID:    sub.ID,
			SessionID:       sub.SessionID,
			JobID:           sub.JobID,
			ApplicantName:   fd.FullName(),
			Email:           fd.Email,
			Phone:           fd.Phone,
			YearsExperience: fd.YearsExperience,
			Education:       fd.Education,
			Skills:          fd.Skills,
			Documents:       documentNames(fd),
			Status:          models.ApplicationStatusSubmitted,
			CreatedAt:       sub.SubmittedAt,
		}
		if err := s.deps.Records.Create(ctx, rec); err != nil {
			s.sideEffectFailed(ctx, "record", sub, err)
		}
	}

	if s.deps.Notifier != nil {
		notice := notify.ApplicationNotice{
			SubmissionID:  sub.ID,
			FirstName:     fd.FirstName,
			ApplicantName: fd.FullName(),
			Email:         fd.Email,
			JobID:         sub.JobID,
			JobTitle:      s.jobTitle(ctx, sub.JobID),
		}
		for _, n := range s.deps.Notifier.ApplicationSubmitted(ctx, notice) {
			if n.Status == models.NotificationStatusFailed {
				s.sideEffectFailed(ctx, n.Channel, sub, apperrors.NewNotificationSendFailedError(n.Channel, errors.New(n.Error)))
			}
		}
	}
}

func (s *Service) sideEffectFailed(ctx context.Context, step string, sub *wizard.Submission, err error) {
	s.logger.Warn("post-submission step failed", map[string]interface{}{
		"step":         step,
		"error":        err,
		"submissionId": sub.ID,
		"sessionId":    sub.SessionID,
	})
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordSideEffectFailure(ctx, step)
	}
}

func (s *Service) recordSubmission(ctx context.Context, d time.Duration, result string) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordSubmission(ctx, d, result)
	}
}

// mutate loads the session, applies fn and saves the new state when fn
// succeeds. A save that lost a race with another request is retried on a fresh
// load, so fn must be safe to run again.
func (s *Service) mutate(ctx context.Context, id string, fn func(w *wizard.Wizard) error) (*View, error) {
	for attempt := 1; ; attempt++ {
		w, err := s.load(ctx, id, s.deps.Submitter)
		if err != nil {
			return nil, err
		}
		if err := fn(w); err != nil {
			return nil, s.mapError(id, err)
		}
		err = s.deps.Store.Save(ctx, w.Snapshot())
		if errors.Is(err, session.ErrConflict) && attempt < maxSaveAttempts {
			s.logger.Debug("session changed concurrently, retrying", map[string]interface{}{
				"sessionId": id,
				"attempt":   attempt,
			})
			continue
		}
		if err != nil {
			return nil, s.mapError(id, err)
		}
		return s.view(ctx, w), nil
	}
}

func (s *Service) load(ctx context.Context, id string, submitter wizard.Submitter) (*wizard.Wizard, error) {
	st, err := s.deps.Store.Load(ctx, id)
	if err != nil {
		return nil, s.mapError(id, err)
	}
	return wizard.Restore(st, submitter, s.logger,
		wizard.WithConfirmationRoute(s.cfg.ConfirmationRoute),
		wizard.WithClock(s.now),
	), nil
}

func (s *Service) view(ctx context.Context, w *wizard.Wizard) *View {
	return buildView(w, s.jobTitle(ctx, w.JobID()), w.IsSubmitting() || s.inFlight(ctx, w.ID()))
}

// inFlight reports whether another request holds the submit lock. A failing
// check shows the session as idle; Submit still refuses a second attempt.
func (s *Service) inFlight(ctx context.Context, id string) bool {
	held, err := s.deps.Store.IsSubmitting(ctx, id)
	if err != nil {
		s.logger.Warn("submit lock check failed", map[string]interface{}{"error": err, "sessionId": id})
		return false
	}
	return held
}

// jobTitle is display only; a missing or failing lookup yields "".
func (s *Service) jobTitle(ctx context.Context, jobID string) string {
	if jobID == "" || s.deps.Jobs == nil {
		return ""
	}
	job, err := s.deps.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("job lookup failed", map[string]interface{}{"jobId": jobID, "error": err})
		}
		return ""
	}
	return job.Title
}

// mapError turns domain errors into the StandardError the API renders.
func (s *Service) mapError(id string, err error) error {
	var (
		stdErr   *apperrors.StandardError
		rejected *upload.RejectedError
		verr     *validation.Error
	)
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, session.ErrNotFound):
		return apperrors.NewSessionNotFoundError(id)
	case errors.Is(err, wizard.ErrSessionClosed), errors.Is(err, session.ErrClosed):
		return apperrors.NewSessionClosedError(id)
	case errors.Is(err, session.ErrConflict):
		return apperrors.NewSessionConflictError(id)
	case errors.Is(err, wizard.ErrSubmissionInFlight):
		return apperrors.NewSubmissionInFlightError()
	case errors.Is(err, wizard.ErrSubmissionFailed):
		if httpclient.IsTimeout(err) {
			return apperrors.NewWebhookTimeoutError(err)
		}
		return apperrors.NewSubmissionFailedError(err)
	case errors.As(err, &rejected):
		code := apperrors.ErrCodeFileTypeNotSupported
		if errors.Is(err, upload.ErrFileTooLarge) {
			code = apperrors.ErrCodeFileTooLarge
		}
		return apperrors.NewFileRejectedError(code, rejected.Message)
	case errors.Is(err, form.ErrUnknownField), errors.Is(err, form.ErrInvalidValue):
		return apperrors.NewValidationError(err.Error())
	case errors.As(err, &verr):
		return apperrors.NewValidationError(verr.Error())
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewResourceNotFoundError("Job", id)
	case errors.Is(err, store.ErrQueryFailed):
		return apperrors.NewDatabaseQueryFailedError(err)
	case errors.Is(err, store.ErrInsertFailed):
		return apperrors.NewDatabaseInsertFailedError(err)
	}
	return apperrors.NewInternalError(err)
}

func documentNames(fd *form.FormData) []string {
	var out []string
	for _, d := range []struct {
		field string
		file  *form.File
	}{
		{form.FieldResume, fd.Resume},
		{form.FieldCoverLetter, fd.CoverLetter},
		{form.FieldPortfolio, fd.Portfolio},
	} {
		if d.file != nil {
			out = append(out, d.field)
		}
	}
	return out
}

func uploadResult(err error) string {
	switch {
	case errors.Is(err, upload.ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, upload.ErrFileTypeNotSupported):
		return "unsupported_type"
	default:
		return "aborted"
	}
}

// capturingSubmitter keeps the submission that was accepted so the side
// effects can use it after the wizard has discarded the form.
type capturingSubmitter struct {
	next       wizard.Submitter
	submission *wizard.Submission
}

func (c *capturingSubmitter) Submit(ctx context.Context, sub wizard.Submission) error {
	if err := c.next.Submit(ctx, sub); err != nil {
		return err
	}
	c.submission = &sub
	return nil
}
