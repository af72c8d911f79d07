// Package notify sends the messages that follow an accepted application: a
// confirmation email to the applicant and an SMS alert to the recruiter.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"careerflow/internal/common/logger"
	"careerflow/internal/models"
)

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// Recorder persists delivery attempts; optional.
type Recorder interface {
	Record(ctx context.Context, n *models.Notification) error
}

type Config struct {
	EmailEnabled   bool
	SMSEnabled     bool
	RecruiterPhone string
}

// ApplicationNotice is what the notifications need to know about a submission.
type ApplicationNotice struct {
	SubmissionID  string
	FirstName     string
	ApplicantName string
	Email         string
	JobID         string
	JobTitle      string
}

type Notifier struct {
	cfg       Config
	email     EmailSender
	sms       SMSSender
	recorder  Recorder
	templates map[string]models.NotificationTemplate
	logger    logger.Logger
	now       func() time.Time
}

// New builds a notifier. email and sms may be nil when their channel is disabled.
func New(cfg Config, email EmailSender, sms SMSSender, recorder Recorder, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:       cfg,
		email:     email,
		sms:       sms,
		recorder:  recorder,
		templates: defaultTemplates,
		logger:    log.WithFields(map[string]interface{}{"component": "notify"}),
		now:       time.Now,
	}
}

// ApplicationSubmitted emails the applicant and alerts the recruiter. Failures
// are logged and reported in the returned records, never as an error.
func (n *Notifier) ApplicationSubmitted(ctx context.Context, notice ApplicationNotice) []models.Notification {
	data := map[string]interface{}{
		"firstName":     notice.FirstName,
		"applicantName": notice.ApplicantName,
		"submissionId":  notice.SubmissionID,
		"jobId":         notice.JobID,
	}
	if notice.JobTitle != "" {
		data["forJob"] = " for " + notice.JobTitle
	}

	var out []models.Notification

	tmpl := n.templates[models.TypeApplicationReceived]
	out = append(out, n.sendEmail(ctx, tmpl, notice.Email, data))

	alert := n.templates[models.TypeNewApplicationAlert]
	out = append(out, n.sendSMS(ctx, alert, n.cfg.RecruiterPhone, data))

	return out
}

// ContactReceived acknowledges a contact form message by email.
func (n *Notifier) ContactReceived(ctx context.Context, msg models.ContactMessage) models.Notification {
	tmpl := n.templates[models.TypeContactAcknowledged]
	return n.sendEmail(ctx, tmpl, msg.Email, map[string]interface{}{"name": msg.Name})
}

func (n *Notifier) sendEmail(ctx context.Context, tmpl models.NotificationTemplate, to string, data map[string]interface{}) models.Notification {
	rec := n.record(tmpl.Type, models.ChannelEmail, to)
	if !n.cfg.EmailEnabled || n.email == nil || to == "" {
		rec.Status = models.NotificationStatusDisabled
		return rec
	}

	subject := renderTemplate(tmpl.Subject, data)
	body := renderTemplate(tmpl.Body, data)
	if _, err := n.email.SendEmail(ctx, to, subject, body); err != nil {
		n.logger.Error("email send failed", map[string]interface{}{
			"error": err,
			"type":  tmpl.Type,
		})
		rec.Status = models.NotificationStatusFailed
		rec.Error = err.Error()
	}
	n.persist(ctx, &rec)
	return rec
}

func (n *Notifier) sendSMS(ctx context.Context, tmpl models.NotificationTemplate, phone string, data map[string]interface{}) models.Notification {
	rec := n.record(tmpl.Type, models.ChannelSMS, phone)
	if !n.cfg.SMSEnabled || n.sms == nil || phone == "" {
		rec.Status = models.NotificationStatusDisabled
		return rec
	}

	if _, err := n.sms.SendSMS(ctx, phone, renderTemplate(tmpl.Body, data)); err != nil {
		n.logger.Error("SMS send failed", map[string]interface{}{
			"error": err,
			"type":  tmpl.Type,
		})
		rec.Status = models.NotificationStatusFailed
		rec.Error = err.Error()
	}
	n.persist(ctx, &rec)
	return rec
}

func (n *Notifier) record(typ, channel, recipient string) models.Notification {
	return models.Notification{
		ID:        uuid.New().String(),
		Type:      typ,
		Channel:   channel,
		Recipient: recipient,
		Status:    models.NotificationStatusSent,
		SentAt:    n.now().UTC(),
	}
}

func (n *Notifier) persist(ctx context.Context, rec *models.Notification) {
	if n.recorder == nil {
		return
	}
	if err := n.recorder.Record(ctx, rec); err != nil {
		n.logger.Warn("notification record insert failed", map[string]interface{}{
			"error":          err,
			"notificationId": rec.ID,
		})
	}
}
