package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"careerflow/internal/application/submit"
	apperrors "careerflow/internal/common/errors"
	"careerflow/internal/common/logger"
	"careerflow/internal/common/validation"
	"careerflow/internal/models"
)

type ContactSaver interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	Delete(ctx context.Context, id string) error
}

// SubscriberSaver keeps newsletter addresses. Unsubscribe undoes a signup whose
// forward failed, so the retry is treated as new.
type SubscriberSaver interface {
	Subscribe(ctx context.Context, sub *models.Subscriber) (bool, error)
	Unsubscribe(ctx context.Context, email string) error
}

// Forwarder posts a JSON payload to an external webhook.
type Forwarder interface {
	Enabled() bool
	Forward(ctx context.Context, payload interface{}) (string, error)
}

type ContactNotifier interface {
	ContactReceived(ctx context.Context, msg models.ContactMessage) models.Notification
}

// OutreachDeps are all optional; a missing dependency skips its step.
type OutreachDeps struct {
	Contacts          ContactSaver
	Subscribers       SubscriberSaver
	ContactForwarder  Forwarder
	NewsletterForward Forwarder
	Notifier          ContactNotifier
}

// SubscribeResult reports whether the address was new.
type SubscribeResult struct {
	Status  string `json:"status"`
	Created bool   `json:"created"`
}

// Outreach handles the contact form and newsletter signups.
type Outreach struct {
	deps   OutreachDeps
	logger logger.Logger
	now    func() time.Time
}

func NewOutreach(deps OutreachDeps, log logger.Logger) *Outreach {
	return &Outreach{
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "outreach"}),
		now:    time.Now,
	}
}

// Contact validates and keeps the message, forwards it and acknowledges it to
// the sender. A forward that fails is returned as SUBMISSION_FAILED and the
// stored message is removed again.
func (o *Outreach) Contact(ctx context.Context, msg models.ContactMessage) (*models.ContactMessage, error) {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	if err := validation.Struct(msg); err != nil {
		return nil, toValidationError(err)
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = o.now().UTC()
	}

	if o.deps.Contacts != nil {
		if err := o.deps.Contacts.Create(ctx, &msg); err != nil {
			return nil, apperrors.NewDatabaseInsertFailedError(err)
		}
	}

	if err := o.forward(ctx, o.deps.ContactForwarder, "contact", msg); err != nil {
		if o.deps.Contacts != nil {
			if derr := o.deps.Contacts.Delete(context.WithoutCancel(ctx), msg.ID); derr != nil {
				o.logger.Warn("failed to remove unforwarded contact message", map[string]interface{}{
					"error":     derr,
					"contactId": msg.ID,
				})
			}
		}
		return nil, apperrors.NewForwardFailedError("message", err)
	}

	if o.deps.Notifier != nil {
		o.deps.Notifier.ContactReceived(context.WithoutCancel(ctx), msg)
	}

	o.logger.Info("contact message received", map[string]interface{}{"contactId": msg.ID})
	return &msg, nil
}

// Subscribe adds the address to the newsletter. Subscribing twice is not an error.
func (o *Outreach) Subscribe(ctx context.Context, sub models.Subscriber) (*SubscribeResult, error) {
	sub.Email = strings.ToLower(strings.TrimSpace(sub.Email))
	if err := validation.Struct(sub); err != nil {
		return nil, toValidationError(err)
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = o.now().UTC()
	}

	created := true
	if o.deps.Subscribers != nil {
		var err error
		created, err = o.deps.Subscribers.Subscribe(ctx, &sub)
		if err != nil {
			return nil, apperrors.NewDatabaseInsertFailedError(err)
		}
	}
	if created {
		if err := o.forward(ctx, o.deps.NewsletterForward, "newsletter", sub); err != nil {
			if o.deps.Subscribers != nil {
				if derr := o.deps.Subscribers.Unsubscribe(context.WithoutCancel(ctx), sub.Email); derr != nil {
					o.logger.Warn("failed to remove unforwarded subscriber", map[string]interface{}{
						"error":        derr,
						"subscriberId": sub.ID,
					})
				}
			}
			return nil, apperrors.NewForwardFailedError("subscription", err)
		}
	}
	return &SubscribeResult{Status: "subscribed", Created: created}, nil
}

// forward posts payload when f is configured. Only 2xx counts as delivered.
func (o *Outreach) forward(ctx context.Context, f Forwarder, kind string, payload interface{}) error {
	if f == nil || !f.Enabled() {
		return nil
	}
	id, err := f.Forward(ctx, payload)
	if errors.Is(err, submit.ErrNotConfigured) {
		return nil
	}
	if err != nil {
		o.logger.Error("failed to forward "+kind, map[string]interface{}{"error": err})
		return err
	}
	o.logger.Debug(kind+" forwarded", map[string]interface{}{"forwardId": id})
	return nil
}

func toValidationError(err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return apperrors.NewValidationError(verr.Error())
	}
	return apperrors.NewValidationError(err.Error())
}
