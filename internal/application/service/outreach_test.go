package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "careerflow/internal/common/errors"
	"careerflow/internal/common/logger"
	"careerflow/internal/models"
)

type fakeContacts struct {
	saved   []models.ContactMessage
	deleted []string
	err     error
}

func (f *fakeContacts) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeContacts) Create(_ context.Context, msg *models.ContactMessage) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *msg)
	return nil
}

type fakeSubscribers struct {
	seen map[string]bool
	err  error
}

func (f *fakeSubscribers) Unsubscribe(_ context.Context, email string) error {
	delete(f.seen, email)
	return nil
}

func (f *fakeSubscribers) Subscribe(_ context.Context, sub *models.Subscriber) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.seen[sub.Email] {
		return false, nil
	}
	f.seen[sub.Email] = true
	return true, nil
}

type fakeForwarder struct {
	enabled  bool
	payloads []interface{}
	err      error
}

func (f *fakeForwarder) Enabled() bool { return f.enabled }

func (f *fakeForwarder) Forward(_ context.Context, payload interface{}) (string, error) {
	f.payloads = append(f.payloads, payload)
	return "fwd-1", f.err
}

type fakeContactNotifier struct {
	messages []models.ContactMessage
}

func (f *fakeContactNotifier) ContactReceived(_ context.Context, msg models.ContactMessage) models.Notification {
	f.messages = append(f.messages, msg)
	return models.Notification{Status: models.NotificationStatusSent}
}

func TestOutreach_Contact(t *testing.T) {
	tests := []struct {
		name       string
		msg        models.ContactMessage
		contactErr error
		forwardErr error
		wantCode   apperrors.ErrorCode
		validate   func(t *testing.T, out *models.ContactMessage, c *fakeContacts, fw *fakeForwarder, n *fakeContactNotifier)
	}{
		{
			name: "stored forwarded and acknowledged",
			msg:  models.ContactMessage{Name: " Sam ", Email: "sam@x.com", Message: "Hello"},
			validate: func(t *testing.T, out *models.ContactMessage, c *fakeContacts, fw *fakeForwarder, n *fakeContactNotifier) {
				assert.NotEmpty(t, out.ID)
				assert.Equal(t, "Sam", out.Name)
				assert.False(t, out.CreatedAt.IsZero())
				require.Len(t, c.saved, 1)
				assert.Len(t, fw.payloads, 1)
				assert.Len(t, n.messages, 1)
			},
		},
		{
			name:     "invalid email",
			msg:      models.ContactMessage{Name: "Sam", Email: "sam", Message: "Hello"},
			wantCode: apperrors.ErrCodeValidationFailed,
		},
		{
			name:       "storage failure",
			msg:        models.ContactMessage{Name: "Sam", Email: "sam@x.com", Message: "Hello"},
			contactErr: errors.New("db down"),
			wantCode:   apperrors.ErrCodeDatabaseInsertFailed,
		},
		{
			name:       "forward failure",
			msg:        models.ContactMessage{Name: "Sam", Email: "sam@x.com", Message: "Hello"},
			forwardErr: errors.New("webhook returned 500"),
			wantCode:   apperrors.ErrCodeSubmissionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			contacts := &fakeContacts{err: tt.contactErr}
			fw := &fakeForwarder{enabled: true, err: tt.forwardErr}
			n := &fakeContactNotifier{}
			o := NewOutreach(OutreachDeps{Contacts: contacts, ContactForwarder: fw, Notifier: n}, logger.NewTestLogger(t))

			out, err := o.Contact(context.Background(), tt.msg)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				assert.Nil(t, out)
				assert.Empty(t, n.messages, "nothing is acknowledged")
				if tt.forwardErr != nil {
					require.Len(t, contacts.saved, 1)
					assert.Equal(t, []string{contacts.saved[0].ID}, contacts.deleted, "unforwarded message is removed")
				} else {
					assert.Empty(t, fw.payloads)
				}
				return
			}
			require.NoError(t, err)
			tt.validate(t, out, contacts, fw, n)
		})
	}
}

func TestOutreach_Subscribe(t *testing.T) {
	subs := &fakeSubscribers{seen: map[string]bool{}}
	fw := &fakeForwarder{enabled: true}
	o := NewOutreach(OutreachDeps{Subscribers: subs, NewsletterForward: fw}, logger.NewNoOpLogger())
	ctx := context.Background()

	res, err := o.Subscribe(ctx, models.Subscriber{Email: " Jane@X.com "})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "subscribed", res.Status)
	assert.True(t, subs.seen["jane@x.com"])

	res, err = o.Subscribe(ctx, models.Subscriber{Email: "jane@x.com"})
	require.NoError(t, err)
	assert.False(t, res.Created, "subscribing twice is not an error")
	assert.Len(t, fw.payloads, 1, "only new addresses are forwarded")

	_, err = o.Subscribe(ctx, models.Subscriber{Email: "nope"})
	assertCode(t, err, apperrors.ErrCodeValidationFailed)

	subs.err = errors.New("db down")
	_, err = o.Subscribe(ctx, models.Subscriber{Email: "new@x.com"})
	assertCode(t, err, apperrors.ErrCodeDatabaseInsertFailed)
}

func TestOutreach_SubscribeForwardFailure(t *testing.T) {
	subs := &fakeSubscribers{seen: map[string]bool{}}
	fw := &fakeForwarder{enabled: true, err: errors.New("connection refused")}
	o := NewOutreach(OutreachDeps{Subscribers: subs, NewsletterForward: fw}, logger.NewNoOpLogger())
	ctx := context.Background()

	res, err := o.Subscribe(ctx, models.Subscriber{Email: "jane@x.com"})
	assertCode(t, err, apperrors.ErrCodeSubmissionFailed)
	assert.Nil(t, res)
	assert.False(t, subs.seen["jane@x.com"], "signup is undone")

	fw.err = nil
	res, err = o.Subscribe(ctx, models.Subscriber{Email: "jane@x.com"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Len(t, fw.payloads, 2, "the retry is forwarded")
}

func TestOutreach_DisabledForwarderIsSkipped(t *testing.T) {
	fw := &fakeForwarder{}
	o := NewOutreach(OutreachDeps{ContactForwarder: fw}, logger.NewNoOpLogger())
	_, err := o.Contact(context.Background(), models.ContactMessage{Name: "Sam", Email: "sam@x.com", Message: "Hi"})
	require.NoError(t, err)
	assert.Empty(t, fw.payloads)
}
