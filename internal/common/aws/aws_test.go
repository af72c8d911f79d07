package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func TestSESClient_SendEmail(t *testing.T) {
	api := &fakeSES{}
	id, err := NewSESClientWithAPI(api, "jobs@careerflow.test").SendEmail(context.Background(), "jane@x.com", "Thanks", "We got it")

	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	assert.Equal(t, []string{"jane@x.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "jobs@careerflow.test", aws.ToString(api.input.Source))
	assert.Equal(t, "Thanks", aws.ToString(api.input.Message.Subject.Data))
	assert.Equal(t, "We got it", aws.ToString(api.input.Message.Body.Text.Data))
}

func TestSESClient_Error(t *testing.T) {
	_, err := NewSESClientWithAPI(&fakeSES{err: errors.New("throttled")}, "x@y.z").SendEmail(context.Background(), "a@b.c", "s", "b")
	assert.EqualError(t, err, "throttled")
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := &fakeSNS{}
	id, err := NewSNSClientWithAPI(api).SendSMS(context.Background(), "+15550001111", "New application")

	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "+15550001111", aws.ToString(api.input.PhoneNumber))
	assert.Equal(t, "New application", aws.ToString(api.input.Message))
}
