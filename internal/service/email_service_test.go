package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, in)
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestEmailServiceDisabled(t *testing.T) {
	svc, err := NewEmailService(context.Background(), "eu-west-1", "", "", "", true, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.SendNotificationEmail(context.Background(), "ali@example.com", "Ali", "t", "m", "/x"))
}

func TestSendNotificationEmail(t *testing.T) {
	ses := &fakeSES{}
	svc := &EmailService{
		client:     ses,
		fromEmail:  "noreply@readwell.example",
		fromName:   "Readwell",
		appBaseURL: "https://readwell.example",
		enabled:    true,
		log:        zap.NewNop(),
	}

	err := svc.SendNotificationEmail(context.Background(), "veli@example.com", "Hasan <Bey>", "Yeni Öğretmen Değerlendirmesi", "Ali için yeni bir değerlendirme", "/parent/dashboard")
	require.NoError(t, err)
	require.Len(t, ses.inputs, 1)

	in := ses.inputs[0]
	assert.Equal(t, "Readwell <noreply@readwell.example>", *in.FromEmailAddress)
	assert.Equal(t, []string{"veli@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Yeni Öğretmen Değerlendirmesi", *in.Content.Simple.Subject.Data)
	html := *in.Content.Simple.Body.Html.Data
	assert.Contains(t, html, "https://readwell.example/parent/dashboard")
	assert.Contains(t, html, "Hasan &lt;Bey&gt;")
	assert.True(t, strings.HasPrefix(*in.Content.Simple.Body.Text.Data, "Merhaba Hasan <Bey>,"))

	ses.err = errors.New("throttled")
	err = svc.SendNotificationEmail(context.Background(), "veli@example.com", "Hasan", "t", "m", "/")
	assert.ErrorContains(t, err, "throttled")
}
