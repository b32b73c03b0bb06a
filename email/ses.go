package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/jon-the-dev/album-relay/utils"
)

// Mailer dispatches the download notification. Failures are reported to the
// caller but a failed send never invalidates the delivery record it refers
// to; the send is retried independently.
type Mailer interface {
	SendDownloadLink(ctx context.Context, recipient, downloadURL string, expiresIn time.Duration) error
}

// SESAPI is the slice of the SES v2 API the mailer needs.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

var _ SESAPI = (*sesv2.Client)(nil)

const downloadSubject = "Your Album is Ready for Download"

var htmlBody = template.Must(template.New("download").Parse(`<html><body>
<h2>Your Album is Ready!</h2>
<p>Your album is ready for download.</p>
<p><a href="{{.URL}}">Click here to download</a></p>
<p><em>This link will expire in {{.Hours}} hour(s).</em></p>
</body></html>`))

type SESMailer struct {
	client SESAPI
	sender string
}

var _ Mailer = (*SESMailer)(nil)

func NewSESMailer(client SESAPI, sender string) *SESMailer {
	return &SESMailer{
		client: client,
		sender: sender,
	}
}

func (m *SESMailer) SendDownloadLink(ctx context.Context, recipient, downloadURL string, expiresIn time.Duration) error {
	if verr := utils.ValidateEmail(recipient, "recipient"); verr != nil {
		return utils.ErrInvalidEmail
	}

	hours := int(expiresIn.Hours())
	if hours < 1 {
		hours = 1
	}

	var html bytes.Buffer
	if err := htmlBody.Execute(&html, struct {
		URL   string
		Hours int
	}{URL: downloadURL, Hours: hours}); err != nil {
		return fmt.Errorf("failed to render email body: %w", err)
	}

	text := fmt.Sprintf(
		"Hi,\n\nYour album is ready for download. You can download it here:\n\n%s\n\nThis link will expire in %d hour(s).\n\nThank you!",
		downloadURL, hours)

	_, err := m.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.sender),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(downloadSubject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(text)},
					Html: &types.Content{Data: aws.String(html.String())},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}
	return nil
}
