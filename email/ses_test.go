package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type fakeSES struct {
	sent []*sesv2.SendEmailInput
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.sent = append(f.sent, params)
	return &sesv2.SendEmailOutput{}, nil
}

func TestSESMailer_SendDownloadLink(t *testing.T) {
	ses := &fakeSES{}
	mailer := NewSESMailer(ses, "noreply@example.com")

	err := mailer.SendDownloadLink(context.Background(), "client@example.com", "https://bucket.example/zip?sig=abc", time.Hour)
	if err != nil {
		t.Fatalf("SendDownloadLink() error = %v", err)
	}

	if len(ses.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(ses.sent))
	}

	input := ses.sent[0]
	if *input.FromEmailAddress != "noreply@example.com" {
		t.Errorf("sender = %q, want noreply@example.com", *input.FromEmailAddress)
	}
	if input.Destination.ToAddresses[0] != "client@example.com" {
		t.Errorf("recipient = %q, want client@example.com", input.Destination.ToAddresses[0])
	}

	text := *input.Content.Simple.Body.Text.Data
	if !strings.Contains(text, "https://bucket.example/zip?sig=abc") {
		t.Error("text body should contain the download link")
	}
	if !strings.Contains(text, "expire in 1 hour") {
		t.Errorf("text body should state the expiry, got %q", text)
	}

	html := *input.Content.Simple.Body.Html.Data
	if !strings.Contains(html, `href="https://bucket.example/zip?sig=abc"`) {
		t.Error("html body should link the download URL")
	}
}

func TestSESMailer_RejectsInvalidRecipient(t *testing.T) {
	ses := &fakeSES{}
	mailer := NewSESMailer(ses, "noreply@example.com")

	err := mailer.SendDownloadLink(context.Background(), "not-an-email", "https://example.com/x", time.Hour)
	if err == nil {
		t.Fatal("SendDownloadLink() expected error for invalid recipient")
	}
	if len(ses.sent) != 0 {
		t.Error("no email should be dispatched for an invalid recipient")
	}
}
