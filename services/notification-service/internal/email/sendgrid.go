package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridSender struct {
	client   *sendgrid.Client
	from     *mail.Email
	disabled bool
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	apiKey = strings.TrimSpace(apiKey)
	if fromName == "" {
		fromName = "Practice Ops"
	}
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		from:     mail.NewEmail(fromName, strings.TrimSpace(fromEmail)),
		disabled: apiKey == "" || strings.TrimSpace(fromEmail) == "",
	}
}

func (s *SendGridSender) ProviderID() string {
	return "sendgrid"
}

func (s *SendGridSender) Send(ctx context.Context, to string, subject string, body string) error {
	if s.disabled {
		return errors.New("sendgrid api key or sender not configured")
	}
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), body, "")
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
