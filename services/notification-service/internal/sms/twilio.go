package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type TwilioSender struct {
	client *twilio.RestClient
	from   string
	ready  bool
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	accountSID, authToken, from = strings.TrimSpace(accountSID), strings.TrimSpace(authToken), strings.TrimSpace(from)
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   accountSID,
			Password:   authToken,
			AccountSid: accountSID,
		}),
		from:  from,
		ready: accountSID != "" && authToken != "" && from != "",
	}
}

func (s *TwilioSender) ProviderID() string {
	return "twilio"
}

// Send ignores ctx; the Twilio client has no context-aware call.
func (s *TwilioSender) Send(_ context.Context, to string, body string) error {
	if !s.ready {
		return errors.New("twilio credentials not configured")
	}
	if !strings.HasPrefix(to, "+") {
		return fmt.Errorf("twilio recipient %q is not E.164", to)
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(Clip(body))
	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
