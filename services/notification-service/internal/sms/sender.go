package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxBodyRunes keeps operator alerts within five UCS-2 segments; Turkish
// letters force UCS-2 encoding.
const MaxBodyRunes = 335

type Sender interface {
	Send(ctx context.Context, to string, body string) error
	ProviderID() string
}

// NormalizePhone turns a domestic number ("0532 000 00 00") into E.164
// using defaultCountry ("90"). Numbers already starting with "+" only lose
// their separators.
func NormalizePhone(raw, defaultCountry string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case digits == "" || strings.HasPrefix(digits, "+"):
		return digits
	case strings.HasPrefix(digits, "00"):
		return "+" + digits[2:]
	case strings.HasPrefix(digits, "0"):
		return "+" + defaultCountry + digits[1:]
	default:
		return "+" + digits
	}
}

// Clip shortens body to MaxBodyRunes, ending with an ellipsis when cut.
func Clip(body string) string {
	if utf8.RuneCountInString(body) <= MaxBodyRunes {
		return body
	}
	r := []rune(body)
	return string(r[:MaxBodyRunes-1]) + "…"
}

// WebhookSender hands alerts to an SMS relay that accepts
// {"recipient","text","source"} JSON.
type WebhookSender struct {
	url    string
	token  string
	source string
	http   *http.Client
}

func NewWebhookSender(url, token string) *WebhookSender {
	return &WebhookSender{
		url:    strings.TrimSpace(url),
		token:  strings.TrimSpace(token),
		source: "practiceops",
		http:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *WebhookSender) ProviderID() string {
	return "sms-webhook"
}

func (s *WebhookSender) Send(ctx context.Context, to string, body string) error {
	if s.url == "" {
		return errors.New("sms webhook url not configured")
	}
	raw, err := json.Marshal(struct {
		Recipient string `json:"recipient"`
		Text      string `json:"text"`
		Source    string `json:"source"`
	}{Recipient: to, Text: Clip(body), Source: s.source})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("sms webhook returned %d", resp.StatusCode)
	}
	return nil
}

// NoopSender is used when no SMS provider is configured.
type NoopSender struct{}

func NewNoopSender() *NoopSender { return &NoopSender{} }

func (NoopSender) ProviderID() string { return "sms-noop" }

func (NoopSender) Send(context.Context, string, string) error { return nil }
