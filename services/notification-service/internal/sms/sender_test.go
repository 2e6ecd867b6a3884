package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWebhookSenderPostsJSON(t *testing.T) {
	var got struct {
		Recipient string `json:"recipient"`
		Text      string `json:"text"`
		Source    string `json:"source"`
	}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, "secret")
	if err := s.Send(context.Background(), "+905320000000", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("expected bearer token, got %q", auth)
	}
	if got.Recipient != "+905320000000" || got.Text != "hello" || got.Source != "practiceops" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestWebhookSenderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewWebhookSender(srv.URL, "").Send(context.Background(), "+1", "x"); err == nil {
		t.Fatalf("expected error on 502")
	}
	if err := NewWebhookSender("", "").Send(context.Background(), "+1", "x"); err == nil {
		t.Fatalf("expected error without url")
	}
}

func TestTwilioSenderValidates(t *testing.T) {
	if err := NewTwilioSender("", "", "").Send(context.Background(), "+905320000000", "x"); err == nil {
		t.Fatalf("expected error without credentials")
	}
	if err := NewTwilioSender("AC1", "tok", "+15550000000").Send(context.Background(), "05320000000", "x"); err == nil {
		t.Fatalf("expected error for non E.164 recipient")
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct{ in, want string }{
		{"0532 000 00 00", "+905320000000"},
		{"+90 (532) 000-00-00", "+905320000000"},
		{"0090532000000", "+90532000000"},
		{"5320000000", "+5320000000"},
		{"  ", ""},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in, "90"); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClip(t *testing.T) {
	short := "Yeni randevu talebi"
	if Clip(short) != short {
		t.Fatalf("short body changed")
	}
	long := strings.Repeat("ş", MaxBodyRunes+10)
	got := Clip(long)
	if utf8.RuneCountInString(got) != MaxBodyRunes || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected clip: %d runes", utf8.RuneCountInString(got))
	}
}
