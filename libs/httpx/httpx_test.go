package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/practiceops/practiceops/libs/apperr"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("a"), nil, mark("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got := strings.Join(order, ","); got != "a,b,handler" {
		t.Fatalf("order = %s", got)
	}
}

func TestWhenOnlyWrites(t *testing.T) {
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), When(IsWrite, deny))

	for method, want := range map[string]int{
		http.MethodGet:  http.StatusOK,
		http.MethodPost: http.StatusTeapot,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/", nil))
		if rec.Code != want {
			t.Fatalf("%s: status = %d, want %d", method, rec.Code, want)
		}
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id = %q / %q", seen, rec.Header().Get(RequestIDHeader))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc-123" {
		t.Fatalf("expected a fresh request id, got %q", seen)
	}
}

func TestAccessLogRecorderFlushes(t *testing.T) {
	var flushable bool
	h := WithAccessLog(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, flushable = w.(http.Flusher)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !flushable {
		t.Fatal("access log writer must implement http.Flusher")
	}
}

func TestMemoryLimiterWindow(t *testing.T) {
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "ip")
		if err != nil || ok != want {
			t.Fatalf("hit %d: ok=%v err=%v, want %v", i, ok, err, want)
		}
	}
	if ok, _ := l.Allow(ctx, "other"); !ok {
		t.Fatal("keys must be counted separately")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "ip"); !ok {
		t.Fatal("window should reset")
	}
	if _, ok := l.visitors["other"]; ok {
		t.Fatal("expired visitor should be swept")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) { return false, errors.New("down") }
func (failingLimiter) Window() time.Duration                       { return time.Minute }

func TestRateLimitMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	limited := RateLimit(NewMemoryLimiter(1, time.Minute), "public", nil, true)(ok)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	first := httptest.NewRecorder()
	limited.ServeHTTP(first, req)
	second := httptest.NewRecorder()
	limited.ServeHTTP(second, req)
	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Fatalf("codes = %d, %d", first.Code, second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", second.Header().Get("Retry-After"))
	}

	open := httptest.NewRecorder()
	RateLimit(failingLimiter{}, "x", nil, true)(ok).ServeHTTP(open, req)
	if open.Code != http.StatusOK {
		t.Fatalf("fail-open status = %d", open.Code)
	}
	closed := httptest.NewRecorder()
	RateLimit(failingLimiter{}, "x", nil, false)(ok).ServeHTTP(closed, req)
	if closed.Code != http.StatusServiceUnavailable {
		t.Fatalf("fail-closed status = %d", closed.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := ClientIP(req); got != "192.0.2.1" {
		t.Fatalf("ClientIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("ClientIP = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := WithCORS(CORSPolicy{
		AllowedOrigins: []string{"https://example.com/"},
		AllowedMethods: []string{"GET", "POST"},
		MaxAge:         10 * time.Minute,
	})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://example.com" ||
		rec.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("headers = %v", rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin got status %d headers %v", rec.Code, rec.Header())
	}
}

func TestWriteErrorMapping(t *testing.T) {
	cases := []struct {
		err       error
		status    int
		kind      string
		field     string
		retryHint bool
	}{
		{apperr.Validation("date", "date is required"), http.StatusBadRequest, "validation_failed", "date", false},
		{apperr.NotFound("appointments", "appointment not found"), http.StatusNotFound, "not_found", "", false},
		{apperr.Conflict("appointments", "slot already booked", nil), http.StatusConflict, "conflict", "", false},
		{apperr.FetchFailed("appointments", errors.New("connection refused")), http.StatusServiceUnavailable, "fetch_failed", "", true},
		{errors.New("boom"), http.StatusInternalServerError, "internal", "", false},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, discardLogger(), httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["kind"] != tc.kind || body["field"] != tc.field {
			t.Fatalf("%v: body = %v", tc.err, body)
		}
		if got := rec.Header().Get("Retry-After") != ""; got != tc.retryHint {
			t.Fatalf("%v: Retry-After present = %v", tc.err, got)
		}
	}
}

func TestFetchFailedKeepsMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, nil, httptest.NewRequest(http.MethodGet, "/", nil),
		apperr.FetchFailed("special_availability", errors.New("connection refused")))
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "connection refused" || body["table"] != "special_availability" {
		t.Fatalf("body = %v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	if err := DecodeJSON(req, &dst); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("unknown field: err = %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if err := DecodeJSON(req, &dst); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("empty body: err = %v", err)
	}
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
	if err := DecodeJSON(req, &dst); err != nil || dst.Name != "ok" {
		t.Fatalf("decode = %v, %+v", err, dst)
	}
}
