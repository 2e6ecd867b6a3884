package main

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/practiceops/practiceops/libs/auth"
	"github.com/practiceops/practiceops/libs/httpx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	operatorIDHeader   = "X-Operator-Id"
	operatorRoleHeader = "X-Operator-Role"
)

type routesConfig struct {
	BookingURL      *url.URL
	NotificationURL *url.URL
	Verifier        *auth.Verifier
	OpsRoles        []string
	Timeout         time.Duration
	// PublicWriteLimit applies to public POSTs on top of the global limit.
	PublicWriteLimit httpx.Middleware
	Logger           *slog.Logger
	Transport        http.RoundTripper
}

func registerRoutes(mux *http.ServeMux, cfg routesConfig) {
	transport := cfg.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	bookingProxy := newProxy(cfg.BookingURL, transport, cfg.Logger)
	notificationProxy := newProxy(cfg.NotificationURL, transport, cfg.Logger)

	timeout := httpx.WithTimeout(cfg.Timeout)
	ops := requireOps(cfg.Verifier, cfg.Logger, cfg.OpsRoles...)

	public := httpx.Chain(bookingProxy, timeout)
	if cfg.PublicWriteLimit != nil {
		public = httpx.When(httpx.IsWrite, cfg.PublicWriteLimit)(public)
	}
	registerProxy(mux, "/api/v1/public", public)
	registerProxy(mux, "/api/v1/ops", ops(timeout(bookingProxy)))
	registerProxy(mux, "/api/v1/ops/notifications", ops(timeout(notificationProxy)))
	// The event stream stays open indefinitely, so it skips the timeout.
	mux.Handle("/api/v1/ops/notifications/stream", ops(notificationProxy))
}

func newProxy(target *url.URL, transport http.RoundTripper, logger *slog.Logger) *httputil.ReverseProxy {
	p := httputil.NewSingleHostReverseProxy(target)
	p.Transport = transport
	p.FlushInterval = -1
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if logger != nil {
			logger.Error("upstream request failed", "err", err, "upstream", target.Host, "path", r.URL.Path)
		}
		httpx.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream unavailable", "kind": "bad_gateway"})
	}
	return p
}

func registerProxy(mux *http.ServeMux, prefix string, handler http.Handler) {
	if !strings.HasSuffix(prefix, "/") {
		mux.Handle(prefix, handler)
		mux.Handle(prefix+"/", handler)
		return
	}
	mux.Handle(prefix, handler)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// requireOps admits requests carrying a valid operator token and forwards
// the subject and role to the upstream. Client supplied copies of those
// headers are always dropped.
func requireOps(verifier *auth.Verifier, logger *slog.Logger, roles ...string) httpx.Middleware {
	allowed := map[string]struct{}{}
	for _, r := range roles {
		allowed[strings.TrimSpace(r)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Header.Del(operatorIDHeader)
			r.Header.Del(operatorRoleHeader)

			authHeader := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if !strings.HasPrefix(authHeader, "Bearer ") || token == "" {
				deny(w, http.StatusUnauthorized, "missing or invalid Authorization header")
				return
			}
			claims, err := verifier.Verify(token)
			if err != nil {
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}
			role := claims.EffectiveRole()
			if _, ok := allowed[role]; !ok {
				if logger != nil {
					logger.Warn("operator role rejected", "sub", claims.Subject, "role", role)
				}
				deny(w, http.StatusForbidden, "forbidden")
				return
			}

			r.Header.Set(operatorIDHeader, claims.Subject)
			r.Header.Set(operatorRoleHeader, role)
			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	kind := "unauthorized"
	if status == http.StatusForbidden {
		kind = "forbidden"
	}
	httpx.WriteJSON(w, status, map[string]string{"error": msg, "kind": kind})
}
