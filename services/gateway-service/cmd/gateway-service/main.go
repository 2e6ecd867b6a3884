// Command gateway-service is the single public entrypoint. It proxies the
// public booking API and the operator API, enforcing operator tokens, CORS
// and rate limits.
//
// Environment:
//
//	PORT                          listen port (8080)
//	BOOKING_URL                   booking-service base URL
//	NOTIFICATION_URL              notification-service base URL
//	AUTH_JWT_SECRET               HS256 secret shared with the auth provider (required)
//	AUTH_JWT_AUDIENCE             expected aud claim; empty skips the check
//	OPS_ROLES                     roles admitted to /api/v1/ops (admin)
//	CORS_ALLOWED_ORIGINS          marketing site and dashboard origins
//	REQUEST_BODY_LIMIT_BYTES      (1048576)
//	REQUEST_TIMEOUT_SECONDS       (10)
//	RATE_LIMIT_PER_MINUTE         global per-client budget (120)
//	PUBLIC_WRITE_LIMIT_PER_MINUTE public form submissions per client (10)
//	RATE_LIMIT_FAIL_OPEN          let traffic through when Redis fails (true)
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/practiceops/practiceops/libs/auth"
	"github.com/practiceops/practiceops/libs/config"
	"github.com/practiceops/practiceops/libs/httpx"
	otelx "github.com/practiceops/practiceops/libs/otel"
	"github.com/practiceops/practiceops/libs/runtime"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotEnv()
	service := config.String("SERVICE_NAME", "gateway-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	jwtSecret, err := config.RequiredString("AUTH_JWT_SECRET")
	if err != nil {
		panic(err)
	}
	verifier := auth.NewVerifier(jwtSecret, config.String("AUTH_JWT_AUDIENCE", ""))

	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	publicWritesPerMinute := config.Int("PUBLIC_WRITE_LIMIT_PER_MINUTE", 10)
	failOpen := config.Bool("RATE_LIMIT_FAIL_OPEN", true)

	var checks []runtime.ReadyCheck
	var globalLimiter, writeLimiter httpx.Limiter
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()

		prefix := config.String("RATE_LIMIT_PREFIX", "rl")
		globalLimiter = httpx.NewRedisLimiter(rdb, limitPerMinute, time.Minute, prefix)
		writeLimiter = httpx.NewRedisLimiter(rdb, publicWritesPerMinute, time.Minute, prefix)
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "public_writes_per_minute", publicWritesPerMinute, "redis_addr", addr)
	} else {
		globalLimiter = httpx.NewMemoryLimiter(limitPerMinute, time.Minute)
		writeLimiter = httpx.NewMemoryLimiter(publicWritesPerMinute, time.Minute)
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute, "public_writes_per_minute", publicWritesPerMinute)
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	registerRoutes(mux, routesConfig{
		BookingURL:       mustParseURL(config.String("BOOKING_URL", "http://booking-service:8083")),
		NotificationURL:  mustParseURL(config.String("NOTIFICATION_URL", "http://notification-service:8085")),
		Verifier:         verifier,
		OpsRoles:         config.List("OPS_ROLES", "admin"),
		Timeout:          config.Seconds("REQUEST_TIMEOUT_SECONDS", 10*time.Second),
		PublicWriteLimit: httpx.RateLimit(writeLimiter, "public-write", logger, failOpen),
		Logger:           logger,
	})

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   config.List("CORS_ALLOWED_ORIGINS", ""),
			AllowedMethods:   config.List("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS"),
			AllowedHeaders:   config.List("CORS_ALLOWED_HEADERS", "Authorization,Content-Type,X-Request-Id"),
			ExposedHeaders:   []string{httpx.RequestIDHeader, "Retry-After"},
			AllowCredentials: config.Bool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           config.Seconds("CORS_MAX_AGE_SECONDS", 600*time.Second),
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))),
		httpx.RateLimit(globalLimiter, "global", logger, failOpen),
	)
	handler = otelhttp.NewHandler(handler, "gateway")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, logger, srv, 10*time.Second)
}
