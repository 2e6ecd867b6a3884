// Command notification-service consumes booking events, records operator
// notifications, sends email and SMS alerts and streams dashboard updates.
//
// Environment:
//
//	PORT                    listen port (8085)
//	DATABASE_URL            postgres connection string (required)
//	MIGRATE_ON_START        apply embedded migrations at boot (true)
//	KAFKA_BROKERS           comma separated; empty disables the consumer
//	KAFKA_GROUP_ID          consumer group (notification-service)
//	REDIS_ADDR              realtime fanout; empty uses an in-process hub
//	REDIS_PASSWORD, REDIS_DB
//	NOTIFY_EMAIL_TO         comma separated operator addresses
//	NOTIFY_SMS_TO           comma separated operator numbers
//	EMAIL_PROVIDER          smtp (default) or sendgrid
//	SMTP_HOST, SMTP_PORT, SMTP_FROM, SMTP_USER, SMTP_PASS
//	SENDGRID_API_KEY, SENDGRID_FROM_EMAIL, SENDGRID_FROM_NAME
//	SMS_PROVIDER            noop (default), webhook or twilio
//	SMS_WEBHOOK_URL, SMS_WEBHOOK_TOKEN
//	TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_FROM_NUMBER
package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/practiceops/practiceops/libs/config"
	"github.com/practiceops/practiceops/libs/db"
	"github.com/practiceops/practiceops/libs/httpx"
	"github.com/practiceops/practiceops/libs/kafkax"
	otelx "github.com/practiceops/practiceops/libs/otel"
	"github.com/practiceops/practiceops/libs/runtime"
	"github.com/practiceops/practiceops/services/notification-service/internal/consumer"
	"github.com/practiceops/practiceops/services/notification-service/internal/dispatch"
	"github.com/practiceops/practiceops/services/notification-service/internal/email"
	"github.com/practiceops/practiceops/services/notification-service/internal/handlers"
	"github.com/practiceops/practiceops/services/notification-service/internal/inbox"
	"github.com/practiceops/practiceops/services/notification-service/internal/realtime"
	"github.com/practiceops/practiceops/services/notification-service/internal/sms"
	"github.com/practiceops/practiceops/services/notification-service/internal/storage"
	"github.com/practiceops/practiceops/services/notification-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func emailSenderFromEnv(logger *slog.Logger) email.Sender {
	switch provider := strings.ToLower(config.String("EMAIL_PROVIDER", "smtp")); provider {
	case "sendgrid":
		return email.NewSendGridSender(
			config.String("SENDGRID_API_KEY", ""),
			config.String("SENDGRID_FROM_EMAIL", ""),
			config.String("SENDGRID_FROM_NAME", ""),
		)
	default:
		if provider != "smtp" {
			logger.Warn("unknown email provider, using smtp", "provider", provider)
		}
		return email.NewSMTPSender(
			config.String("SMTP_HOST", "mailpit"),
			config.String("SMTP_PORT", "1025"),
			config.String("SMTP_FROM", "no-reply@practiceops.local"),
			config.String("SMTP_USER", ""),
			config.String("SMTP_PASS", ""),
		)
	}
}

func smsSenderFromEnv(logger *slog.Logger) sms.Sender {
	switch provider := strings.ToLower(config.String("SMS_PROVIDER", "noop")); provider {
	case "webhook":
		return sms.NewWebhookSender(config.String("SMS_WEBHOOK_URL", ""), config.String("SMS_WEBHOOK_TOKEN", ""))
	case "twilio":
		return sms.NewTwilioSender(
			config.String("TWILIO_ACCOUNT_SID", ""),
			config.String("TWILIO_AUTH_TOKEN", ""),
			config.String("TWILIO_FROM_NUMBER", ""),
		)
	default:
		if provider != "noop" {
			logger.Warn("unknown sms provider, using noop", "provider", provider)
		}
		return sms.NewNoopSender()
	}
}

func smsRecipients(raw []string, country string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if to := sms.NormalizePhone(r, country); to != "" {
			out = append(out, to)
		}
	}
	return out
}

func main() {
	config.LoadDotEnv()
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
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

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(config.Int("DB_MAX_CONNS", 5))})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if config.Bool("MIGRATE_ON_START", true) {
		if err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
			logger.Error("migrations failed", "err", err)
			panic(err)
		}
	}

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}

	var hub realtime.Hub
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		redisHub := realtime.NewRedisHub(rdb)
		hub = redisHub
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: redisHub.Ping})
		logger.Info("realtime hub enabled (redis)", "redis_addr", addr)
	} else {
		hub = realtime.NewMemoryHub(16)
		logger.Info("realtime hub enabled (memory)")
	}

	notificationsRepo := storage.NewRepository(pool)
	dispatcher := dispatch.New(notificationsRepo, emailSenderFromEnv(logger), smsSenderFromEnv(logger), hub, dispatch.Config{
		EmailTo: config.List("NOTIFY_EMAIL_TO", ""),
		SMSTo:   smsRecipients(config.List("NOTIFY_SMS_TO", ""), config.String("SMS_DEFAULT_COUNTRY", "90")),
	}, logger)

	brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", ""))
	if len(brokers) > 0 {
		inboxRepo := inbox.NewRepository(pool)
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: brokers,
			GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
			Topics:  dispatch.Topics,
		}, dispatcher.Handle)
		go eventConsumer.Run(ctx)
		go purgeInbox(ctx, inboxRepo, logger)
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	} else {
		logger.Warn("event consumer disabled (no kafka brokers configured)")
	}

	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewNotificationsHandler(notificationsRepo, hub, logger).Register(mux)

	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, logger, srv, 10*time.Second)
}

// purgeInbox drops dedupe claims older than a month once a day.
func purgeInbox(ctx context.Context, repo *inbox.Repository, logger *slog.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.Purge(ctx, 30*24*time.Hour)
			if err != nil {
				logger.Warn("inbox purge failed", "err", err)
			} else if n > 0 {
				logger.Info("inbox purged", "rows", n)
			}
		}
	}
}
