// Command booking-service serves availability, booking intake and the
// operator endpoints backed by PostgreSQL.
//
// Environment:
//
//	PORT                 listen port (8083)
//	DATABASE_URL         postgres connection string (required)
//	DB_MAX_CONNS         pool size (10)
//	PRACTICE_TIMEZONE    zone used for "today" (Europe/Istanbul)
//	MIGRATE_ON_START     apply embedded migrations at boot (true)
//	KAFKA_BROKERS        comma separated; empty disables the outbox publisher
//	OUTBOX_POLL_SECONDS  publisher poll interval (2)
//	OUTBOX_BATCH_SIZE    rows per publish (50)
//	OUTBOX_RETENTION_SECONDS  how long published rows are kept (604800)
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/practiceops/practiceops/libs/config"
	"github.com/practiceops/practiceops/libs/db"
	"github.com/practiceops/practiceops/libs/httpx"
	"github.com/practiceops/practiceops/libs/kafkax"
	otelx "github.com/practiceops/practiceops/libs/otel"
	"github.com/practiceops/practiceops/libs/runtime"
	"github.com/practiceops/practiceops/services/booking-service/internal/availability"
	"github.com/practiceops/practiceops/services/booking-service/internal/booking"
	"github.com/practiceops/practiceops/services/booking-service/internal/handlers"
	"github.com/practiceops/practiceops/services/booking-service/internal/intake"
	"github.com/practiceops/practiceops/services/booking-service/internal/outbox"
	"github.com/practiceops/practiceops/services/booking-service/internal/overrides"
	"github.com/practiceops/practiceops/services/booking-service/internal/storage"
	"github.com/practiceops/practiceops/services/booking-service/migrations"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotEnv()
	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	loc, err := time.LoadLocation(config.String("PRACTICE_TIMEZONE", "Europe/Istanbul"))
	if err != nil {
		logger.Error("invalid PRACTICE_TIMEZONE", "err", err)
		panic(err)
	}

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
	pool, err := db.Open(ctx, dbURL, db.Options{MaxConns: int32(config.Int("DB_MAX_CONNS", 10))})
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

	outboxRepo := outbox.NewRepository()
	availabilityRepo := storage.NewAvailabilityRepository(pool, outboxRepo)
	appointmentRepo := storage.NewAppointmentRepository(pool, outboxRepo)
	intakeRepo := storage.NewIntakeRepository(pool, outboxRepo)

	brokers := kafkax.SplitBrokers(config.String("KAFKA_BROKERS", ""))
	publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   brokers,
		PollEvery: config.Seconds("OUTBOX_POLL_SECONDS", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
		Retention: config.Seconds("OUTBOX_RETENTION_SECONDS", 7*24*time.Hour),
	})
	go publisher.Run(ctx)

	resolver := availability.NewResolver(availabilityRepo)
	bookingSvc := booking.NewService(appointmentRepo, loc)
	overridesSvc := overrides.NewService(availabilityRepo, loc)
	intakeSvc := intake.NewService(intakeRepo)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if len(brokers) > 0 {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	handlers.NewPublicHandler(resolver, bookingSvc, intakeSvc, loc, logger).Register(mux)
	handlers.NewOpsHandler(bookingSvc, overridesSvc, intakeSvc, storage.NewSummaryRepository(pool), loc, logger).Register(mux)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	runtime.Serve(ctx, logger, srv, 10*time.Second)
}
