package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/practiceops/practiceops/libs/kafkax"
	otelx "github.com/practiceops/practiceops/libs/otel"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// TxRunner runs fn in a database transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(pgx.Tx) error) error
}

type store interface {
	FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error
	Purge(ctx context.Context, tx pgx.Tx, olderThan time.Duration) (int64, error)
}

type PublisherConfig struct {
	Brokers   []string
	PollEvery time.Duration
	BatchSize int
	Retention time.Duration
}

type Publisher struct {
	db        TxRunner
	repo      store
	logger    *slog.Logger
	cfg       PublisherConfig
	newWriter func([]string) MessageWriter
}

func NewPublisher(db TxRunner, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	return &Publisher{
		db:     db,
		repo:   repo,
		logger: logger,
		cfg:    cfg,
		newWriter: func(brokers []string) MessageWriter {
			return &kafka.Writer{
				Addr:                   kafka.TCP(brokers...),
				Balancer:               &kafka.Hash{},
				RequiredAcks:           kafka.RequireAll,
				AllowAutoTopicCreation: true,
			}
		},
	}
}

// Run polls until ctx is done. Without brokers the rows simply accumulate.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.cfg.Brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}
	writer := p.newWriter(p.cfg.Brokers)
	if c, ok := writer.(interface{ Close() error }); ok {
		defer func() { _ = c.Close() }()
	}

	ticker := time.NewTicker(p.cfg.PollEvery)
	defer ticker.Stop()
	purge := time.NewTicker(time.Hour)
	defer purge.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PublishBatch(ctx, writer)
			if err != nil {
				p.logger.Error("outbox publish failed", "err", err)
			} else if n > 0 {
				p.logger.Debug("outbox published", "count", n)
			}
		case <-purge.C:
			if err := p.purge(ctx); err != nil {
				p.logger.Warn("outbox purge failed", "err", err)
			}
		}
	}
}

// PublishBatch sends one batch and marks it published. A write failure
// rolls back so the same rows are retried on the next tick.
func (p *Publisher) PublishBatch(ctx context.Context, writer MessageWriter) (int, error) {
	var published int
	err := p.db.InTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.cfg.BatchSize)
		if err != nil || len(records) == 0 {
			return err
		}

		msgs := make([]kafka.Message, 0, len(records))
		ids := make([]int64, 0, len(records))
		for _, r := range records {
			msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
			msgs = append(msgs, kafka.Message{
				Topic:   r.EventType,
				Key:     []byte(r.AggregateID),
				Value:   r.Payload,
				Headers: kafkax.InjectTraceHeaders(msgCtx, kafkax.MetaHeaders(kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType})),
			})
			ids = append(ids, r.ID)
		}
		if err := writer.WriteMessages(ctx, msgs...); err != nil {
			return err
		}
		if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
			return err
		}
		published = len(records)
		return nil
	})
	return published, err
}

func (p *Publisher) purge(ctx context.Context) error {
	return p.db.InTx(ctx, func(tx pgx.Tx) error {
		n, err := p.repo.Purge(ctx, tx, p.cfg.Retention)
		if err == nil && n > 0 {
			p.logger.Info("outbox purged", "rows", n)
		}
		return err
	})
}
