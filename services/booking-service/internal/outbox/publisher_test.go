package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/practiceops/practiceops/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type fakeTx struct{ commits, rollbacks int }

func (f *fakeTx) InTx(_ context.Context, fn func(pgx.Tx) error) error {
	if err := fn(nil); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type fakeStore struct {
	pending   []Record
	published []int64
}

func (s *fakeStore) FetchUnpublished(_ context.Context, _ pgx.Tx, limit int) ([]Record, error) {
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *fakeStore) MarkPublished(_ context.Context, _ pgx.Tx, ids []int64) error {
	s.published = append(s.published, ids...)
	return nil
}

func (s *fakeStore) Purge(context.Context, pgx.Tx, time.Duration) (int64, error) { return 0, nil }

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func newTestPublisher(tx *fakeTx, st *fakeStore) *Publisher {
	return &Publisher{
		db:     tx,
		repo:   st,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:    PublisherConfig{BatchSize: 2},
	}
}

func TestPublishBatch(t *testing.T) {
	st := &fakeStore{pending: []Record{
		{ID: 1, EventID: "e1", AggregateID: "a1", EventType: TypeAvailabilityChanged, Payload: []byte(`{}`)},
		{ID: 2, EventID: "e2", AggregateID: "a2", EventType: TypeAppointmentRequested, Payload: []byte(`{}`)},
		{ID: 3, EventID: "e3", AggregateID: "a3", EventType: TypeAppointmentRequested, Payload: []byte(`{}`)},
	}}
	tx := &fakeTx{}
	w := &fakeWriter{}

	n, err := newTestPublisher(tx, st).PublishBatch(context.Background(), w)
	if err != nil || n != 2 {
		t.Fatalf("PublishBatch = %d, %v", n, err)
	}
	if len(st.published) != 2 || st.published[0] != 1 || st.published[1] != 2 {
		t.Fatalf("published ids = %v", st.published)
	}
	msg := w.msgs[1]
	if msg.Topic != TypeAppointmentRequested || string(msg.Key) != "a2" {
		t.Fatalf("message = %+v", msg)
	}
	if meta := kafkax.ExtractEventMeta(msg); meta.EventID != "e2" || meta.EventType != TypeAppointmentRequested {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestPublishBatchWriteFailureRollsBack(t *testing.T) {
	st := &fakeStore{pending: []Record{{ID: 1, EventID: "e1", AggregateID: "a1", EventType: "t"}}}
	tx := &fakeTx{}
	_, err := newTestPublisher(tx, st).PublishBatch(context.Background(), &fakeWriter{err: errors.New("broker down")})
	if err == nil || tx.rollbacks != 1 || len(st.published) != 0 {
		t.Fatalf("err = %v rollbacks = %d published = %v", err, tx.rollbacks, st.published)
	}
}

func TestNewMarshalsPayload(t *testing.T) {
	evt := New("availability", "availability", TypeAvailabilityChanged, AvailabilityChanged{Table: "special_availability", Action: "insert", Date: "2025-03-10"})
	var got map[string]string
	if err := json.Unmarshal(evt.Payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got["table"] != "special_availability" || got["date"] != "2025-03-10" {
		t.Fatalf("payload = %v", got)
	}
	if _, ok := got["id"]; ok {
		t.Fatal("empty id should be omitted")
	}
}
