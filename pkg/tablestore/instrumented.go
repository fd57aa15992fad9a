package tablestore

import (
	"context"
	"errors"
	"time"

	"practice_exam_backend/pkg/monitoring"
	"practice_exam_backend/pkg/tracing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type instrumentedStore struct {
	next Store
}

// Instrument wraps s with prometheus metrics and a tracing span per operation.
func Instrument(s Store) Store {
	return &instrumentedStore{next: s}
}

func (s *instrumentedStore) observe(ctx context.Context, table, op string, fn func(context.Context) error) error {
	ctx, span := tracing.Tracer.Start(ctx, "tablestore."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("tablestore.table", table)))

	start := time.Now()
	err := fn(ctx)
	monitoring.StoreDuration.WithLabelValues(table, op).Observe(time.Since(start).Seconds())
	monitoring.StoreOperations.WithLabelValues(table, op, outcome(err)).Inc()

	// expected outcomes are not span errors
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEntityExists) || errors.Is(err, ErrVersionConflict) {
		span.SetAttributes(attribute.String("tablestore.outcome", outcome(err)))
		tracing.EndSpan(span, nil)
	} else {
		tracing.EndSpan(span, err)
	}
	return err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrEntityExists):
		return "exists"
	case errors.Is(err, ErrVersionConflict):
		return "version_conflict"
	default:
		return "error"
	}
}

func (s *instrumentedStore) Get(ctx context.Context, table, pk, rk string) (*Entity, error) {
	var e *Entity
	err := s.observe(ctx, table, "get", func(ctx context.Context) error {
		var err error
		e, err = s.next.Get(ctx, table, pk, rk)
		return err
	})
	return e, err
}

func (s *instrumentedStore) Insert(ctx context.Context, table string, e *Entity) error {
	return s.observe(ctx, table, "insert", func(ctx context.Context) error {
		return s.next.Insert(ctx, table, e)
	})
}

func (s *instrumentedStore) Upsert(ctx context.Context, table string, e *Entity) error {
	return s.observe(ctx, table, "upsert", func(ctx context.Context) error {
		return s.next.Upsert(ctx, table, e)
	})
}

func (s *instrumentedStore) Update(ctx context.Context, table string, e *Entity, etag string) error {
	return s.observe(ctx, table, "update", func(ctx context.Context) error {
		return s.next.Update(ctx, table, e, etag)
	})
}

func (s *instrumentedStore) QueryPartition(ctx context.Context, table, pk string) ([]*Entity, error) {
	var out []*Entity
	err := s.observe(ctx, table, "query", func(ctx context.Context) error {
		var err error
		out, err = s.next.QueryPartition(ctx, table, pk)
		return err
	})
	return out, err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	return s.observe(ctx, "", "ping", s.next.Ping)
}
