package operations

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	apperrors "finscrape/internal/errors"
	"finscrape/internal/infrastructure"
	"finscrape/pkg/contracts/domain"
)

// BatchTracer provides OpenTelemetry instrumentation for work-list runs
type BatchTracer struct {
	tracer trace.Tracer

	itemsTotal          metric.Int64Counter
	missingFields       metric.Int64Counter
	sectionsUnavailable metric.Int64Counter
	registryMismatch    metric.Int64Counter
	itemDuration        metric.Float64Histogram
}

// NewBatchTracer creates the batch instruments on meter
func NewBatchTracer(tracer trace.Tracer, meter metric.Meter) (*BatchTracer, error) {
	itemsTotal, err := meter.Int64Counter(
		"batch_items_total",
		metric.WithDescription("Work items processed, by resolution outcome"),
	)
	if err != nil {
		return nil, err
	}
	missingFields, err := meter.Int64Counter(
		"batch_missing_fields_total",
		metric.WithDescription("Schema fields written as MISSING"),
	)
	if err != nil {
		return nil, err
	}
	sectionsUnavailable, err := meter.Int64Counter(
		"batch_sections_unavailable_total",
		metric.WithDescription("Statement sections that could not be reached"),
	)
	if err != nil {
		return nil, err
	}
	registryMismatch, err := meter.Int64Counter(
		"batch_registry_mismatch_total",
		metric.WithDescription("Items whose resolved symbol differed from the request"),
	)
	if err != nil {
		return nil, err
	}
	itemDuration, err := meter.Float64Histogram(
		"batch_item_duration_seconds",
		metric.WithDescription("Time to extract and persist one work item"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &BatchTracer{
		tracer:              tracer,
		itemsTotal:          itemsTotal,
		missingFields:       missingFields,
		sectionsUnavailable: sectionsUnavailable,
		registryMismatch:    registryMismatch,
		itemDuration:        itemDuration,
	}, nil
}

// NewBatchTracerFromProviders wires the tracer to initialized telemetry providers
func NewBatchTracerFromProviders(providers *infrastructure.OTelProviders) (*BatchTracer, error) {
	return NewBatchTracer(providers.Tracer, providers.Meter)
}

func noopBatchTracer() *BatchTracer {
	bt, _ := NewBatchTracer(
		tracenoop.NewTracerProvider().Tracer(infrastructure.InstrumentationName),
		metricnoop.NewMeterProvider().Meter(infrastructure.InstrumentationName),
	)
	return bt
}

// StartWorkList creates a span covering one work-list run
func (bt *BatchTracer) StartWorkList(ctx context.Context, workList string, total, nextIndex int) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "batch.work_list",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("work_list.name", workList),
			attribute.Int("work_list.rows", total),
			attribute.Int("work_list.next_index", nextIndex),
		),
	)
}

// EndWorkList closes the work-list span
func (bt *BatchTracer) EndWorkList(span trace.Span, summary Summary, err error) {
	span.SetAttributes(
		attribute.String("work_list.status", string(summary.Status)),
		attribute.Int("work_list.processed", summary.Processed),
	)
	infrastructure.RecordError(span, err)
	span.End()
}

// StartItem creates a span for one work item
func (bt *BatchTracer) StartItem(ctx context.Context, workList string, item domain.WorkItem) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "batch.item",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("work_list.name", workList),
			attribute.Int("item.index", item.Index),
			attribute.String("item.identifier", item.Identifier),
		),
	)
}

// RecordItem records the outcome metrics of one persisted record and ends its span
func (bt *BatchTracer) RecordItem(ctx context.Context, span trace.Span, workList string, rec *domain.Record, duration time.Duration) {
	outcome := strings.ToLower(string(rec.Resolution))
	listAttr := attribute.String("work_list", workList)

	bt.itemsTotal.Add(ctx, 1, metric.WithAttributes(listAttr, attribute.String("outcome", outcome)))
	bt.itemDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(listAttr))

	missing := rec.MissingCount()
	if missing > 0 {
		bt.missingFields.Add(ctx, int64(missing), metric.WithAttributes(listAttr))
	}
	if n := countSectionFailures(rec); n > 0 {
		bt.sectionsUnavailable.Add(ctx, int64(n), metric.WithAttributes(listAttr))
	}
	if rec.Resolution == domain.ResolutionMismatch {
		bt.registryMismatch.Add(ctx, 1, metric.WithAttributes(listAttr))
	}

	span.SetAttributes(
		attribute.String("item.resolution", string(rec.Resolution)),
		attribute.Int("item.missing_fields", missing),
	)
	span.End()
}

// FailItem ends an item span that could not be persisted
func (bt *BatchTracer) FailItem(span trace.Span, err error) {
	infrastructure.RecordError(span, err)
	span.End()
}

func countSectionFailures(rec *domain.Record) int {
	n := 0
	for _, err := range rec.Failures {
		if apperrors.IsType(err, apperrors.ErrTypeSectionUnavailable) {
			n++
		}
	}
	return n
}
