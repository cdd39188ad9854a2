package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the pipeline's counters and histograms.
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	RecordsIngested   metric.Int64Counter
	DuplicatesSkipped metric.Int64Counter
	PagesFetched      metric.Int64Counter
	GenerationCalls   metric.Int64Counter
}

// InitMetrics registers all pipeline metrics on the global meter.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("rag-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	recordsIngested, err := meter.Int64Counter(
		"ingest.records.inserted",
		metric.WithDescription("Records inserted into the vector store"),
	)
	if err != nil {
		return nil, err
	}

	duplicatesSkipped, err := meter.Int64Counter(
		"ingest.records.duplicates",
		metric.WithDescription("Documents skipped as duplicates"),
	)
	if err != nil {
		return nil, err
	}

	pagesFetched, err := meter.Int64Counter(
		"webloader.pages.fetched",
		metric.WithDescription("Web pages fetched for ingestion"),
	)
	if err != nil {
		return nil, err
	}

	generationCalls, err := meter.Int64Counter(
		"ai.generation.calls",
		metric.WithDescription("Generation provider invocations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		RecordsIngested:   recordsIngested,
		DuplicatesSkipped: duplicatesSkipped,
		PagesFetched:      pagesFetched,
		GenerationCalls:   generationCalls,
	}, nil
}

// RecordRequest records HTTP request metrics.
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}
	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordPagesFetched records web pages successfully loaded.
func (m *Metrics) RecordPagesFetched(n int) {
	if n > 0 {
		m.PagesFetched.Add(context.Background(), int64(n))
	}
}

// RecordGeneration counts one generation provider call.
func (m *Metrics) RecordGeneration(model string) {
	m.GenerationCalls.Add(context.Background(), 1, metric.WithAttributes(attribute.String("ai.model", model)))
}

// RecordIngest records the outcome of one ingestion decision.
func (m *Metrics) RecordIngest(inserted bool, index string) {
	attrs := metric.WithAttributes(attribute.String("store.index", index))
	if inserted {
		m.RecordsIngested.Add(context.Background(), 1, attrs)
	} else {
		m.DuplicatesSkipped.Add(context.Background(), 1, attrs)
	}
}
