package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"rag-platform/internal/logger"
	"rag-platform/internal/search"
	"rag-platform/internal/telemetry"
	"rag-platform/models"
)

// Fallback answers for the web pipeline's recoverable dead ends. Later
// stages do not run once a fallback fires.
const (
	NoWebSourcesFallback    = "I could not find any web sources for that question."
	NothingLoadableFallback = "I could not load content from any of the web sources found."
)

// PageLoader fetches a batch of URLs into documents, skipping pages that
// fail or carry no usable text.
type PageLoader interface {
	LoadAll(ctx context.Context, urls []string) []models.Document
}

// WebAnswerer answers a question by searching the web, ingesting what it
// finds and then retrieving over the enriched store.
type WebAnswerer struct {
	source        search.Source
	loader        PageLoader
	chunker       *Chunker
	ingestor      *Ingestor
	retriever     *Retriever
	synth         *Synthesizer
	topK          int
	minChunkChars int
	metrics       *telemetry.Metrics
}

func NewWebAnswerer(
	source search.Source,
	loader PageLoader,
	chunker *Chunker,
	ingestor *Ingestor,
	retriever *Retriever,
	synth *Synthesizer,
	topK, minChunkChars int,
	metrics *telemetry.Metrics,
) *WebAnswerer {
	return &WebAnswerer{
		source:        source,
		loader:        loader,
		chunker:       chunker,
		ingestor:      ingestor,
		retriever:     retriever,
		synth:         synth,
		topK:          topK,
		minChunkChars: minChunkChars,
		metrics:       metrics,
	}
}

// Answer runs the full pipeline: search, fetch, chunk, ingest, retrieve,
// synthesize. Unreachable or empty web sources produce a fallback answer
// and a nil error; only provider and store failures are errors.
func (w *WebAnswerer) Answer(ctx context.Context, question string) (string, error) {
	tracer := otel.Tracer("rag-platform")
	ctx, span := tracer.Start(ctx, "webrag.answer")
	defer span.End()
	span.SetAttributes(attribute.Int("question.length", len(question)))

	resultBlock, err := w.source.Search(ctx, question)
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}
	urls := search.ExtractURLs(resultBlock)
	if len(urls) == 0 {
		logger.Info("no web sources found", "question", question)
		return NoWebSourcesFallback, nil
	}
	span.SetAttributes(attribute.Int("web.urls", len(urls)))

	docs := w.loader.LoadAll(ctx, urls)
	if w.metrics != nil {
		w.metrics.RecordPagesFetched(len(docs))
	}
	if len(docs) == 0 {
		logger.Info("no loadable content in web sources", "urls", len(urls))
		return NothingLoadableFallback, nil
	}

	var chunks []models.Chunk
	for _, doc := range docs {
		chunks = append(chunks, w.chunker.Split(doc)...)
	}
	chunks = FilterShort(chunks, w.minChunkChars)

	batch := make([]models.Document, len(chunks))
	for i, ch := range chunks {
		batch[i] = ch.AsDocument()
	}
	inserted := w.ingestor.IngestAll(ctx, batch)
	logger.Info("web content ingested",
		"pages", len(docs),
		"chunks", len(chunks),
		"inserted", inserted,
	)
	span.SetAttributes(
		attribute.Int("ingest.chunks", len(chunks)),
		attribute.Int("ingest.inserted", inserted),
	)

	passages, err := w.retriever.Retrieve(ctx, question, w.topK)
	if err != nil {
		return "", err
	}
	return w.synth.Synthesize(ctx, question, BuildContext(passages))
}
