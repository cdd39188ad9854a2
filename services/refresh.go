package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"rag-platform/internal/logger"
	"rag-platform/models"
)

// SourceRefresher periodically re-fetches a fixed set of URLs and
// re-ingests their content. Unchanged pages are skipped through the
// ingestor's duplicate detection, so a refresh only writes what actually
// changed.
type SourceRefresher struct {
	scheduler     *gocron.Scheduler
	loader        PageLoader
	chunker       *Chunker
	ingestor      *Ingestor
	sources       []string
	minChunkChars int
}

func NewSourceRefresher(loader PageLoader, chunker *Chunker, ingestor *Ingestor, sources []string, minChunkChars int) *SourceRefresher {
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	return &SourceRefresher{
		scheduler:     s,
		loader:        loader,
		chunker:       chunker,
		ingestor:      ingestor,
		sources:       sources,
		minChunkChars: minChunkChars,
	}
}

// Start schedules the refresh job and runs the scheduler in the
// background.
func (sr *SourceRefresher) Start(interval time.Duration) error {
	if len(sr.sources) == 0 {
		logger.Info("source refresher idle, no sources configured")
		return nil
	}
	_, err := sr.scheduler.Every(interval).Tag("source-refresh").Do(sr.refresh)
	if err != nil {
		return err
	}
	sr.scheduler.StartAsync()
	logger.Info("source refresher started", "sources", len(sr.sources), "interval", interval.String())
	return nil
}

// Stop halts the scheduler. A refresh already in flight finishes.
func (sr *SourceRefresher) Stop() {
	sr.scheduler.Stop()
}

func (sr *SourceRefresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	docs := sr.loader.LoadAll(ctx, sr.sources)
	if len(docs) == 0 {
		logger.Warn("source refresh loaded nothing", "sources", len(sr.sources))
		return
	}

	var chunks []models.Chunk
	for _, doc := range docs {
		chunks = append(chunks, sr.chunker.Split(doc)...)
	}
	chunks = FilterShort(chunks, sr.minChunkChars)

	batch := make([]models.Document, len(chunks))
	for i, ch := range chunks {
		batch[i] = ch.AsDocument()
	}
	inserted := sr.ingestor.IngestAll(ctx, batch)

	logger.Info("source refresh complete",
		"pages", len(docs),
		"chunks", len(chunks),
		"inserted", inserted,
		"took", time.Since(start).String(),
	)
}
