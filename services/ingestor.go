package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-platform/internal/logger"
	"rag-platform/internal/store"
	"rag-platform/internal/telemetry"
	"rag-platform/models"
	"rag-platform/utils"
)

// ingestLockTTL bounds how long a fingerprint stays locked if a worker
// dies mid-ingest.
const ingestLockTTL = 30 * time.Second

// IngestorConfig tunes duplicate detection and the ingestion pool.
type IngestorConfig struct {
	// Threshold is the similarity score above which a nearest neighbor
	// is considered a duplicate candidate. Content equality is still
	// required before skipping.
	Threshold float64
	// Index is the logical partition new records are written to.
	Index string
	// Concurrency bounds the worker pool used by IngestAll.
	Concurrency int
}

// Ingestor writes documents into the vector store, skipping content that
// is already present.
type Ingestor struct {
	store   store.VectorStore
	cfg     IngestorConfig
	rdb     *redis.Client
	metrics *telemetry.Metrics
}

// NewIngestor creates an ingestor. rdb and metrics may be nil; without
// redis the per-fingerprint lock is skipped and the unique store index
// remains the final guard against concurrent duplicates.
func NewIngestor(st store.VectorStore, cfg IngestorConfig, rdb *redis.Client, metrics *telemetry.Metrics) *Ingestor {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Ingestor{store: st, cfg: cfg, rdb: rdb, metrics: metrics}
}

// IngestIfNew inserts the document unless equivalent content is already
// stored. A document is a duplicate only when its nearest neighbor both
// scores above the threshold and carries the same content fingerprint.
// Returns true when a record was inserted.
func (ing *Ingestor) IngestIfNew(ctx context.Context, doc models.Document) (bool, error) {
	fp := utils.Fingerprint(doc.Text)

	if ing.rdb != nil {
		acquired, err := ing.rdb.SetNX(ctx, "ingest:lock:"+fp, 1, ingestLockTTL).Result()
		if err != nil {
			logger.Warn("ingest lock unavailable, proceeding without it", "error", err)
		} else if !acquired {
			// Identical content is being ingested right now elsewhere.
			ing.recordOutcome(false)
			return false, nil
		} else {
			defer ing.rdb.Del(context.WithoutCancel(ctx), "ingest:lock:"+fp)
		}
	}

	results, err := ing.store.NearestNeighbors(ctx, doc.Text, 1)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	if len(results) > 0 && results[0].Score > ing.cfg.Threshold && sameContent(results[0].Record, fp, doc.Text) {
		logger.Debug("skipping duplicate document",
			"fingerprint", fp,
			"score", results[0].Score,
		)
		ing.recordOutcome(false)
		return false, nil
	}

	rec := store.Record{
		Text:        doc.Text,
		Fingerprint: fp,
		Index:       ing.cfg.Index,
		Source:      doc.Metadata["source"],
		Metadata:    doc.Metadata,
	}
	if err := ing.store.Insert(ctx, rec); err != nil {
		return false, fmt.Errorf("insert record: %w", err)
	}
	ing.recordOutcome(true)
	return true, nil
}

// IngestAll ingests documents through a bounded worker pool and returns
// how many were actually inserted. Individual failures are logged and
// skipped so one bad document does not abort a batch.
func (ing *Ingestor) IngestAll(ctx context.Context, docs []models.Document) int {
	if len(docs) == 0 {
		return 0
	}

	sem := make(chan struct{}, ing.cfg.Concurrency)
	var wg sync.WaitGroup
	inserted := make([]bool, len(docs))

	for i, doc := range docs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, doc models.Document) {
			defer wg.Done()
			defer func() { <-sem }()

			ok, err := ing.IngestIfNew(ctx, doc)
			if err != nil {
				logger.Warn("document ingest failed, skipping", "error", err)
				return
			}
			inserted[i] = ok
		}(i, doc)
	}
	wg.Wait()

	count := 0
	for _, ok := range inserted {
		if ok {
			count++
		}
	}
	return count
}

func (ing *Ingestor) recordOutcome(inserted bool) {
	if ing.metrics != nil {
		ing.metrics.RecordIngest(inserted, ing.cfg.Index)
	}
}

// sameContent reports whether the stored record holds the same text as
// the candidate. Records written before fingerprints were stored fall
// back to comparing normalized text directly.
func sameContent(rec store.Record, fp, text string) bool {
	if rec.Fingerprint != "" {
		return rec.Fingerprint == fp
	}
	return utils.NormalizeText(rec.Text) == utils.NormalizeText(text)
}
