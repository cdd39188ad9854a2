package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"rag-platform/internal/store"
	"rag-platform/models"
	"rag-platform/utils"
)

// fakeStore mimics embedding similarity: identical normalized text
// scores 1.0, any other pair scores looseScore.
type fakeStore struct {
	mu         sync.Mutex
	records    []store.Record
	looseScore float64
	searchErr  error
	insertErr  error
}

func (f *fakeStore) NearestNeighbors(ctx context.Context, query string, k int) ([]store.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	norm := utils.NormalizeText(query)
	results := make([]store.SearchResult, 0, len(f.records))
	for _, rec := range f.records {
		score := f.looseScore
		if utils.NormalizeText(rec.Text) == norm {
			score = 1.0
		}
		results = append(results, store.SearchResult{Record: rec, Score: score})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results, nil
}

func (f *fakeStore) Insert(ctx context.Context, rec store.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeStore) Close(ctx context.Context) error { return nil }

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func newTestIngestor(st store.VectorStore, concurrency int) *Ingestor {
	return NewIngestor(st, IngestorConfig{
		Threshold:   0.9,
		Index:       "general",
		Concurrency: concurrency,
	}, nil, nil)
}

func TestIngestIfNewInsertsFreshContent(t *testing.T) {
	st := &fakeStore{}
	ing := newTestIngestor(st, 1)

	inserted, err := ing.IngestIfNew(context.Background(), models.Document{
		Text:     "the author who commented most is Erick",
		Metadata: map[string]string{"source": "seed"},
	})
	if err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if !inserted {
		t.Fatal("fresh content should be inserted")
	}
	if st.count() != 1 {
		t.Fatalf("store has %d records, want 1", st.count())
	}

	rec := st.records[0]
	if rec.Fingerprint != utils.Fingerprint(rec.Text) {
		t.Fatalf("record fingerprint %q does not match content", rec.Fingerprint)
	}
	if rec.Index != "general" || rec.Source != "seed" {
		t.Fatalf("record partition or source wrong: %+v", rec)
	}
}

func TestIngestIfNewSkipsExactDuplicate(t *testing.T) {
	st := &fakeStore{}
	ing := newTestIngestor(st, 1)
	ctx := context.Background()
	doc := models.Document{Text: "the author who commented most is Erick"}

	if _, err := ing.IngestIfNew(ctx, doc); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	inserted, err := ing.IngestIfNew(ctx, doc)
	if err != nil {
		t.Fatalf("second ingest: %v", err)
	}
	if inserted {
		t.Fatal("duplicate should not be inserted")
	}
	if st.count() != 1 {
		t.Fatalf("store has %d records, want 1", st.count())
	}
}

func TestIngestIfNewIgnoresWhitespaceDifferences(t *testing.T) {
	st := &fakeStore{}
	ing := newTestIngestor(st, 1)
	ctx := context.Background()

	ing.IngestIfNew(ctx, models.Document{Text: "the author who commented most is Erick"})
	inserted, err := ing.IngestIfNew(ctx, models.Document{Text: "  the author\nwho commented   most is Erick "})
	if err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if inserted {
		t.Fatal("whitespace-only variant should be treated as a duplicate")
	}
}

func TestIngestIfNewHighScoreAloneIsNotADuplicate(t *testing.T) {
	// A near-identical embedding with different content must still be
	// stored.
	st := &fakeStore{looseScore: 0.95}
	ing := newTestIngestor(st, 1)
	ctx := context.Background()

	ing.IngestIfNew(ctx, models.Document{Text: "the author who commented most is Erick"})
	inserted, err := ing.IngestIfNew(ctx, models.Document{Text: "the author who commented most is Erika"})
	if err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if !inserted {
		t.Fatal("different content should be inserted despite the high score")
	}
	if st.count() != 2 {
		t.Fatalf("store has %d records, want 2", st.count())
	}
}

func TestIngestIfNewSearchErrorPropagates(t *testing.T) {
	st := &fakeStore{searchErr: errors.New("store down")}
	ing := newTestIngestor(st, 1)

	if _, err := ing.IngestIfNew(context.Background(), models.Document{Text: "anything"}); err == nil {
		t.Fatal("expected error when the duplicate check fails")
	}
}

func TestIngestAllCountsOnlyInsertions(t *testing.T) {
	st := &fakeStore{}
	ing := newTestIngestor(st, 1)

	docs := []models.Document{
		{Text: "the author who commented most is Erick"},
		{Text: "the author who commented most is Erick"},
		{Text: "a completely unrelated statement about databases"},
	}
	inserted := ing.IngestAll(context.Background(), docs)
	if inserted != 2 {
		t.Fatalf("got %d insertions, want 2", inserted)
	}
	if st.count() != 2 {
		t.Fatalf("store has %d records, want 2", st.count())
	}
}

func TestIngestAllConcurrentDistinctDocs(t *testing.T) {
	st := &fakeStore{}
	ing := newTestIngestor(st, 4)

	docs := make([]models.Document, 20)
	for i := range docs {
		docs[i] = models.Document{Text: fmt.Sprintf("distinct passage number %d about topic %d", i, i)}
	}
	inserted := ing.IngestAll(context.Background(), docs)
	if inserted != len(docs) {
		t.Fatalf("got %d insertions, want %d", inserted, len(docs))
	}
}

func TestIngestAllSkipsFailingDocuments(t *testing.T) {
	st := &fakeStore{insertErr: errors.New("write refused")}
	ing := newTestIngestor(st, 1)

	inserted := ing.IngestAll(context.Background(), []models.Document{
		{Text: "first passage"},
		{Text: "second passage"},
	})
	if inserted != 0 {
		t.Fatalf("got %d insertions, want 0", inserted)
	}
}

func TestIngestAllEmptyBatch(t *testing.T) {
	ing := newTestIngestor(&fakeStore{}, 4)
	if got := ing.IngestAll(context.Background(), nil); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
}
