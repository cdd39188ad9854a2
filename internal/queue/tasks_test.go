package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"

	"rag-platform/models"
)

type fakeChunker struct{}

func (fakeChunker) Split(doc models.Document) []models.Chunk {
	return []models.Chunk{{ChunkID: "c1", Text: doc.Text, Metadata: doc.Metadata}}
}

type fakeIngestor struct {
	docs []models.Document
}

func (f *fakeIngestor) IngestAll(ctx context.Context, docs []models.Document) int {
	f.docs = append(f.docs, docs...)
	return len(docs)
}

func (f *fakeIngestor) IngestIfNew(ctx context.Context, doc models.Document) (bool, error) {
	f.docs = append(f.docs, doc)
	return true, nil
}

type fakeFileLoader struct {
	doc models.Document
	err error
}

func (f fakeFileLoader) Load(path string) (models.Document, error) { return f.doc, f.err }

type fakePages struct {
	docs []models.Document
}

func (f fakePages) LoadAll(ctx context.Context, urls []string) []models.Document { return f.docs }

func TestTextIngestTaskRoundTrip(t *testing.T) {
	task, err := NewTextIngestTask("some text", map[string]string{"source": "api"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Type() != TaskIngestText {
		t.Fatalf("task type %q", task.Type())
	}

	var payload TextIngestPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Text != "some text" || payload.Metadata["source"] != "api" {
		t.Fatalf("payload %+v", payload)
	}
}

func TestHandleTextIngest(t *testing.T) {
	ing := &fakeIngestor{}
	p := NewTaskProcessor(fakeChunker{}, ing, fakeFileLoader{}, fakePages{})

	task, _ := NewTextIngestTask("the author who commented most is Erick", nil)
	if err := p.HandleTextIngest(context.Background(), task); err != nil {
		t.Fatalf("handle error: %v", err)
	}
	if len(ing.docs) != 1 {
		t.Fatalf("ingested %d docs, want 1", len(ing.docs))
	}
	if ing.docs[0].Text != "the author who commented most is Erick" {
		t.Fatalf("wrong text ingested: %q", ing.docs[0].Text)
	}
}

func TestHandleTextIngestBadPayloadSkipsRetry(t *testing.T) {
	p := NewTaskProcessor(fakeChunker{}, &fakeIngestor{}, fakeFileLoader{}, fakePages{})

	task := asynq.NewTask(TaskIngestText, []byte("not json"))
	err := p.HandleTextIngest(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}

func TestHandleFileIngestLoadErrorIsRetryable(t *testing.T) {
	p := NewTaskProcessor(fakeChunker{}, &fakeIngestor{}, fakeFileLoader{err: errors.New("no such file")}, fakePages{})

	task, _ := NewFileIngestTask("/tmp/missing.pdf")
	err := p.HandleFileIngest(context.Background(), task)
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatal("load failures should stay retryable")
	}
}

func TestHandleSourceRefresh(t *testing.T) {
	ing := &fakeIngestor{}
	pages := fakePages{docs: []models.Document{{Text: "refreshed page content"}}}
	p := NewTaskProcessor(fakeChunker{}, ing, fakeFileLoader{}, pages)

	task, _ := NewSourceRefreshTask("https://example.com")
	if err := p.HandleSourceRefresh(context.Background(), task); err != nil {
		t.Fatalf("handle error: %v", err)
	}
	if len(ing.docs) != 1 {
		t.Fatalf("ingested %d docs, want 1", len(ing.docs))
	}
}

func TestHandleSourceRefreshEmptyLoadFails(t *testing.T) {
	p := NewTaskProcessor(fakeChunker{}, &fakeIngestor{}, fakeFileLoader{}, fakePages{})

	task, _ := NewSourceRefreshTask("https://example.com/unreachable")
	if err := p.HandleSourceRefresh(context.Background(), task); err == nil {
		t.Fatal("expected error when nothing loads")
	}
}
