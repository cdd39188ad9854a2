package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"rag-platform/models"
)

const (
	TaskIngestText    = "ingest:text"
	TaskIngestFile    = "ingest:file"
	TaskRefreshSource = "ingest:source"
)

type TextIngestPayload struct {
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type FileIngestPayload struct {
	FilePath string `json:"file_path"`
}

type SourceRefreshPayload struct {
	URL string `json:"url"`
}

// Task creators
func NewTextIngestTask(text string, metadata map[string]string) (*asynq.Task, error) {
	payload, err := json.Marshal(TextIngestPayload{Text: text, Metadata: metadata})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestText,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("default"),
	), nil
}

func NewFileIngestTask(filePath string) (*asynq.Task, error) {
	payload, err := json.Marshal(FileIngestPayload{FilePath: filePath})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestFile,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

func NewSourceRefreshTask(url string) (*asynq.Task, error) {
	payload, err := json.Marshal(SourceRefreshPayload{URL: url})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskRefreshSource,
		payload,
		asynq.MaxRetry(5),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}

// Chunker splits a document into ingestable chunks.
type Chunker interface {
	Split(doc models.Document) []models.Chunk
}

// Ingestor writes documents, skipping duplicates.
type Ingestor interface {
	IngestAll(ctx context.Context, docs []models.Document) int
	IngestIfNew(ctx context.Context, doc models.Document) (bool, error)
}

// FileLoader reads a local file into a document.
type FileLoader interface {
	Load(path string) (models.Document, error)
}

// PageLoader fetches URLs into documents.
type PageLoader interface {
	LoadAll(ctx context.Context, urls []string) []models.Document
}

// Task handlers
type TaskProcessor struct {
	chunker    Chunker
	ingestor   Ingestor
	fileLoader FileLoader
	pageLoader PageLoader
}

func NewTaskProcessor(chunker Chunker, ingestor Ingestor, fileLoader FileLoader, pageLoader PageLoader) *TaskProcessor {
	return &TaskProcessor{
		chunker:    chunker,
		ingestor:   ingestor,
		fileLoader: fileLoader,
		pageLoader: pageLoader,
	}
}

func (p *TaskProcessor) HandleTextIngest(ctx context.Context, t *asynq.Task) error {
	var payload TextIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	doc := models.Document{Text: payload.Text, Metadata: payload.Metadata}
	inserted := p.ingestDocument(ctx, doc)
	log.Printf("Text ingest task done: chars=%d inserted=%d", len(payload.Text), inserted)
	return nil
}

func (p *TaskProcessor) HandleFileIngest(ctx context.Context, t *asynq.Task) error {
	var payload FileIngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	log.Printf("Processing file ingest: path=%s", payload.FilePath)
	doc, err := p.fileLoader.Load(payload.FilePath)
	if err != nil {
		return err
	}

	inserted := p.ingestDocument(ctx, doc)
	log.Printf("File ingest task done: path=%s inserted=%d", payload.FilePath, inserted)
	return nil
}

func (p *TaskProcessor) HandleSourceRefresh(ctx context.Context, t *asynq.Task) error {
	var payload SourceRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	docs := p.pageLoader.LoadAll(ctx, []string{payload.URL})
	if len(docs) == 0 {
		return fmt.Errorf("no content loaded from %s", payload.URL)
	}

	total := 0
	for _, doc := range docs {
		total += p.ingestDocument(ctx, doc)
	}
	log.Printf("Source refresh task done: url=%s inserted=%d", payload.URL, total)
	return nil
}

func (p *TaskProcessor) ingestDocument(ctx context.Context, doc models.Document) int {
	chunks := p.chunker.Split(doc)
	batch := make([]models.Document, len(chunks))
	for i, ch := range chunks {
		batch[i] = ch.AsDocument()
	}
	return p.ingestor.IngestAll(ctx, batch)
}

// Mux registers all handlers on an asynq mux.
func (p *TaskProcessor) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskIngestText, p.HandleTextIngest)
	mux.HandleFunc(TaskIngestFile, p.HandleFileIngest)
	mux.HandleFunc(TaskRefreshSource, p.HandleSourceRefresh)
	return mux
}
