package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-platform/models"
)

type fakeSearchSource struct {
	result string
	err    error
	calls  int
}

func (f *fakeSearchSource) Search(ctx context.Context, query string) (string, error) {
	f.calls++
	return f.result, f.err
}

type fakePageLoader struct {
	docs  []models.Document
	calls int
	urls  []string
}

func (f *fakePageLoader) LoadAll(ctx context.Context, urls []string) []models.Document {
	f.calls++
	f.urls = urls
	return f.docs
}

func newTestWebAnswerer(source *fakeSearchSource, loader *fakePageLoader, st *fakeStore, gen *fakeGenerator) *WebAnswerer {
	chunker, _ := NewChunker(1000, 200)
	ingestor := newTestIngestor(st, 2)
	retriever := NewRetriever(st, 4)
	synth := NewSynthesizer(gen, 0, 2, nil)
	return NewWebAnswerer(source, loader, chunker, ingestor, retriever, synth, 4, 0, nil)
}

func TestWebAnswerNoSourcesFallback(t *testing.T) {
	source := &fakeSearchSource{result: "Some result block without any links in it."}
	loader := &fakePageLoader{}
	st := &fakeStore{}
	gen := &fakeGenerator{}
	w := newTestWebAnswerer(source, loader, st, gen)

	answer, err := w.Answer(context.Background(), "who is Erick?")
	if err != nil {
		t.Fatalf("answer error: %v", err)
	}
	if answer != NoWebSourcesFallback {
		t.Fatalf("got %q, want the no-sources fallback", answer)
	}
	if loader.calls != 0 {
		t.Fatal("loader should not run when no URLs were found")
	}
	if st.count() != 0 || gen.calls != 0 {
		t.Fatal("later stages should not run when no URLs were found")
	}
}

func TestWebAnswerNothingLoadableFallback(t *testing.T) {
	source := &fakeSearchSource{result: "Result\nhttps://example.com/a\nSnippet\n\nResult\nhttps://example.com/b\nSnippet\n"}
	loader := &fakePageLoader{} // loads nothing
	st := &fakeStore{}
	gen := &fakeGenerator{}
	w := newTestWebAnswerer(source, loader, st, gen)

	answer, err := w.Answer(context.Background(), "who is Erick?")
	if err != nil {
		t.Fatalf("answer error: %v", err)
	}
	if answer != NothingLoadableFallback {
		t.Fatalf("got %q, want the nothing-loadable fallback", answer)
	}
	if loader.calls != 1 {
		t.Fatalf("loader ran %d times, want 1", loader.calls)
	}
	if len(loader.urls) != 2 {
		t.Fatalf("loader got %d urls, want 2", len(loader.urls))
	}
	if st.count() != 0 || gen.calls != 0 {
		t.Fatal("later stages should not run when nothing was loadable")
	}
}

func TestWebAnswerHappyPath(t *testing.T) {
	source := &fakeSearchSource{result: "Result\nhttps://example.com/erick\nSnippet\n"}
	loader := &fakePageLoader{docs: []models.Document{{
		Text:     "the author who commented most is Erick",
		Metadata: map[string]string{"source": "https://example.com/erick"},
	}}}
	st := &fakeStore{}
	gen := &fakeGenerator{answer: "Erick commented the most."}
	w := newTestWebAnswerer(source, loader, st, gen)

	answer, err := w.Answer(context.Background(), "who commented most?")
	if err != nil {
		t.Fatalf("answer error: %v", err)
	}
	if answer != "Erick commented the most." {
		t.Fatalf("unexpected answer %q", answer)
	}
	if st.count() != 1 {
		t.Fatalf("store has %d records, want 1", st.count())
	}
	if st.records[0].Source != "https://example.com/erick" {
		t.Fatalf("record source %q", st.records[0].Source)
	}
	if gen.calls != 1 {
		t.Fatalf("generator called %d times, want 1", gen.calls)
	}
}

func TestWebAnswerSearchErrorPropagates(t *testing.T) {
	source := &fakeSearchSource{err: errors.New("quota exceeded")}
	w := newTestWebAnswerer(source, &fakePageLoader{}, &fakeStore{}, &fakeGenerator{})

	if _, err := w.Answer(context.Background(), "question"); err == nil {
		t.Fatal("expected error from a failing search provider")
	}
}

func TestWebAnswerGroundsInStoredAndFetchedContent(t *testing.T) {
	// Content ingested before the web run must still reach the prompt
	// alongside the freshly fetched pages.
	st := &fakeStore{}
	ctx := context.Background()
	seeded := newTestIngestor(st, 1)
	if _, err := seeded.IngestIfNew(ctx, models.Document{Text: "the author who commented most is Erick"}); err != nil {
		t.Fatalf("seed ingest: %v", err)
	}

	source := &fakeSearchSource{result: "Result\nhttps://example.com/stats\nSnippet\n"}
	loader := &fakePageLoader{docs: []models.Document{{
		Text:     "comment statistics for the project over the last year",
		Metadata: map[string]string{"source": "https://example.com/stats"},
	}}}
	gen := &fakeGenerator{answer: "Erick."}
	w := newTestWebAnswerer(source, loader, st, gen)

	if _, err := w.Answer(ctx, "who commented most?"); err != nil {
		t.Fatalf("answer error: %v", err)
	}
	if !strings.Contains(gen.lastPrompt, "the author who commented most is Erick") {
		t.Fatal("previously stored passage missing from the prompt")
	}
	if !strings.Contains(gen.lastPrompt, "comment statistics for the project") {
		t.Fatal("freshly fetched content missing from the prompt")
	}
}

func TestWebAnswerSecondRunSkipsDuplicates(t *testing.T) {
	source := &fakeSearchSource{result: "Result\nhttps://example.com/erick\nSnippet\n"}
	loader := &fakePageLoader{docs: []models.Document{{
		Text: "the author who commented most is Erick",
	}}}
	st := &fakeStore{}
	gen := &fakeGenerator{answer: "Erick."}
	w := newTestWebAnswerer(source, loader, st, gen)
	ctx := context.Background()

	if _, err := w.Answer(ctx, "who commented most?"); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if _, err := w.Answer(ctx, "who commented most?"); err != nil {
		t.Fatalf("second answer: %v", err)
	}
	if st.count() != 1 {
		t.Fatalf("store has %d records after two runs, want 1", st.count())
	}
}
