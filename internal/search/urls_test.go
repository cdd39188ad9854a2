package search

import "testing"

func TestExtractURLs(t *testing.T) {
	block := "First Result\nhttps://example.com/a\nA snippet.\n\nSecond Result\nhttp://example.org/b?q=1\nAnother snippet with https://example.com/a again.\n"

	urls := ExtractURLs(block)
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2: %v", len(urls), urls)
	}
	if urls[0] != "https://example.com/a" {
		t.Fatalf("first url %q", urls[0])
	}
	if urls[1] != "http://example.org/b?q=1" {
		t.Fatalf("second url %q", urls[1])
	}
}

func TestExtractURLsNoLinks(t *testing.T) {
	if got := ExtractURLs("nothing to see here, just prose"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := ExtractURLs(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
