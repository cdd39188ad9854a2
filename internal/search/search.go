// Package search provides web search sources for the web-augmented
// answer pipeline.
package search

import "context"

// Source runs a web search and returns a human-readable result block;
// URLs are extracted from it with ExtractURLs. An empty result is a valid
// outcome, not an error.
type Source interface {
	Search(ctx context.Context, query string) (string, error)
}
