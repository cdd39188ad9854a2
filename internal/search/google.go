package search

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	customsearch "google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// DefaultResultCount is how many search hits a query requests when the
// caller does not override it. The Custom Search API caps a single page
// at 10 results.
const DefaultResultCount = 5

// GoogleSource runs queries against the Google Custom Search API.
type GoogleSource struct {
	svc     *customsearch.Service
	cseID   string
	results int64
}

// NewGoogleSource creates a search source backed by a Programmable Search
// Engine. Both the API key and the engine ID are required.
func NewGoogleSource(ctx context.Context, apiKey, cseID string, results int) (*GoogleSource, error) {
	if apiKey == "" || cseID == "" {
		return nil, fmt.Errorf("google search requires both an API key and an engine ID")
	}
	if results <= 0 || results > 10 {
		results = DefaultResultCount
	}

	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create customsearch service: %w", err)
	}

	return &GoogleSource{svc: svc, cseID: cseID, results: int64(results)}, nil
}

// Search returns one line per hit: title, link and snippet. Zero hits
// yields an empty string.
func (g *GoogleSource) Search(ctx context.Context, query string) (string, error) {
	tracer := otel.Tracer("web-search")
	ctx, span := tracer.Start(ctx, "search.google")
	defer span.End()
	span.SetAttributes(attribute.String("search.query", query))

	resp, err := g.svc.Cse.List().Q(query).Cx(g.cseID).Num(g.results).Context(ctx).Do()
	if err != nil {
		span.SetAttributes(attribute.Bool("search.error", true))
		return "", fmt.Errorf("custom search %q: %w", query, err)
	}

	span.SetAttributes(attribute.Int("search.hits", len(resp.Items)))

	var b strings.Builder
	for _, item := range resp.Items {
		fmt.Fprintf(&b, "%s\n%s\n%s\n\n", item.Title, item.Link, item.Snippet)
	}
	return b.String(), nil
}
