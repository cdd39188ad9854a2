// Package webloader fetches web pages and turns them into plain-text
// documents for ingestion.
package webloader

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	colly "github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"

	"rag-platform/internal/logger"
	"rag-platform/models"
)

var httpTransport = &http.Transport{
	DisableCompression: false,
}

// Config controls page fetching.
type Config struct {
	Timeout     time.Duration
	Parallelism int
	UserAgent   string
	// MinWords drops pages whose extracted text is too short to be worth
	// ingesting.
	MinWords int
	// RenderJS retries thin pages through a headless browser before
	// giving up on them.
	RenderJS      bool
	RenderTimeout time.Duration
}

// Loader fetches a batch of URLs concurrently. Individual fetch failures
// are logged and skipped; the batch always completes.
type Loader struct {
	cfg Config
}

// NewLoader creates a page loader.
func NewLoader(cfg Config) *Loader {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = 10
	}
	if cfg.RenderTimeout == 0 {
		cfg.RenderTimeout = 45 * time.Second
	}
	return &Loader{cfg: cfg}
}

// LoadAll fetches every URL and returns the documents that loaded. The
// returned slice may be shorter than the input, down to empty when no
// page was loadable.
func (l *Loader) LoadAll(ctx context.Context, urls []string) []models.Document {
	if len(urls) == 0 {
		return nil
	}

	c := colly.NewCollector(
		colly.Async(true),
		colly.MaxDepth(1),
	)
	c.WithTransport(httpTransport)
	c.SetRequestTimeout(l.cfg.Timeout)
	c.UserAgent = l.cfg.UserAgent
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: l.cfg.Parallelism,
	})

	var (
		mu   sync.Mutex
		docs []models.Document
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br")
	})

	// Fix up encodings before colly parses the body: gzip is handled by
	// the transport, brotli and non-UTF-8 charsets are not.
	c.OnResponse(func(r *colly.Response) {
		contentType := r.Headers.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml+xml") {
			return
		}

		var bodyReader io.Reader = bytes.NewReader(r.Body)
		if strings.Contains(r.Headers.Get("Content-Encoding"), "br") {
			decompressed, err := io.ReadAll(brotli.NewReader(bodyReader))
			if err == nil {
				r.Body = decompressed
				bodyReader = bytes.NewReader(decompressed)
			}
		}
		if len(r.Body) > 0 {
			if utf8Reader, err := charset.NewReader(bodyReader, contentType); err == nil {
				if decoded, readErr := io.ReadAll(utf8Reader); readErr == nil && len(decoded) > 0 {
					r.Body = decoded
				}
			}
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		pageURL := e.Request.URL.String()
		title := strings.TrimSpace(e.DOM.Find("title").Text())
		content := ExtractMainContent(e.DOM)

		if len(strings.Fields(content)) < l.cfg.MinWords && l.cfg.RenderJS {
			if rendered := l.renderAndExtract(ctx, pageURL); rendered != "" {
				content = rendered
			}
		}
		if len(strings.Fields(content)) < l.cfg.MinWords {
			logger.Warn("page too thin, skipping", "url", pageURL, "chars", len(content))
			return
		}

		mu.Lock()
		docs = append(docs, models.Document{
			Text: content,
			Metadata: map[string]string{
				"source": pageURL,
				"title":  title,
			},
		})
		mu.Unlock()
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Warn("failed to load url", "url", r.Request.URL.String(), "status", r.StatusCode, "error", err)
	})

	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		if err := c.Visit(u); err != nil {
			logger.Warn("failed to queue url", "url", u, "error", err)
		}
	}
	c.Wait()

	return docs
}

// Load fetches a single URL.
func (l *Loader) Load(ctx context.Context, url string) (models.Document, bool) {
	docs := l.LoadAll(ctx, []string{url})
	if len(docs) == 0 {
		return models.Document{}, false
	}
	return docs[0], true
}

func (l *Loader) renderAndExtract(ctx context.Context, pageURL string) string {
	html, err := renderPageHTML(ctx, pageURL, l.cfg.RenderTimeout, l.cfg.UserAgent)
	if err != nil {
		logger.Warn("js render failed", "url", pageURL, "error", err)
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return ExtractMainContent(doc.Selection)
}
