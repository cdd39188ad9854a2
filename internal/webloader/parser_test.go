package webloader

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseHTML(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc.Selection
}

func TestExtractMainContentPrefersArticle(t *testing.T) {
	html := `<html><body>
		<nav>Home | About | Contact and many more navigation entries to pad this out</nav>
		<article>` + strings.Repeat("The article body talks about Erick and his comments. ", 5) + `</article>
		<footer>Copyright 2026</footer>
	</body></html>`

	got := ExtractMainContent(parseHTML(t, html))
	if !strings.Contains(got, "Erick") {
		t.Fatal("article text missing from extraction")
	}
	if strings.Contains(got, "Home | About") {
		t.Fatal("navigation chrome should be stripped")
	}
	if strings.Contains(got, "Copyright") {
		t.Fatal("footer should be stripped")
	}
}

func TestExtractMainContentStripsScripts(t *testing.T) {
	html := `<html><body><main>` +
		strings.Repeat("Plenty of readable prose lives here for the extractor to find. ", 3) +
		`<script>var tracking = "should never appear";</script></main></body></html>`

	got := ExtractMainContent(parseHTML(t, html))
	if strings.Contains(got, "tracking") {
		t.Fatal("script contents leaked into extraction")
	}
	if !strings.Contains(got, "readable prose") {
		t.Fatal("main content missing")
	}
}

func TestExtractMainContentFallsBackToBody(t *testing.T) {
	html := `<html><body><p>Short page.</p></body></html>`

	got := ExtractMainContent(parseHTML(t, html))
	if !strings.Contains(got, "Short page.") {
		t.Fatalf("body fallback missing, got %q", got)
	}
}

func TestCollapseBlankLines(t *testing.T) {
	in := "first\n\n\n  second  \n\n\nthird\n"
	want := "first\nsecond\nthird"
	if got := collapseBlankLines(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
