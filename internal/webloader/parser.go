package webloader

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractMainContent pulls readable text out of a page, preferring
// semantic content containers and stripping navigation chrome.
func ExtractMainContent(selection *goquery.Selection) string {
	doc := selection.Clone()

	doc.Find("script, style, noscript, nav, footer, header, aside, .nav, .navbar, .footer, .header, .sidebar, .advertisement, .ads").Remove()

	contentSelectors := []string{
		"main",
		"article",
		"[role='main']",
		".main-content",
		".content",
		"#content",
		".post",
		"body",
	}

	var content strings.Builder
	found := false
	for _, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 100 {
				content.WriteString(text)
				content.WriteString("\n\n")
				found = true
			}
		})
		if found {
			break
		}
	}
	if !found {
		content.WriteString(doc.Find("body").Text())
	}

	return collapseBlankLines(content.String())
}

func collapseBlankLines(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
