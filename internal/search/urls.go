package search

import "regexp"

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// ExtractURLs pulls URL-shaped substrings out of a search result block,
// preserving order and dropping duplicates.
func ExtractURLs(result string) []string {
	matches := urlPattern.FindAllString(result, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	urls := make([]string, 0, len(matches))
	for _, m := range matches {
		if seen[m] {
			continue
		}
		seen[m] = true
		urls = append(urls, m)
	}
	return urls
}
