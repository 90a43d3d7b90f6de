// Package linkx finds URLs in message text and fetches preview metadata
// for them.
package linkx

import (
	"strings"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"mvdan.cc/xurls/v2"
)

var relaxed = xurls.Relaxed()

// Detect returns a loading preview for every distinct URL in text, in order
// of first occurrence. Scheme-less matches such as "example.com/a" get an
// http:// prefix. Bare e-mail addresses are skipped.
func Detect(text string) []models.LinkPreview {
	var links []models.LinkPreview
	seen := make(map[string]bool)

	for _, match := range relaxed.FindAllString(text, -1) {
		u := normalize(match)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		links = append(links, models.LinkPreview{URL: u, Loading: true})
	}
	return links
}

func normalize(match string) string {
	if strings.Contains(match, "://") {
		return match
	}
	if strings.Contains(match, "@") || strings.HasPrefix(strings.ToLower(match), "mailto:") {
		return ""
	}
	return "http://" + match
}

// Render is the display rule for a preview: errors render as nothing,
// loading previews as a placeholder, resolved ones as their metadata.
func Render(p models.LinkPreview) string {
	switch {
	case p.Error:
		return ""
	case p.Loading:
		return "loading preview for " + p.URL + " ..."
	}

	var parts []string
	if p.Title != "" {
		parts = append(parts, p.Title)
	}
	if p.Description != "" {
		parts = append(parts, p.Description)
	}
	if p.Image != "" {
		parts = append(parts, "image: "+p.Image)
	}
	if len(parts) == 0 {
		return p.URL
	}
	return strings.Join(parts, "\n")
}
