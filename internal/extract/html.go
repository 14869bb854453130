package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var contentSelectors = []string{"main", "article", "#content", ".content"}

var blankRuns = regexp.MustCompile(`[ \t]*\n[\s]*`)

// extractHTML prefers the main content area and drops scripts and styles.
func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html failed: %w", err)
	}
	doc.Find("script, style, noscript, nav, footer").Remove()

	text := ""
	for _, selector := range contentSelectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			text = selected.First().Text()
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		text = doc.Find("body").Text()
	}
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(text, "\n")), nil
}
