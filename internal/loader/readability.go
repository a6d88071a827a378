package loader

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// ReaderMode distills a page down to its main article and wraps the result
// in a standalone HTML page that keeps the article title.
func ReaderMode(src, rawURL string) (string, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("reader mode: parse url: %w", err)
	}

	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(src), parsedURL)
	if err != nil {
		return "", fmt.Errorf("reader mode: %w", err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = rawURL
	}
	m := newMarkup(title)
	m.raw(article.Content)
	return m.String(), nil
}
