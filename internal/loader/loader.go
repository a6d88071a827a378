// Package loader builds document views from raw HTML, remote pages,
// headless browser renders and uploaded files.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pagelens/internal/docview"
)

// Converter turns raw file bytes into an HTML page.
type Converter interface {
	Convert(r io.Reader, filename string) (string, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate converter for a filename.
func ForFile(filename string) (Converter, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextConverter{}, nil
	case ".md", ".markdown":
		return &MarkdownConverter{}, nil
	case ".csv":
		return &CSVConverter{}, nil
	case ".html", ".htm":
		return &HTMLConverter{}, nil
	case ".pdf":
		return &PDFConverter{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXConverter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// FromHTML parses markup into a document. When readerMode is set the page
// is first distilled to its main article.
func FromHTML(src, url string, readerMode bool) (*docview.HTMLDocument, error) {
	if readerMode {
		distilled, err := ReaderMode(src, url)
		if err != nil {
			return nil, err
		}
		src = distilled
	}
	doc, err := docview.Parse(strings.NewReader(src), url)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// FromFile converts an uploaded file by extension and parses the result.
func FromFile(r io.Reader, filename, url string) (*docview.HTMLDocument, error) {
	conv, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	src, err := conv.Convert(r, filename)
	if err != nil {
		return nil, err
	}
	if url == "" {
		url = "file://" + filepath.Base(filename)
	}
	return FromHTML(src, url, false)
}

// baseTitle strips the extension from a filename.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// readAll reads r fully; the pdf and docx readers need random access.
func readAll(r io.Reader) (*bytes.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return bytes.NewReader(data), nil
}
