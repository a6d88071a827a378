package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dgallion1/pagelens/internal/docview"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (compatible; PageLens/1.0)"
	DefaultMaxBytes  = 10 << 20
)

// FetchError describes a failure to load a remote page.
type FetchError struct {
	URL        string
	Message    string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// FetchOptions configures FromURL.
type FetchOptions struct {
	Timeout    time.Duration
	UserAgent  string
	MaxBytes   int64
	ReaderMode bool
	Client     *http.Client
}

func (o FetchOptions) withDefaults() FetchOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: o.Timeout}
	}
	return o
}

// ValidateURL checks that rawURL is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &FetchError{URL: rawURL, Message: "invalid URL", Cause: err}
	}
	return nil
}

// FromURL downloads a page and builds a document from it. HTML responses
// are parsed directly; documents with a supported file extension or
// content type go through the matching converter.
func FromURL(ctx context.Context, rawURL string, opts FetchOptions) (*docview.HTMLDocument, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", opts.UserAgent)

	resp, err := opts.Client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: rawURL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Message: "failed to read response body", Cause: err}
	}
	if int64(len(body)) > opts.MaxBytes {
		return nil, &FetchError{URL: rawURL, Message: fmt.Sprintf("document exceeds %d bytes", opts.MaxBytes)}
	}

	if name := convertibleName(rawURL, resp.Header.Get("Content-Type")); name != "" {
		doc, err := FromFile(bytes.NewReader(body), name, rawURL)
		if err != nil {
			return nil, &FetchError{URL: rawURL, Message: "failed to convert document", Cause: err}
		}
		return doc, nil
	}

	doc, err := FromHTML(string(body), rawURL, opts.ReaderMode)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Message: "failed to parse page", Cause: err}
	}
	return doc, nil
}

var contentTypeExt = map[string]string{
	"application/pdf": ".pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	"text/markdown": ".md",
	"text/csv":      ".csv",
	"text/plain":    ".txt",
}

// convertibleName returns a filename whose extension selects a non-HTML
// converter, or "" when the response should be treated as HTML.
func convertibleName(rawURL, contentType string) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if ext, ok := contentTypeExt[mediaType]; ok {
		return "download" + ext
	}
	if mediaType == "text/html" || mediaType == "application/xhtml+xml" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf", ".docx", ".md", ".markdown", ".csv", ".txt":
		return name
	}
	return ""
}
