// Package rag talks to the indexing and retrieval/summarization service.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/pagelens/internal/page"
)

// Client calls the /embed and /summarize endpoints of the retrieval service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	Stats      *LatencyStats
}

// NewClient creates a client. A zero timeout means requests never time out.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		Stats: NewLatencyStats(time.Hour),
	}
}

// SummarizeRequest is the body for POST /summarize.
type SummarizeRequest struct {
	Query string `json:"query"`
	URL   string `json:"url"`
	TopK  int    `json:"top_k"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

// StatusError is returned for non-success HTTP responses.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, truncate(e.Body, 200))
}

// Embed submits chunks for indexing. The response body is ignored.
func (c *Client) Embed(ctx context.Context, chunks []page.Chunk) error {
	if chunks == nil {
		chunks = []page.Chunk{}
	}
	_, err := c.post(ctx, "embed", "/embed", chunks)
	return err
}

// Summarize asks the service for a synthesized answer. An empty summary is
// returned as-is; callers pick their own fallback text.
func (c *Client) Summarize(ctx context.Context, req SummarizeRequest) (string, error) {
	body, err := c.post(ctx, "summarize", "/summarize", req)
	if err != nil {
		return "", err
	}
	var resp summarizeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode summarize response: %w", err)
	}
	return resp.Summary, nil
}

func (c *Client) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", op, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	c.Stats.Record(op, time.Since(start).Milliseconds())
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
