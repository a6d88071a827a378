package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/pagelens/internal/config"
)

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", &buf)
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.True(t, NewLogger("bogus", io.Discard).Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, NewLogger("bogus", io.Discard).Enabled(context.Background(), slog.LevelDebug))
}

func TestSessionDeps_FixedTunables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagelens.yaml")
	require.NoError(t, os.WriteFile(path, []byte("summary_top_k: 3\nhighlight_dwell: 60s\n"), 0o600))
	t.Setenv(config.FileEnv, path)
	t.Setenv("SUMMARY_TOP_K", "7")
	t.Setenv("ANSWER_TOP_K", "2")
	t.Setenv("HIGHLIGHT_DWELL", "1m")

	cfg, err := config.Load()
	require.NoError(t, err)
	a := New(cfg, NewLogger("info", io.Discard))

	deps := a.SessionDeps()
	assert.Same(t, a.RAG, deps.Collaborator)
	assert.Equal(t, 15, deps.Pipeline.SummaryTopK)
	assert.Equal(t, 16, deps.Pipeline.AnswerTopK)
	assert.Equal(t, 9*time.Second, deps.Dwell)
}

func TestServeListener_ShutsDownOnCancel(t *testing.T) {
	a := New(config.Defaults(), NewLogger("error", io.Discard))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.ServeListener(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "ok", body["status"])

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
