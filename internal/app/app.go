// Package app wires configuration, collaborator clients and the session
// store into a runnable service.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/pagelens/internal/api"
	"github.com/dgallion1/pagelens/internal/config"
	"github.com/dgallion1/pagelens/internal/highlight"
	"github.com/dgallion1/pagelens/internal/ollama"
	"github.com/dgallion1/pagelens/internal/pipeline"
	"github.com/dgallion1/pagelens/internal/rag"
	"github.com/dgallion1/pagelens/internal/session"
)

const cleanupInterval = time.Minute

// App holds the long-lived clients shared by every session.
type App struct {
	Config   config.Config
	Log      *slog.Logger
	RAG      *rag.Client
	Ollama   *ollama.Client
	Sessions *session.Store
}

// NewLogger returns a JSON logger at the named level. Unknown levels fall
// back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func New(cfg config.Config, log *slog.Logger) *App {
	ragClient := rag.NewClient(cfg.RAGURL, cfg.CollaboratorTimeout)
	return &App{
		Config:   cfg,
		Log:      log,
		RAG:      ragClient,
		Ollama:   ollama.NewClient(cfg.OllamaURL, cfg.OllamaModel, cfg.CollaboratorTimeout).WithStats(ragClient.Stats),
		Sessions: session.NewStore(cfg.SessionTTL, cfg.MaxSessions, log),
	}
}

// SessionDeps returns the collaborators handed to each new session. Retrieval
// depths and the highlight dwell are fixed, not configurable.
func (a *App) SessionDeps() session.Deps {
	return session.Deps{
		Collaborator: a.RAG,
		Pipeline: pipeline.Options{
			SummaryTopK: pipeline.DefaultSummaryTopK,
			AnswerTopK:  pipeline.DefaultAnswerTopK,
		},
		Dwell: highlight.DefaultDwell,
		Log:   a.Log,
	}
}

// Handler builds the HTTP API over the app's session store.
func (a *App) Handler() http.Handler {
	return api.NewServer(a.Sessions, a.SessionDeps(), a.Ollama, a.RAG.Stats, a.Log, a.Config)
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+a.Config.Port)
	if err != nil {
		return err
	}
	return a.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (a *App) ServeListener(ctx context.Context, ln net.Listener) error {
	a.Sessions.Start(ctx, cleanupInterval)

	httpServer := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("starting pagelens", "addr", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		a.Log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)

		a.Sessions.Stop()
		a.RAG.Close()
		return err
	})
	return g.Wait()
}
