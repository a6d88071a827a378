// Package session owns the per-page state (document, summary pipeline,
// chat history and highlight matcher) and dispatches boundary commands.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dgallion1/pagelens/internal/chat"
	"github.com/dgallion1/pagelens/internal/docview"
	"github.com/dgallion1/pagelens/internal/extractor"
	"github.com/dgallion1/pagelens/internal/highlight"
	"github.com/dgallion1/pagelens/internal/page"
	"github.com/dgallion1/pagelens/internal/pipeline"
)

// Deps are the collaborators and tunables shared by all sessions.
type Deps struct {
	Collaborator pipeline.Collaborator
	Pipeline     pipeline.Options
	Dwell        time.Duration
	Log          *slog.Logger
}

// Session is the state of one document load.
type Session struct {
	ID        string
	CreatedAt time.Time

	doc     docview.Document
	docMu   sync.Mutex
	orch    *pipeline.Orchestrator
	history *chat.History
	matcher *highlight.Matcher
	events  *Outbox
	log     *slog.Logger

	lastAccess atomic.Int64
	closed     atomic.Bool
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// New creates a session for doc. The summary pipeline does not run until Start.
func New(id string, doc docview.Document, deps Deps) *Session {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session_id", id)

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		doc:       doc,
		history:   chat.NewHistory(),
		events:    NewOutbox(0),
		log:       log,
	}
	s.lastAccess.Store(s.CreatedAt.UnixNano())
	s.orch = pipeline.New(s.extract, deps.Collaborator, deps.Pipeline, log)
	s.matcher = highlight.NewMatcher(doc, &s.docMu, s.events, deps.Dwell, log)
	return s
}

// Start kicks off the initial summary run in the background.
func (s *Session) Start(ctx context.Context) bool {
	return s.orch.Start(ctx)
}

// Pipeline exposes the orchestrator for synchronous callers such as the CLI.
func (s *Session) Pipeline() *pipeline.Orchestrator {
	return s.orch
}

func (s *Session) extract() page.Extraction {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	return extractor.ExtractPage(s.doc)
}

// Title returns the document title.
func (s *Session) Title() string {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	return s.doc.Title()
}

// URL returns the document url.
func (s *Session) URL() string {
	return s.doc.URL()
}

// Touch records activity for TTL eviction.
func (s *Session) Touch() {
	s.lastAccess.Store(time.Now().UnixNano())
}

func (s *Session) LastAccess() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

// Close tears the session down: pending highlight expiry is cancelled and
// the transcript is dropped. An in-flight summary run is left to settle.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.matcher.Close()
	s.history.Clear()
	s.log.Info("session closed")
}

// Render writes the current document markup, including applied markers.
func (s *Session) Render(w io.Writer) error {
	r, ok := s.doc.(interface{ Render(io.Writer) error })
	if !ok {
		return errors.New("document cannot be rendered")
	}
	s.docMu.Lock()
	defer s.docMu.Unlock()
	return r.Render(w)
}

// Summary answers the poller's side-effect-free "ready?" query.
func (s *Session) Summary() SummaryResponse {
	snap := s.orch.Snapshot()
	var summary *string
	if snap.Result != "" {
		summary = &snap.Result
	}
	return SummaryResponse{
		Summary:        summary,
		Ready:          snap.Ready(),
		URL:            snap.URL,
		ExtractSuccess: snap.ExtractSuccess,
	}
}

type handlerFunc func(s *Session, ctx context.Context, cmd Command) (any, error)

var handlers = map[Kind]handlerFunc{
	KindRequestPageSummary: handleRequestSummary,
	KindForceReload:        handleForceReload,
	KindGetChatHistory:     handleGetHistory,
	KindAddChatMessage:     handleAddMessage,
	KindClearChatHistory:   handleClearHistory,
	KindHighlightSource:    handleHighlight,
	KindAskQuestion:        handleAsk,
	KindGetEvents:          handleGetEvents,
}

var validate = validator.New()

// Dispatch runs cmd against the session and returns its response value.
func (s *Session) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	h, ok := handlers[cmd.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Kind)
	}
	s.Touch()
	return h(s, ctx, cmd)
}

func handleRequestSummary(s *Session, _ context.Context, _ Command) (any, error) {
	return s.Summary(), nil
}

func handleForceReload(s *Session, ctx context.Context, _ Command) (any, error) {
	if !s.orch.ForceReload(ctx) {
		s.log.Info("reload ignored, run in flight")
	}
	return SuccessResponse{Success: true}, nil
}

func handleGetHistory(s *Session, _ context.Context, _ Command) (any, error) {
	return HistoryResponse{History: s.history.Messages()}, nil
}

func handleAddMessage(s *Session, _ context.Context, cmd Command) (any, error) {
	if cmd.Message == nil {
		return nil, fmt.Errorf("%w: missing message", chat.ErrInvalidMessage)
	}
	if err := s.history.Append(*cmd.Message); err != nil {
		return nil, err
	}
	return SuccessResponse{Success: true}, nil
}

func handleClearHistory(s *Session, _ context.Context, _ Command) (any, error) {
	s.history.Clear()
	return SuccessResponse{Success: true}, nil
}

func handleHighlight(s *Session, _ context.Context, cmd Command) (any, error) {
	matches := s.matcher.Highlight(cmd.Text)
	return HighlightResponse{Success: true, Matches: matches}, nil
}

func handleGetEvents(s *Session, _ context.Context, _ Command) (any, error) {
	return EventsResponse{Events: s.events.Drain()}, nil
}

// handleAsk records the question, asks the collaborator and records the
// answer. A collaborator failure becomes an "Error: ..." answer.
func handleAsk(s *Session, ctx context.Context, cmd Command) (any, error) {
	if cmd.Question == "" {
		return nil, fmt.Errorf("%w: missing question", ErrInvalidCommand)
	}
	url := s.orch.ReadyURL()
	if url == "" {
		return nil, ErrNotReady
	}
	if err := s.history.Append(chat.Message{Role: chat.RoleQuestion, Text: cmd.Question}); err != nil {
		return nil, err
	}

	answer, err := s.orch.Answer(ctx, cmd.Question, url)
	if err != nil {
		s.log.Error("answer failed", "error", err)
		answer = "Error: " + err.Error()
	}
	if appendErr := s.history.Append(chat.Message{Role: chat.RoleAnswer, Text: answer}); appendErr != nil {
		return nil, appendErr
	}
	if err == nil && cmd.Highlight {
		s.matcher.Highlight(answer)
	}
	return AskResponse{Success: err == nil, Answer: answer}, nil
}
