// Package pipeline runs the single-flight extract, index and summarize flow
// for one page session.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgallion1/pagelens/internal/chunker"
	"github.com/dgallion1/pagelens/internal/page"
	"github.com/dgallion1/pagelens/internal/rag"
)

// Collaborator indexes chunks and answers retrieval queries. *rag.Client satisfies it.
type Collaborator interface {
	Embed(ctx context.Context, chunks []page.Chunk) error
	Summarize(ctx context.Context, req rag.SummarizeRequest) (string, error)
}

// ExtractFunc produces the extraction for a run. Callers that share the
// document with other goroutines serialize access inside it.
type ExtractFunc func() page.Extraction

// Options tunes a run. Zero values fall back to defaults.
type Options struct {
	SummaryTopK int
	AnswerTopK  int
	NewID       chunker.IDFunc
}

const (
	DefaultSummaryTopK = 15
	DefaultAnswerTopK  = 16
)

// Orchestrator holds the run state machine. At most one run is in flight.
type Orchestrator struct {
	state   atomic.Int32
	extract ExtractFunc
	collab  Collaborator
	opts    Options
	log     *slog.Logger

	mu             sync.Mutex
	result         string
	url            string
	extractSuccess bool
	sections       int
	chunks         int
	readyURL       string

	wg sync.WaitGroup
}

func New(extract ExtractFunc, collab Collaborator, opts Options, log *slog.Logger) *Orchestrator {
	if opts.SummaryTopK <= 0 {
		opts.SummaryTopK = DefaultSummaryTopK
	}
	if opts.AnswerTopK <= 0 {
		opts.AnswerTopK = DefaultAnswerTopK
	}
	if opts.NewID == nil {
		opts.NewID = chunker.NewID
	}
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		extract: extract,
		collab:  collab,
		opts:    opts,
		log:     log,
	}
}

// Start begins a run in the background and reports whether one was started.
// It returns false without side effects while another run is in flight.
// The run is detached from ctx cancellation.
func (o *Orchestrator) Start(ctx context.Context) bool {
	if !o.begin() {
		return false
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.execute(context.WithoutCancel(ctx))
	}()
	return true
}

// Run is Start on the caller's goroutine: it returns once the run settles.
func (o *Orchestrator) Run(ctx context.Context) bool {
	if !o.begin() {
		return false
	}
	o.wg.Add(1)
	defer o.wg.Done()
	o.execute(ctx)
	return true
}

// ForceReload starts a new run even when a result exists. It is a no-op
// while a run is in flight.
func (o *Orchestrator) ForceReload(ctx context.Context) bool {
	return o.Start(ctx)
}

// Wait blocks until no run is in flight.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		State:          o.State(),
		Result:         o.result,
		URL:            o.url,
		ExtractSuccess: o.extractSuccess,
		Sections:       o.sections,
		Chunks:         o.chunks,
		ReadyURL:       o.readyURL,
	}
}

// ReadyURL returns the url of the last run that reached Ready, or "".
func (o *Orchestrator) ReadyURL() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.readyURL
}

// begin moves any non-running state to Running and clears the previous result.
func (o *Orchestrator) begin() bool {
	for {
		cur := o.state.Load()
		if State(cur) == StateRunning {
			return false
		}
		if o.state.CompareAndSwap(cur, int32(StateRunning)) {
			break
		}
	}
	o.mu.Lock()
	o.result = ""
	o.mu.Unlock()
	return true
}

// finish stores the outcome and releases the single-flight guard.
func (o *Orchestrator) finish(state State, result string) {
	o.mu.Lock()
	o.result = result
	if state == StateReady {
		o.readyURL = o.url
	}
	o.mu.Unlock()
	o.state.Store(int32(state))
}

// Answer asks the summarization collaborator a question about the page at url.
// An empty reply is returned as NoAnswerMessage.
func (o *Orchestrator) Answer(ctx context.Context, question, url string) (string, error) {
	answer, err := o.collab.Summarize(ctx, rag.SummarizeRequest{
		Query: AnswerPrompt(question),
		URL:   url,
		TopK:  o.opts.AnswerTopK,
	})
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	if answer == "" {
		return NoAnswerMessage, nil
	}
	return answer, nil
}

// AnswerPrompt wraps a user question with the grounding preamble.
func AnswerPrompt(question string) string {
	return fmt.Sprintf("\nAnswer ONLY using the article.\nBe concise and factual.\n\nQuestion:\n%s\n", question)
}
