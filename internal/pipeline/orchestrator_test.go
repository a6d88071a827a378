package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/pagelens/internal/page"
	"github.com/dgallion1/pagelens/internal/rag"
)

type fakeCollab struct {
	mu        sync.Mutex
	embedded  [][]page.Chunk
	requests  []rag.SummarizeRequest
	calls     []string
	summary   string
	embedErr  error
	sumErr    error
	block     chan struct{}
	entered   chan struct{}
	panicking bool
}

func (f *fakeCollab) Embed(ctx context.Context, chunks []page.Chunk) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if f.panicking {
		panic("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedded = append(f.embedded, chunks)
	f.calls = append(f.calls, "embed")
	return f.embedErr
}

func (f *fakeCollab) Summarize(ctx context.Context, req rag.SummarizeRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.calls = append(f.calls, "summarize")
	return f.summary, f.sumErr
}

func (f *fakeCollab) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string { return strconv.FormatInt(n.Add(1), 10) }
}

func sampleExtraction() page.Extraction {
	return page.Extraction{
		URL:   "https://example.com/post",
		Title: "Post",
		Sections: []page.Section{
			{Heading: "Introduction", Blocks: []page.Block{{Text: "first block of text"}}},
			{Heading: "Results", Blocks: []page.Block{{Text: "second block"}, {Text: "third block"}}},
		},
		ExtractSuccess: true,
	}
}

func newTestOrchestrator(ext page.Extraction, collab Collaborator) *Orchestrator {
	return New(func() page.Extraction { return ext }, collab, Options{NewID: sequentialIDs()}, quietLogger())
}

func TestRun_Success(t *testing.T) {
	collab := &fakeCollab{summary: "The article argues X."}
	o := newTestOrchestrator(sampleExtraction(), collab)

	if !o.Run(context.Background()) {
		t.Fatal("expected run to start")
	}
	snap := o.Snapshot()
	if snap.State != StateReady {
		t.Fatalf("expected ready, got %s", snap.State)
	}
	if snap.Result != "The article argues X." || !snap.Ready() {
		t.Errorf("unexpected result %+v", snap)
	}
	if snap.ReadyURL != "https://example.com/post" {
		t.Errorf("expected ready url, got %q", snap.ReadyURL)
	}
	if got := collab.calls; len(got) != 2 || got[0] != "embed" || got[1] != "summarize" {
		t.Fatalf("expected embed then summarize, got %v", got)
	}
	chunks := collab.embedded[0]
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[2].Section != "Results" || chunks[2].URL != "https://example.com/post" || chunks[2].Selector != nil {
		t.Errorf("unexpected chunk %+v", chunks[2])
	}
	req := collab.requests[0]
	if req.Query != SummaryQuery || req.TopK != 15 || req.URL != "https://example.com/post" {
		t.Errorf("unexpected summarize request %+v", req)
	}
}

func TestRun_EmptySummary(t *testing.T) {
	o := newTestOrchestrator(sampleExtraction(), &fakeCollab{})
	o.Run(context.Background())
	snap := o.Snapshot()
	if snap.State != StateReady || snap.Result != EmptySummaryMessage {
		t.Errorf("expected ready with fallback text, got %+v", snap)
	}
}

func TestRun_NoContentMakesNoCalls(t *testing.T) {
	collab := &fakeCollab{summary: "unused"}
	o := newTestOrchestrator(page.Extraction{URL: "https://example.com", Sections: []page.Section{}}, collab)

	o.Run(context.Background())
	snap := o.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("expected idle, got %s", snap.State)
	}
	if snap.Result != NoContentMessage || snap.ExtractSuccess {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if n := collab.callCount(); n != 0 {
		t.Errorf("expected no collaborator calls, got %d", n)
	}
	if snap.ReadyURL != "" {
		t.Errorf("expected no ready url, got %q", snap.ReadyURL)
	}
}

func TestRun_EmbedFailure(t *testing.T) {
	collab := &fakeCollab{embedErr: errors.New("connection refused")}
	o := newTestOrchestrator(sampleExtraction(), collab)
	o.Run(context.Background())

	snap := o.Snapshot()
	if snap.State != StateFailed || snap.Result != FailedMessage {
		t.Errorf("expected failed, got %+v", snap)
	}
	if len(collab.requests) != 0 {
		t.Error("summarize must not run after a failed embed")
	}
}

func TestRun_SummarizeFailure(t *testing.T) {
	collab := &fakeCollab{sumErr: &rag.StatusError{Op: "summarize", StatusCode: 500}}
	o := newTestOrchestrator(sampleExtraction(), collab)
	o.Run(context.Background())
	if snap := o.Snapshot(); snap.State != StateFailed || snap.Result != FailedMessage {
		t.Errorf("expected failed, got %+v", snap)
	}
}

func TestRun_PanicReleasesGuard(t *testing.T) {
	collab := &fakeCollab{panicking: true}
	o := newTestOrchestrator(sampleExtraction(), collab)
	o.Run(context.Background())
	if snap := o.Snapshot(); snap.State != StateFailed || snap.Result != FailedMessage {
		t.Fatalf("expected failed after panic, got %+v", snap)
	}

	collab.panicking = false
	collab.summary = "recovered"
	if !o.Run(context.Background()) {
		t.Fatal("expected a new run after panic")
	}
	if o.Snapshot().Result != "recovered" {
		t.Errorf("unexpected result %q", o.Snapshot().Result)
	}
}

func TestStart_SingleFlight(t *testing.T) {
	collab := &fakeCollab{
		summary: "done",
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	o := newTestOrchestrator(sampleExtraction(), collab)

	if !o.Start(context.Background()) {
		t.Fatal("expected first start")
	}
	<-collab.entered

	if o.Start(context.Background()) {
		t.Error("second start while running must be a no-op")
	}
	if o.ForceReload(context.Background()) {
		t.Error("force reload while running must be a no-op")
	}
	snap := o.Snapshot()
	if snap.State != StateRunning || snap.Ready() {
		t.Errorf("expected running and not ready, got %+v", snap)
	}

	close(collab.block)
	o.Wait()

	if n := collab.callCount(); n != 2 {
		t.Errorf("expected exactly one embed and one summarize, got %d calls", n)
	}
	if o.Snapshot().Result != "done" {
		t.Errorf("unexpected result %q", o.Snapshot().Result)
	}
}

func TestStart_ConcurrentCallers(t *testing.T) {
	collab := &fakeCollab{summary: "ok", block: make(chan struct{})}
	o := newTestOrchestrator(sampleExtraction(), collab)

	var started atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if o.Start(context.Background()) {
				started.Add(1)
			}
		}()
	}
	wg.Wait()
	close(collab.block)
	o.Wait()

	if started.Load() != 1 {
		t.Errorf("expected exactly one run, got %d", started.Load())
	}
}

func TestForceReload_ClearsPreviousResult(t *testing.T) {
	collab := &fakeCollab{summary: "first"}
	o := newTestOrchestrator(sampleExtraction(), collab)
	o.Run(context.Background())

	collab.summary = "second"
	collab.block = make(chan struct{})
	collab.entered = make(chan struct{}, 1)
	if !o.ForceReload(context.Background()) {
		t.Fatal("expected reload to start")
	}
	<-collab.entered
	if r := o.Snapshot().Result; r != "" {
		t.Errorf("expected cleared result during run, got %q", r)
	}
	close(collab.block)
	o.Wait()
	if r := o.Snapshot().Result; r != "second" {
		t.Errorf("expected second result, got %q", r)
	}
}

func TestStart_DetachedFromCallerContext(t *testing.T) {
	collab := &fakeCollab{summary: "ok", block: make(chan struct{}), entered: make(chan struct{}, 1)}
	o := newTestOrchestrator(sampleExtraction(), collab)

	ctx, cancel := context.WithCancel(context.Background())
	o.Start(ctx)
	<-collab.entered
	cancel()
	close(collab.block)

	done := make(chan struct{})
	go func() { o.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not settle")
	}
	if o.State() != StateReady {
		t.Errorf("expected ready, got %s", o.State())
	}
}

func TestAnswer(t *testing.T) {
	collab := &fakeCollab{summary: "Because of Y."}
	o := newTestOrchestrator(sampleExtraction(), collab)

	got, err := o.Answer(context.Background(), "Why?", "https://example.com/post")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "Because of Y." {
		t.Errorf("unexpected answer %q", got)
	}
	req := collab.requests[0]
	if req.TopK != 16 || req.Query != AnswerPrompt("Why?") {
		t.Errorf("unexpected request %+v", req)
	}
	if o.State() != StateIdle {
		t.Error("answer must not touch the run state")
	}
}

func TestAnswer_EmptyAndError(t *testing.T) {
	collab := &fakeCollab{}
	o := newTestOrchestrator(sampleExtraction(), collab)
	got, err := o.Answer(context.Background(), "q", "u")
	if err != nil || got != NoAnswerMessage {
		t.Errorf("expected fallback answer, got %q, %v", got, err)
	}

	collab.sumErr = errors.New("timeout")
	if _, err := o.Answer(context.Background(), "q", "u"); err == nil {
		t.Error("expected error")
	}
}

func TestAnswerPrompt(t *testing.T) {
	want := "\nAnswer ONLY using the article.\nBe concise and factual.\n\nQuestion:\nWhat?\n"
	if got := AnswerPrompt("What?"); got != want {
		t.Errorf("unexpected prompt %q", got)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{StateIdle: "idle", StateRunning: "running", StateReady: "ready", StateFailed: "failed", State(9): "unknown"} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
