package pipeline

import (
	"context"
	"fmt"

	"github.com/dgallion1/pagelens/internal/chunker"
	"github.com/dgallion1/pagelens/internal/rag"
)

// execute performs one run. The caller has already moved the state to Running.
func (o *Orchestrator) execute(ctx context.Context) {
	log := o.log
	finished := false
	defer func() {
		if r := recover(); r != nil {
			log.Error("summary run panicked", "panic", fmt.Sprint(r))
			o.finish(StateFailed, FailedMessage)
			return
		}
		if !finished {
			o.finish(StateFailed, FailedMessage)
		}
	}()

	log.Info("summary run started")

	// Phase 1: Extract
	ext := o.extract()
	o.mu.Lock()
	o.url = ext.URL
	o.extractSuccess = ext.ExtractSuccess
	o.sections = len(ext.Sections)
	o.chunks = 0
	o.mu.Unlock()
	log = log.With("url", ext.URL)

	if !ext.ExtractSuccess {
		log.Warn("no readable content")
		finished = true
		o.finish(StateIdle, NoContentMessage)
		return
	}

	// Phase 2: Chunk
	chunks := chunker.Build(ext, o.opts.NewID)
	stats := chunker.Summarize(chunks)
	o.mu.Lock()
	o.chunks = stats.Chunks
	o.mu.Unlock()
	log.Info("extracted page",
		"sections", len(ext.Sections),
		"blocks", ext.BlockCount(),
		"chunks", stats.Chunks,
		"est_tokens", stats.Tokens,
	)

	// Phase 3: Index, awaited so retrieval sees the chunks.
	if err := o.collab.Embed(ctx, chunks); err != nil {
		log.Error("embed failed", "error", err)
		finished = true
		o.finish(StateFailed, FailedMessage)
		return
	}

	// Phase 4: Summarize
	summary, err := o.collab.Summarize(ctx, rag.SummarizeRequest{
		Query: SummaryQuery,
		URL:   ext.URL,
		TopK:  o.opts.SummaryTopK,
	})
	if err != nil {
		log.Error("summarize failed", "error", err)
		finished = true
		o.finish(StateFailed, FailedMessage)
		return
	}
	if summary == "" {
		summary = EmptySummaryMessage
	}

	finished = true
	o.finish(StateReady, summary)
	log.Info("summary ready", "chars", len(summary))
}
