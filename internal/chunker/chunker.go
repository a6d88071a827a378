package chunker

import (
	"github.com/google/uuid"

	"github.com/dgallion1/pagelens/internal/page"
)

// IDFunc generates chunk ids. Ids must be unique within one run.
type IDFunc func() string

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// Build derives one chunk per block, in document order, annotated with the
// owning section heading and the page url. The selector is left unset.
func Build(ext page.Extraction, newID IDFunc) []page.Chunk {
	if newID == nil {
		newID = NewID
	}
	chunks := make([]page.Chunk, 0, ext.BlockCount())
	for _, section := range ext.Sections {
		for _, block := range section.Blocks {
			chunks = append(chunks, page.Chunk{
				ID:      newID(),
				Text:    block.Text,
				Section: section.Heading,
				URL:     ext.URL,
			})
		}
	}
	return chunks
}

// Stats summarizes a chunk set for logging.
type Stats struct {
	Chunks int
	Tokens int
}

// Summarize returns the chunk count and estimated token total.
func Summarize(chunks []page.Chunk) Stats {
	st := Stats{Chunks: len(chunks)}
	for _, c := range chunks {
		st.Tokens += EstimateTokens(c.Text)
	}
	return st
}
