package page

// Extraction is the structured result of walking a live document.
type Extraction struct {
	URL            string    `json:"url"`
	Title          string    `json:"title"`
	Sections       []Section `json:"sections"`
	ExtractSuccess bool      `json:"extractSuccess"`
}

// Section is a run of blocks under one heading, in document order.
type Section struct {
	Heading string  `json:"heading"`
	Blocks  []Block `json:"blocks"`
}

// Block is the rendered text of one visible leaf content element.
type Block struct {
	Text string `json:"text"`
}

// Chunk is a unit of extracted text plus provenance, submitted to the indexing service.
// Selector is not populated yet and encodes as null.
type Chunk struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Section  string  `json:"section"`
	Selector *string `json:"selector"`
	URL      string  `json:"url"`
}

// BlockCount returns the number of blocks across all sections.
func (e Extraction) BlockCount() int {
	n := 0
	for _, s := range e.Sections {
		n += len(s.Blocks)
	}
	return n
}
