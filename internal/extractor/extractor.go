// Package extractor turns a live document into sections of readable blocks.
package extractor

import (
	"unicode/utf8"

	"github.com/dgallion1/pagelens/internal/docview"
	"github.com/dgallion1/pagelens/internal/page"
)

// ContentSelector lists the headings and block-level elements walked, in document order.
const ContentSelector = "h1,h2,h3,p,li,blockquote,article,section"

// MinTextLen is the minimum trimmed rendered length of a qualifying element.
const MinTextLen = 40

// IntroductionHeading titles the implicit section opened by blocks that
// appear before any qualifying heading.
const IntroductionHeading = "Introduction"

// ExtractPage walks doc and groups qualifying blocks under the preceding
// qualifying heading. It never fails; an empty result has ExtractSuccess=false.
func ExtractPage(doc docview.Document) page.Extraction {
	ext := page.Extraction{
		URL:      doc.URL(),
		Title:    doc.Title(),
		Sections: []page.Section{},
	}

	current := -1
	for _, el := range doc.Query(ContentSelector) {
		if !el.Visible() {
			continue
		}
		text := el.Text()
		if utf8.RuneCountInString(text) < MinTextLen {
			continue
		}
		ext.ExtractSuccess = true

		if isHeading(el.Tag()) {
			ext.Sections = append(ext.Sections, page.Section{Heading: text, Blocks: []page.Block{}})
			current = len(ext.Sections) - 1
			continue
		}
		if current < 0 {
			ext.Sections = append(ext.Sections, page.Section{Heading: IntroductionHeading, Blocks: []page.Block{}})
			current = len(ext.Sections) - 1
		}
		ext.Sections[current].Blocks = append(ext.Sections[current].Blocks, page.Block{Text: text})
	}
	return ext
}

func isHeading(tag string) bool {
	switch tag {
	case "h1", "h2", "h3":
		return true
	}
	return false
}
