// Package docview abstracts the live document behind a small capability
// surface: query elements, read computed visibility and rendered text,
// mutate classes and scroll. Extraction and highlighting only talk to
// these interfaces, so a simulated document can stand in for a real one.
package docview

// ScrollOptions mirrors the options of a scroll-into-view request.
type ScrollOptions struct {
	Behavior string `json:"behavior"` // "smooth" or "auto"
	Block    string `json:"block"`    // "start", "center", "end" or "nearest"
}

// Element is a single element of a document.
type Element interface {
	Tag() string
	// Text returns the rendered text of the element, trimmed.
	Text() string
	// Visible reports whether the element is displayed, not hidden,
	// not fully transparent and has a positive rendered height.
	Visible() bool
	AddClass(name string)
	RemoveClass(name string)
	HasClass(name string) bool
	// Locator returns a CSS path that identifies the element in the document.
	Locator() string
}

// Document is a view over a live document.
// Implementations are not required to be safe for concurrent use.
type Document interface {
	URL() string
	Title() string
	// Query returns the elements matching a CSS selector group in document order.
	Query(selector string) []Element
	ScrollIntoView(el Element, opts ScrollOptions)
}
