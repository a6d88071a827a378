// Package docviewtest provides an in-memory document for tests.
package docviewtest

import (
	"fmt"
	"strings"

	"github.com/dgallion1/pagelens/internal/docview"
)

// Element is a simulated element with fixed text and visibility.
type Element struct {
	TagName string
	Content string
	Hidden  bool
	Classes map[string]bool
	index   int
}

func (e *Element) Tag() string   { return e.TagName }
func (e *Element) Text() string  { return strings.TrimSpace(e.Content) }
func (e *Element) Visible() bool { return !e.Hidden }

func (e *Element) AddClass(name string) {
	if e.Classes == nil {
		e.Classes = map[string]bool{}
	}
	e.Classes[name] = true
}

func (e *Element) RemoveClass(name string)   { delete(e.Classes, name) }
func (e *Element) HasClass(name string) bool { return e.Classes[name] }
func (e *Element) Locator() string           { return fmt.Sprintf("%s#%d", e.TagName, e.index) }

// Scroll is one recorded scroll request.
type Scroll struct {
	Element *Element
	Options docview.ScrollOptions
}

// Document is a flat, ordered list of elements. Query matches on tag name
// against a comma-separated selector list.
type Document struct {
	PageURL   string
	PageTitle string
	Elements  []*Element
	Scrolls   []Scroll
	Queries   int
}

// New builds a document from elements, assigning their positions.
func New(url, title string, els ...*Element) *Document {
	for i, el := range els {
		el.index = i
	}
	return &Document{PageURL: url, PageTitle: title, Elements: els}
}

// El is shorthand for a visible element.
func El(tag, text string) *Element {
	return &Element{TagName: tag, Content: text}
}

// HiddenEl is shorthand for an invisible element.
func HiddenEl(tag, text string) *Element {
	return &Element{TagName: tag, Content: text, Hidden: true}
}

func (d *Document) URL() string   { return d.PageURL }
func (d *Document) Title() string { return d.PageTitle }

func (d *Document) Query(selector string) []docview.Element {
	d.Queries++
	tags := map[string]bool{}
	for _, t := range strings.Split(selector, ",") {
		tags[strings.TrimSpace(t)] = true
	}
	var out []docview.Element
	for _, el := range d.Elements {
		if tags[el.TagName] {
			out = append(out, el)
		}
	}
	return out
}

func (d *Document) ScrollIntoView(el docview.Element, opts docview.ScrollOptions) {
	fe, _ := el.(*Element)
	d.Scrolls = append(d.Scrolls, Scroll{Element: fe, Options: opts})
}

// Marked returns the elements currently carrying class.
func (d *Document) Marked(class string) []*Element {
	var out []*Element
	for _, el := range d.Elements {
		if el.HasClass(class) {
			out = append(out, el)
		}
	}
	return out
}
