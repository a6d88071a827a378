package docview

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// HTMLDocument is a Document backed by a parsed HTML tree. Computed style is
// approximated from <style> elements and inline style attributes.
type HTMLDocument struct {
	url  string
	doc  *goquery.Document
	root *html.Node

	rules      []styleRule
	styleCache map[*html.Node]style

	lastScroll *Scroll
}

// Scroll records a scroll-into-view request.
type Scroll struct {
	Locator string        `json:"locator"`
	Options ScrollOptions `json:"options"`
}

// Parse builds an HTMLDocument from HTML source.
func Parse(r io.Reader, url string) (*HTMLDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return FromGoquery(doc, url), nil
}

// FromGoquery wraps an already parsed goquery document.
func FromGoquery(doc *goquery.Document, url string) *HTMLDocument {
	d := &HTMLDocument{
		url:  url,
		doc:  doc,
		root: doc.Get(0),
	}
	d.reloadStyles()
	return d
}

func (d *HTMLDocument) reloadStyles() {
	d.rules = nil
	d.doc.Find("style").Each(func(_ int, s *goquery.Selection) {
		d.rules = append(d.rules, parseStylesheet(s.Text())...)
	})
	d.invalidate()
}

func (d *HTMLDocument) invalidate() {
	d.styleCache = make(map[*html.Node]style)
}

func (d *HTMLDocument) URL() string { return d.url }

func (d *HTMLDocument) Title() string {
	return strings.TrimSpace(d.doc.Find("title").First().Text())
}

// Query walks the tree in document order and returns the matching elements.
// An invalid selector matches nothing.
func (d *HTMLDocument) Query(selector string) []Element {
	group, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil
	}
	var out []Element
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && group.Match(n) {
			out = append(out, &htmlElement{doc: d, node: n})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(d.root)
	return out
}

func (d *HTMLDocument) ScrollIntoView(el Element, opts ScrollOptions) {
	d.lastScroll = &Scroll{Locator: el.Locator(), Options: opts}
}

// LastScroll returns the most recent scroll request, if any.
func (d *HTMLDocument) LastScroll() (Scroll, bool) {
	if d.lastScroll == nil {
		return Scroll{}, false
	}
	return *d.lastScroll, true
}

// InjectStyle appends a <style> element with the given id to <head> unless
// one with that id already exists.
func (d *HTMLDocument) InjectStyle(id, css string) {
	if d.doc.Find("#"+id).Length() > 0 {
		return
	}
	head := d.doc.Find("head").First()
	if head.Length() == 0 {
		return
	}
	el := &html.Node{
		Type: html.ElementNode,
		Data: "style",
		Attr: []html.Attribute{{Key: "id", Val: id}},
	}
	el.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	head.Get(0).AppendChild(el)
	d.reloadStyles()
}

// Render writes the current document, including any applied classes.
func (d *HTMLDocument) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

type htmlElement struct {
	doc  *HTMLDocument
	node *html.Node
}

func (e *htmlElement) Tag() string { return e.node.Data }

func (e *htmlElement) Text() string {
	return renderedText(e.doc, e.node)
}

func (e *htmlElement) Visible() bool {
	d := e.doc
	if !d.isRendered(e.node) || d.isVisibilityHidden(e.node) || d.isTransparent(e.node) {
		return false
	}
	if d.hasZeroHeight(e.node) {
		return false
	}
	// An element without rendered content has no height.
	return e.Text() != "" || e.node.Data == "img"
}

func (e *htmlElement) classes() []string {
	return strings.Fields(attr(e.node, "class"))
}

func (e *htmlElement) HasClass(name string) bool {
	for _, c := range e.classes() {
		if c == name {
			return true
		}
	}
	return false
}

func (e *htmlElement) AddClass(name string) {
	if e.HasClass(name) {
		return
	}
	e.setClasses(append(e.classes(), name))
}

func (e *htmlElement) RemoveClass(name string) {
	cur := e.classes()
	kept := cur[:0]
	for _, c := range cur {
		if c != name {
			kept = append(kept, c)
		}
	}
	e.setClasses(kept)
}

func (e *htmlElement) setClasses(classes []string) {
	attrs := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Key != "class" {
			attrs = append(attrs, a)
		}
	}
	if len(classes) > 0 {
		attrs = append(attrs, html.Attribute{Key: "class", Val: strings.Join(classes, " ")})
	}
	e.node.Attr = attrs
	e.doc.invalidate()
}

func (e *htmlElement) Locator() string {
	var parts []string
	for n := e.node; n != nil && n.Type == html.ElementNode; n = n.Parent {
		idx := 1
		for s := n.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode && s.Data == n.Data {
				idx++
			}
		}
		parts = append(parts, fmt.Sprintf("%s:nth-of-type(%d)", n.Data, idx))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// Node exposes the underlying node of an element created by an HTMLDocument.
func Node(el Element) (*html.Node, bool) {
	he, ok := el.(*htmlElement)
	if !ok {
		return nil, false
	}
	return he.node, true
}
