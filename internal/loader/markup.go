package loader

import (
	"fmt"
	"html"
	"strings"
)

// markup accumulates a minimal HTML page from converted content.
type markup struct {
	title  string
	body   strings.Builder
	inList bool
}

func newMarkup(title string) *markup {
	return &markup{title: title}
}

func (m *markup) heading(level int, text string) {
	m.closeList()
	if level < 1 {
		level = 1
	}
	if level > 3 {
		level = 3
	}
	fmt.Fprintf(&m.body, "<h%d>%s</h%d>\n", level, html.EscapeString(text), level)
}

func (m *markup) paragraph(text string) {
	m.closeList()
	fmt.Fprintf(&m.body, "<p>%s</p>\n", escapeLines(text))
}

func (m *markup) item(text string) {
	if !m.inList {
		m.body.WriteString("<ul>\n")
		m.inList = true
	}
	fmt.Fprintf(&m.body, "<li>%s</li>\n", html.EscapeString(text))
}

func (m *markup) closeList() {
	if m.inList {
		m.body.WriteString("</ul>\n")
		m.inList = false
	}
}

func (m *markup) raw(fragment string) {
	m.closeList()
	m.body.WriteString(fragment)
}

func (m *markup) String() string {
	m.closeList()
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	b.WriteString(html.EscapeString(m.title))
	b.WriteString("</title></head><body>\n")
	b.WriteString(m.body.String())
	b.WriteString("</body></html>\n")
	return b.String()
}

// escapeLines escapes text and keeps its line breaks as <br>.
func escapeLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = html.EscapeString(l)
	}
	return strings.Join(lines, "<br>")
}
