package docview

import (
	"strings"

	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

// renderedText approximates innerText: text of descendants that are
// rendered and not visibility-hidden, block boundaries become line breaks,
// whitespace inside a line is collapsed and blank lines are dropped.
func renderedText(d *HTMLDocument, n *html.Node) string {
	if !d.isRendered(n) {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		switch cur.Type {
		case html.TextNode:
			if !d.isVisibilityHidden(cur.Parent) {
				sb.WriteString(cur.Data)
			}
			return
		case html.ElementNode:
			if cur != n && (unrendered[cur.Data] || hasAttr(cur, "hidden") || d.computedStyle(cur)["display"] == "none") {
				return
			}
			if cur.Data == "br" {
				sb.WriteByte('\n')
				return
			}
		}
		block := cur.Type == html.ElementNode && blockTags[cur.Data] && cur != n
		if block {
			sb.WriteByte('\n')
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte('\n')
		}
	}
	walk(n)
	return collapseLines(sb.String())
}

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
