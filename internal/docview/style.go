package docview

import (
	"sort"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// style holds the subset of computed properties the visibility predicate reads.
type style map[string]string

// declaration is one property value from a rule or a style attribute.
type declaration struct {
	value     string
	important bool
}

type declarations map[string]declaration

type styleRule struct {
	sel   cascadia.SelectorGroup
	decls declarations
}

// specificity returns the highest specificity among the selectors of the
// rule that match n, and whether any matched.
func (r styleRule) specificity(n *html.Node) (cascadia.Specificity, bool) {
	var best cascadia.Specificity
	matched := false
	for _, sel := range r.sel {
		if !sel.Match(n) {
			continue
		}
		if sp := sel.Specificity(); !matched || best.Less(sp) {
			best = sp
		}
		matched = true
	}
	return best, matched
}

// parseStylesheet parses a CSS stylesheet into rules. At-rules (@media,
// @keyframes, ...) and selectors cascadia cannot compile are skipped.
func parseStylesheet(css string) []styleRule {
	css = stripComments(css)
	var rules []styleRule
	for i := 0; i < len(css); {
		open := strings.IndexByte(css[i:], '{')
		if open < 0 {
			break
		}
		selector := strings.TrimSpace(css[i : i+open])
		body, next := balancedBlock(css, i+open)
		i = next
		if selector == "" || strings.HasPrefix(selector, "@") {
			continue
		}
		group, err := cascadia.ParseGroup(selector)
		if err != nil {
			continue
		}
		decls := parseDeclarations(body)
		if len(decls) == 0 {
			continue
		}
		rules = append(rules, styleRule{sel: group, decls: decls})
	}
	return rules
}

// balancedBlock returns the contents of the brace block opening at css[open]
// and the index just past its closing brace.
func balancedBlock(css string, open int) (string, int) {
	depth := 0
	for j := open; j < len(css); j++ {
		switch css[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return css[open+1 : j], j + 1
			}
		}
	}
	return css[open+1:], len(css)
}

func stripComments(css string) string {
	var sb strings.Builder
	for {
		start := strings.Index(css, "/*")
		if start < 0 {
			sb.WriteString(css)
			return sb.String()
		}
		sb.WriteString(css[:start])
		end := strings.Index(css[start+2:], "*/")
		if end < 0 {
			return sb.String()
		}
		css = css[start+2+end+2:]
	}
}

// parseDeclarations parses "prop: value; prop2: value2 !important".
func parseDeclarations(body string) declarations {
	decls := declarations{}
	for _, decl := range strings.Split(body, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(value))
		important := false
		if i := strings.LastIndexByte(value, '!'); i >= 0 && strings.TrimSpace(value[i+1:]) == "important" {
			important = true
			value = strings.TrimSpace(value[:i])
		}
		if prop == "" || value == "" {
			continue
		}
		decls[prop] = declaration{value: value, important: important}
	}
	return decls
}

// never-rendered elements contribute no boxes and no text.
var unrendered = map[string]bool{
	"head":     true,
	"script":   true,
	"style":    true,
	"template": true,
	"noscript": true,
	"meta":     true,
	"link":     true,
	"title":    true,
	"iframe":   true,
}

// computedStyle resolves the declarations that apply to n. Normal
// stylesheet declarations cascade by specificity then source order, inline
// declarations override them, and !important declarations override both,
// inline ones last.
func (d *HTMLDocument) computedStyle(n *html.Node) style {
	if s, ok := d.styleCache[n]; ok {
		return s
	}

	type matchedRule struct {
		spec  cascadia.Specificity
		decls declarations
	}
	var matched []matchedRule
	for _, r := range d.rules {
		if spec, ok := r.specificity(n); ok {
			matched = append(matched, matchedRule{spec: spec, decls: r.decls})
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].spec.Less(matched[j].spec) })

	var inline declarations
	if attrStyle := attr(n, "style"); attrStyle != "" {
		inline = parseDeclarations(attrStyle)
	}

	s := style{}
	apply := func(decls declarations, important bool) {
		for k, v := range decls {
			if v.important == important {
				s[k] = v.value
			}
		}
	}
	for _, important := range []bool{false, true} {
		for _, m := range matched {
			apply(m.decls, important)
		}
		apply(inline, important)
	}
	d.styleCache[n] = s
	return s
}

// isRendered reports whether n generates a box at all: it and all of its
// ancestors must be renderable and not display:none.
func (d *HTMLDocument) isRendered(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if unrendered[cur.Data] {
			return false
		}
		if hasAttr(cur, "hidden") {
			return false
		}
		if d.computedStyle(cur)["display"] == "none" {
			return false
		}
	}
	return true
}

// isVisibilityHidden resolves the inherited visibility property.
func (d *HTMLDocument) isVisibilityHidden(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		if v, ok := d.computedStyle(cur)["visibility"]; ok {
			return v == "hidden" || v == "collapse"
		}
	}
	return false
}

// isTransparent reports opacity 0 on the element itself.
func (d *HTMLDocument) isTransparent(n *html.Node) bool {
	op, ok := d.computedStyle(n)["opacity"]
	if !ok {
		return false
	}
	op = strings.TrimSuffix(op, "%")
	return strings.Trim(op, "0.") == "" && op != ""
}

// hasZeroHeight reports a declared zero height on n, or on an ancestor that
// also clips its overflow.
func (d *HTMLDocument) hasZeroHeight(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		s := d.computedStyle(cur)
		zero := isZeroLength(s["height"]) || isZeroLength(s["max-height"])
		if !zero {
			continue
		}
		if cur == n || s["overflow"] == "hidden" || s["overflow-y"] == "hidden" {
			return true
		}
	}
	return false
}

func isZeroLength(v string) bool {
	if v == "" {
		return false
	}
	v = strings.TrimRight(v, "abcdefghijklmnopqrstuvwxyz%")
	return v != "" && strings.Trim(v, "0.") == ""
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
