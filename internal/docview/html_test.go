package docview

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, src string) *HTMLDocument {
	t.Helper()
	d, err := Parse(strings.NewReader(src), "https://example.com/article")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func TestQuery_DocumentOrder(t *testing.T) {
	d := mustParse(t, `<html><body>
<p id="a">one</p><h2>two</h2><ul><li>three</li></ul><p>four</p><h1>five</h1>
</body></html>`)

	els := d.Query("h1,h2,p,li")
	var got []string
	for _, el := range els {
		got = append(got, el.Text())
	}
	want := []string{"one", "two", "three", "four", "five"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestQuery_InvalidSelector(t *testing.T) {
	d := mustParse(t, `<p>text</p>`)
	if els := d.Query("p[["); els != nil {
		t.Errorf("expected nil for invalid selector, got %d elements", len(els))
	}
}

func TestTitle(t *testing.T) {
	d := mustParse(t, `<html><head><title>  Paper  </title></head><body></body></html>`)
	if d.Title() != "Paper" {
		t.Errorf("expected title %q, got %q", "Paper", d.Title())
	}
	if d.URL() != "https://example.com/article" {
		t.Errorf("unexpected url %q", d.URL())
	}
}

func TestVisible(t *testing.T) {
	d := mustParse(t, `<html><head><style>
/* stylesheet rules */
.gone { display: none }
.ghost { visibility: hidden; }
@media print { p { display: none } }
.clip { height: 0; overflow: hidden }
</style></head><body>
<p id="plain">plain text</p>
<p style="display:none">inline none</p>
<p class="gone">class none</p>
<div class="gone"><p>child of none</p></div>
<p hidden>hidden attribute</p>
<p style="visibility: hidden">invisible</p>
<div class="ghost"><p>inherits hidden</p><p style="visibility:visible">overrides</p></div>
<p style="opacity: 0">transparent</p>
<p style="opacity: 0.5">half</p>
<p style="height: 0px">flat</p>
<div class="clip"><p>clipped child</p></div>
<div style="height:0"><p>overflowing child</p></div>
<p>   </p>
<script>var x = "script text";</script>
</body></html>`)

	want := map[string]bool{
		"plain text":        true,
		"inline none":       false,
		"class none":        false,
		"child of none":     false,
		"hidden attribute":  false,
		"invisible":         false,
		"inherits hidden":   false,
		"overrides":         true,
		"transparent":       false,
		"half":              true,
		"flat":              false,
		"clipped child":     false,
		"overflowing child": true,
	}

	for _, el := range d.Query("p") {
		n, _ := Node(el)
		text := strings.TrimSpace(nodeText(n))
		if text == "" {
			if el.Visible() {
				t.Errorf("expected empty paragraph to be invisible")
			}
			continue
		}
		w, ok := want[text]
		if !ok {
			t.Fatalf("unexpected paragraph %q", text)
		}
		if el.Visible() != w {
			t.Errorf("%q: expected visible=%v", text, w)
		}
	}
}

func TestVisible_Cascade(t *testing.T) {
	d := mustParse(t, `<html><head><style>
p.ad { display: none }
p { display: block }
#hero { visibility: hidden }
div p { visibility: visible }
.gone { display: none !important }
.kept { display: none !important }
.shown { display: block }
.late { display: none }
</style></head><body>
<p class="ad">specific class wins</p>
<div><p id="hero">id beats descendant</p></div>
<p class="gone" style="display:block">important beats inline</p>
<p class="kept" style="display:block !important">inline important wins</p>
<p class="shown late">later equal specificity</p>
<p style="display:none">inline beats stylesheet</p>
<div><p>descendant visible</p></div>
</body></html>`)

	want := map[string]bool{
		"specific class wins":     false,
		"id beats descendant":     false,
		"important beats inline":  false,
		"inline important wins":   true,
		"later equal specificity": false,
		"inline beats stylesheet": false,
		"descendant visible":      true,
	}

	for _, el := range d.Query("p") {
		n, _ := Node(el)
		text := strings.TrimSpace(nodeText(n))
		w, ok := want[text]
		if !ok {
			t.Fatalf("unexpected paragraph %q", text)
		}
		if el.Visible() != w {
			t.Errorf("%q: expected visible=%v", text, w)
		}
	}
}

func TestText_RenderedOnly(t *testing.T) {
	d := mustParse(t, `<body><article>
<h2>Heading</h2>
<p>First   line<br>second line</p>
<span style="display:none">secret</span>
<p>Visible <b>bold</b> words</p>
</article></body>`)

	els := d.Query("article")
	if len(els) != 1 {
		t.Fatalf("expected 1 article, got %d", len(els))
	}
	want := "Heading\nFirst line\nsecond line\nVisible bold words"
	if got := els[0].Text(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestClasses(t *testing.T) {
	d := mustParse(t, `<p class="lead">text</p>`)
	el := d.Query("p")[0]

	el.AddClass("semantic-highlight")
	el.AddClass("semantic-highlight")
	if !el.HasClass("semantic-highlight") || !el.HasClass("lead") {
		t.Fatal("expected both classes present")
	}
	n, _ := Node(el)
	if got := attr(n, "class"); got != "lead semantic-highlight" {
		t.Errorf("expected class attr %q, got %q", "lead semantic-highlight", got)
	}

	el.RemoveClass("semantic-highlight")
	el.RemoveClass("lead")
	if el.HasClass("semantic-highlight") || el.HasClass("lead") {
		t.Error("expected classes removed")
	}
	if hasAttr(n, "class") {
		t.Error("expected empty class attribute to be dropped")
	}
}

func TestClassChangeAffectsVisibility(t *testing.T) {
	d := mustParse(t, `<html><head><style>.collapsed{display:none}</style></head><body><p>some text</p></body></html>`)
	el := d.Query("p")[0]
	if !el.Visible() {
		t.Fatal("expected visible before class change")
	}
	el.AddClass("collapsed")
	if el.Visible() {
		t.Error("expected invisible after adding collapsed class")
	}
}

func TestLocator(t *testing.T) {
	d := mustParse(t, `<html><body><p>a</p><div><p>b</p><p>c</p></div></body></html>`)
	els := d.Query("p")
	want := "html:nth-of-type(1) > body:nth-of-type(1) > div:nth-of-type(1) > p:nth-of-type(2)"
	if got := els[2].Locator(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	// The locator must round-trip through Query.
	back := d.Query(want)
	if len(back) != 1 || back[0].Text() != "c" {
		t.Errorf("expected locator to select the same element")
	}
}

func TestScrollIntoView(t *testing.T) {
	d := mustParse(t, `<p>a</p>`)
	if _, ok := d.LastScroll(); ok {
		t.Fatal("expected no scroll yet")
	}
	el := d.Query("p")[0]
	d.ScrollIntoView(el, ScrollOptions{Behavior: "smooth", Block: "center"})
	s, ok := d.LastScroll()
	if !ok {
		t.Fatal("expected a scroll record")
	}
	if s.Locator != el.Locator() || s.Options.Block != "center" || s.Options.Behavior != "smooth" {
		t.Errorf("unexpected scroll record %+v", s)
	}
}

func TestInjectStyle_Once(t *testing.T) {
	d := mustParse(t, `<html><head></head><body><p class="x">text</p></body></html>`)
	d.InjectStyle("marker-style", ".x { opacity: 0 }")
	d.InjectStyle("marker-style", ".x { opacity: 0 }")

	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if n := strings.Count(buf.String(), `id="marker-style"`); n != 1 {
		t.Errorf("expected style injected once, found %d", n)
	}
	if d.Query("p")[0].Visible() {
		t.Error("expected injected rule to apply")
	}
}

func TestParseStylesheet_SkipsAtRulesAndEmptyRules(t *testing.T) {
	rules := parseStylesheet(`
@keyframes glow { from { opacity: 0 } to { opacity: 1 } }
.a, .b { display: none !important; }
.empty { }
`)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if d := rules[0].decls["display"]; d.value != "none" || !d.important {
		t.Errorf("expected important display none, got %+v", d)
	}
}

// nodeText is the raw text content, ignoring visibility.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}
	walk(n)
	return sb.String()
}
