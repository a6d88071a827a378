package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/pagelens/internal/extractor"
)

func texts(t *testing.T, src, selector string) []string {
	t.Helper()
	doc, err := FromHTML(src, "https://example.com", false)
	require.NoError(t, err)
	var out []string
	for _, el := range doc.Query(selector) {
		out = append(out, el.Text())
	}
	return out
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.txt", "b.MD", "c.markdown", "d.csv", "e.html", "f.htm", "g.pdf", "h.docx"} {
		_, err := ForFile(name)
		assert.NoError(t, err, name)
		assert.True(t, IsSupportedExtension(name), name)
	}
	_, err := ForFile("archive.zip")
	assert.ErrorContains(t, err, "unsupported file extension")
	assert.False(t, IsSupportedExtension("archive.zip"))
}

func TestTextConverter_Paragraphs(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond <paragraph>.\n\n\nThird paragraph."
	src, err := (&TextConverter{}).Convert(strings.NewReader(input), "notes.txt")
	require.NoError(t, err)

	doc, err := FromHTML(src, "file://notes.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "notes", doc.Title())
	assert.Equal(t, []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second <paragraph>.",
		"Third paragraph.",
	}, texts(t, src, "p"))
}

func TestTextConverter_Empty(t *testing.T) {
	src, err := (&TextConverter{}).Convert(strings.NewReader(""), "empty.txt")
	require.NoError(t, err)
	assert.Empty(t, texts(t, src, "p"))
}

func TestMarkdownConverter(t *testing.T) {
	input := `# Title

Intro text.

## Section A

- item one
- item two

> quoted
`
	src, err := (&MarkdownConverter{}).Convert(strings.NewReader(input), "doc.md")
	require.NoError(t, err)

	doc, err := FromHTML(src, "file://doc.md", false)
	require.NoError(t, err)
	assert.Equal(t, "Title", doc.Title())
	assert.Equal(t, []string{"Title", "Section A"}, texts(t, src, "h1,h2"))
	assert.Equal(t, []string{"item one", "item two"}, texts(t, src, "li"))
	assert.Equal(t, []string{"quoted"}, texts(t, src, "blockquote"))
}

func TestMarkdownConverter_NoHeadingUsesFilename(t *testing.T) {
	src, err := (&MarkdownConverter{}).Convert(strings.NewReader("Just text."), "dir/notes.md")
	require.NoError(t, err)
	doc, err := FromHTML(src, "", false)
	require.NoError(t, err)
	assert.Equal(t, "notes", doc.Title())
}

func TestCSVConverter(t *testing.T) {
	input := "name,role\nAda,engineer\nGrace,admiral,extra\n"
	src, err := (&CSVConverter{}).Convert(strings.NewReader(input), "people.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rows 2-3"}, texts(t, src, "h2"))
	assert.Equal(t, []string{"name: Ada, role: engineer", "name: Grace, role: admiral, extra"}, texts(t, src, "li"))
}

func TestCSVConverter_Batches(t *testing.T) {
	var b strings.Builder
	b.WriteString("n\n")
	for i := 0; i < 25; i++ {
		b.WriteString("x\n")
	}
	src, err := (&CSVConverter{}).Convert(strings.NewReader(b.String()), "big.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Rows 2-21", "Rows 22-26"}, texts(t, src, "h2"))
}

func TestMarkupHeadingClamp(t *testing.T) {
	m := newMarkup("t")
	m.heading(5, "deep")
	m.heading(0, "top")
	src := m.String()
	assert.Contains(t, src, "<h3>deep</h3>")
	assert.Contains(t, src, "<h1>top</h1>")
}

func TestFromFile_FeedsExtractor(t *testing.T) {
	input := `# Findings

## Results

The measured throughput doubled after the cache layer was introduced.
`
	doc, err := FromFile(strings.NewReader(input), "report.md", "")
	require.NoError(t, err)
	assert.Equal(t, "file://report.md", doc.URL())

	ext := extractor.ExtractPage(doc)
	require.True(t, ext.ExtractSuccess)
	require.Len(t, ext.Sections, 1)
	assert.Equal(t, extractor.IntroductionHeading, ext.Sections[0].Heading)
	require.Len(t, ext.Sections[0].Blocks, 1)
}

func TestFromFile_Unsupported(t *testing.T) {
	_, err := FromFile(strings.NewReader("x"), "a.exe", "")
	assert.Error(t, err)
}

func TestFromHTML_ReaderMode(t *testing.T) {
	para := "Gradient checkpointing stores only a subset of activations during the forward pass and recomputes the rest while running backpropagation, which trades additional compute for a much smaller peak memory footprint on large models."
	src := `<html><head><title>Gradient Checkpointing Explained</title></head><body>
<div id="content"><article>
<h1>Gradient Checkpointing Explained</h1>
<p>` + para + `</p>
<p>` + para + `</p>
<p>` + para + `</p>
</article></div>
</body></html>`

	doc, err := FromHTML(src, "https://example.com/checkpointing", true)
	require.NoError(t, err)
	assert.Equal(t, "Gradient Checkpointing Explained", doc.Title())
	assert.Equal(t, "https://example.com/checkpointing", doc.URL())

	paras := doc.Query("p")
	require.NotEmpty(t, paras)
	assert.Equal(t, para, paras[0].Text())
	assert.True(t, extractor.ExtractPage(doc).ExtractSuccess)
}
