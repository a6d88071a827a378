package loader

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFConverter emits one "Page N" heading per page followed by its
// paragraphs. It tries the Go library first, then pdftotext if enabled.
type PDFConverter struct {
	FallbackPdftotext bool
}

func (c *PDFConverter) Convert(r io.Reader, filename string) (string, error) {
	br, err := readAll(r)
	if err != nil {
		return "", err
	}

	text, err := extractPDFText(br, br.Size())
	if err != nil && c.FallbackPdftotext {
		text, err = extractPdftotext(br)
	}
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	m := newMarkup(baseTitle(filename))
	for i, pg := range strings.Split(text, "\f") {
		if strings.TrimSpace(pg) == "" {
			continue
		}
		m.heading(2, fmt.Sprintf("Page %d", i+1))
		paragraphs, _ := splitParagraphs(strings.NewReader(pg))
		for _, para := range paragraphs {
			m.paragraph(strings.TrimSpace(para))
		}
	}
	return m.String(), nil
}

func extractPDFText(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdflib.NewReader(r, size)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if i > 1 {
			buf.WriteString("\f")
		}
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(r io.ReadSeeker) (string, error) {
	tmp, err := os.CreateTemp("", "pagelens-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return "", err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := exec.Command("pdftotext", "-layout", tmpPath, "-").Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
