package loader

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextConverter turns blank-line separated paragraphs into <p> elements.
type TextConverter struct{}

func (c *TextConverter) Convert(r io.Reader, filename string) (string, error) {
	paragraphs, err := splitParagraphs(r)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	m := newMarkup(baseTitle(filename))
	for _, para := range paragraphs {
		m.paragraph(para)
	}
	return m.String(), nil
}

func splitParagraphs(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs, scanner.Err()
}
