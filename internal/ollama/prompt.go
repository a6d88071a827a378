package ollama

import (
	"context"
	"fmt"
)

const sectionPromptTemplate = `You are summarizing a section from a webpage.

CONTENT:
%s

RULES:
- Be factual
- 3–4 sentences max
- Use ONLY provided content`

// SectionPrompt builds the prompt used to summarize one section of a page.
func SectionPrompt(text string) string {
	return fmt.Sprintf(sectionPromptTemplate, text)
}

// SummarizeSection asks the model for a short factual summary of text.
func (c *Client) SummarizeSection(ctx context.Context, text string) (string, error) {
	return c.Generate(ctx, SectionPrompt(text))
}
