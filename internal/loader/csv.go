package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVConverter lists rows as "header: value" items, in batches under
// "Rows N-M" headings.
type CSVConverter struct{}

const csvBatchSize = 20

func (c *CSVConverter) Convert(r io.Reader, filename string) (string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse csv: %w", err)
	}

	m := newMarkup(baseTitle(filename))
	if len(records) == 0 {
		return m.String(), nil
	}

	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvBatchSize {
		end := min(i+csvBatchSize, len(dataRows))
		m.heading(2, fmt.Sprintf("Rows %d-%d", i+2, end+1))
		for _, row := range dataRows[i:end] {
			m.item(formatRow(headers, row))
		}
	}
	return m.String(), nil
}

func formatRow(headers, row []string) string {
	parts := make([]string, 0, len(row))
	for j, cell := range row {
		if j < len(headers) {
			parts = append(parts, headers[j]+": "+cell)
		} else {
			parts = append(parts, cell)
		}
	}
	return strings.Join(parts, ", ")
}
