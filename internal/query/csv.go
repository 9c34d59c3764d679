package query

import (
	"fmt"
	"io"
	"strings"
	"time"

	"oro/internal/core"
)

// CSVHeader is the fixed first line of every export.
const CSVHeader = "Date & Time,Amount,Currency,Receipt URL,Notes"

const csvTimeLayout = "2006-01-02 15:04:05"

// WriteCSV writes the export for records. Every data field is wrapped in
// double quotes as-is; embedded quotes are not escaped. Lines are separated
// by "\n" with no trailing newline. Nothing is written for zero records.
func WriteCSV(w io.Writer, records []core.Investment, loc *time.Location) error {
	if len(records) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	b.WriteString(CSVHeader)
	for _, r := range records {
		b.WriteByte('\n')
		writeRow(&b,
			r.CreatedAt.In(loc).Format(csvTimeLayout),
			r.Amount.String(),
			string(r.Category),
			r.ReceiptURL,
			r.Notes,
		)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeRow(b *strings.Builder, cells ...string) {
	for i, c := range cells {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(c)
		b.WriteByte('"')
	}
}

// ExportFilename names an export made at now.
func ExportFilename(now time.Time) string {
	return "investments_" + now.Format(time.DateOnly) + ".csv"
}
