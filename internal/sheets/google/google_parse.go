package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"oro/internal/core"
)

// Header is the first row of the mirror sheet.
var Header = []any{"ID", "Date & Time", "Amount", "Currency", "Grams", "Receipt URL", "Notes"}

const rowTimeLayout = "2006-01-02 15:04:05"

// formatRow renders inv as a sheet row in Header order. Amount and grams are
// sent as plain decimal strings so USER_ENTERED parses them as numbers.
func formatRow(inv core.Investment, loc *time.Location) []any {
	grams := ""
	if inv.Grams.Valid {
		grams = inv.Grams.Decimal.String()
	}
	return []any{
		inv.ID,
		inv.CreatedAt.In(loc).Format(rowTimeLayout),
		inv.Amount.String(),
		string(inv.Category),
		grams,
		inv.ReceiptURL,
		inv.Notes,
	}
}

// parseID reads the ID column of a row. Header and blank rows yield false.
func parseID(row []any) (int64, bool) {
	if len(row) == 0 {
		return 0, false
	}
	s := strings.TrimSpace(fmt.Sprint(row[0]))
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// findRow returns the 1-based sheet row holding id, or 0.
func findRow(values [][]any, id int64) int {
	for i, row := range values {
		if got, ok := parseID(row); ok && got == id {
			return i + 1
		}
	}
	return 0
}

func rowRef(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:G%d", sheet, row, row)
}
