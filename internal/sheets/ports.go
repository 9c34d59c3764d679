package sheets

import (
	"context"

	"oro/internal/core"
)

// Ports for outbound adapters.
type (
	// Mirror keeps a spreadsheet copy of the investment table, one row per
	// record keyed by ID.
	Mirror interface {
		// Upsert writes the row for inv, appending it when absent.
		Upsert(ctx context.Context, inv core.Investment) (rowRef string, err error)
		// Delete removes the row for id. A missing row is not an error.
		Delete(ctx context.Context, id int64) error
		// ListIDs returns the IDs of every mirrored row.
		ListIDs(ctx context.Context) ([]int64, error)
	}
)
