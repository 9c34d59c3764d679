package memory

import (
	"context"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"oro/internal/core"
)

func TestMirror_UpsertDeleteList(t *testing.T) {
	m := New()
	ctx := context.Background()

	ref, err := m.Upsert(ctx, core.Investment{ID: 1, Amount: decimal.NewFromInt(10)})
	if err != nil || ref != "mem:1" {
		t.Fatalf("Upsert = %q, %v", ref, err)
	}
	m.Upsert(ctx, core.Investment{ID: 2, Amount: decimal.NewFromInt(20)})
	if ref, _ := m.Upsert(ctx, core.Investment{ID: 1, Amount: decimal.NewFromInt(15)}); ref != "mem:1" {
		t.Fatalf("re-upsert ref = %q", ref)
	}

	if row, ok := m.Row(1); !ok || !row.Amount.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("row 1 = %+v, %v", row, ok)
	}

	if err := m.Delete(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, 99); err != nil {
		t.Fatalf("deleting a missing row: %v", err)
	}
	ids, _ := m.ListIDs(ctx)
	if !slices.Equal(ids, []int64{2}) {
		t.Fatalf("ids = %v", ids)
	}
}
