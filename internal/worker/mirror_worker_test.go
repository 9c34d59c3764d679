package worker

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"oro/internal/amqp"
	"oro/internal/core"
	mirrormem "oro/internal/sheets/memory"
	"oro/internal/storage/memory"
)

// failingMirror wraps the in-memory mirror and fails upserts for chosen IDs.
type failingMirror struct {
	*mirrormem.Mirror
	failUpsert map[int64]bool
	listErr    error
}

func (m *failingMirror) Upsert(ctx context.Context, inv core.Investment) (string, error) {
	if m.failUpsert[inv.ID] {
		return "", errors.New("quota exceeded")
	}
	return m.Mirror.Upsert(ctx, inv)
}

func (m *failingMirror) ListIDs(ctx context.Context) ([]int64, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.Mirror.ListIDs(ctx)
}

func seed(t *testing.T, store *memory.Store, amounts ...int64) []core.Investment {
	t.Helper()
	var out []core.Investment
	for _, a := range amounts {
		inv, err := store.Insert(context.Background(), core.NewRecord{
			Amount:   decimal.NewFromInt(a),
			Category: core.CategoryGold,
		})
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, inv)
	}
	return out
}

func TestMirrorWorker_HandleChange(t *testing.T) {
	store := memory.New()
	mirror := mirrormem.New()
	w := NewMirrorWorker(store, mirror)
	ctx := context.Background()
	inv := seed(t, store, 100)[0]

	if err := w.HandleChange(ctx, amqp.NewRecordChangeMessage("created", inv.ID)); err != nil {
		t.Fatalf("created: %v", err)
	}
	if _, ok := mirror.Row(inv.ID); !ok {
		t.Fatal("record not mirrored")
	}

	if err := w.HandleChange(ctx, amqp.NewRecordChangeMessage("deleted", inv.ID)); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if _, ok := mirror.Row(inv.ID); ok {
		t.Fatal("mirrored row not removed")
	}
}

func TestMirrorWorker_HandleChangeMissingRecord(t *testing.T) {
	mirror := mirrormem.New()
	w := NewMirrorWorker(memory.New(), mirror)

	if err := w.HandleChange(context.Background(), amqp.NewRecordChangeMessage("created", 41)); err != nil {
		t.Fatalf("missing record should be skipped, got %v", err)
	}
	if ids, _ := mirror.ListIDs(context.Background()); len(ids) != 0 {
		t.Fatalf("ids = %v", ids)
	}
}

func TestMirrorWorker_HandleChangeUnknownKind(t *testing.T) {
	w := NewMirrorWorker(memory.New(), mirrormem.New())
	msg := &amqp.RecordChangeMessage{Kind: "updated", ID: 1, Timestamp: time.Now()}
	if err := w.HandleChange(context.Background(), msg); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestMirrorWorker_Reconcile(t *testing.T) {
	store := memory.New()
	mirror := mirrormem.New()
	w := NewMirrorWorker(store, mirror)
	ctx := context.Background()

	recs := seed(t, store, 10, 20, 30)
	stale := core.Investment{ID: 999, Amount: decimal.NewFromInt(1), Category: core.CategorySilver}
	mirror.Upsert(ctx, recs[1])
	mirror.Upsert(ctx, stale)

	res, err := w.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Upserted != 2 || res.Deleted != 1 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}

	ids, _ := mirror.ListIDs(ctx)
	want := []int64{recs[1].ID, recs[0].ID, recs[2].ID}
	if !slices.Equal(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}

	again, _ := w.Reconcile(ctx)
	if again != (ReconcileResult{}) {
		t.Fatalf("second reconcile should be a no-op, got %+v", again)
	}
}

func TestMirrorWorker_ReconcileCountsFailures(t *testing.T) {
	store := memory.New()
	recs := seed(t, store, 10, 20)
	mirror := &failingMirror{Mirror: mirrormem.New(), failUpsert: map[int64]bool{recs[0].ID: true}}
	w := NewMirrorWorker(store, mirror)

	res, err := w.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if res.Upserted != 1 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}

	mirror.listErr = errors.New("sheet unavailable")
	if _, err := w.Reconcile(context.Background()); err == nil {
		t.Fatal("expected listing failure to abort")
	}
}
