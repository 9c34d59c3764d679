package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"oro/internal/blob"
	"oro/internal/cache"
	"oro/internal/core"
	"oro/internal/events"
	"oro/internal/storage/memory"
)

var pngBytes = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01"

// countingStore wraps the memory store and can be told to fail.
type countingStore struct {
	*memory.Store
	inserts   int
	insertErr error
	deleteErr error
	listErr   error
	lists     int
}

func (s *countingStore) Insert(ctx context.Context, r core.NewRecord) (core.Investment, error) {
	s.inserts++
	if s.insertErr != nil {
		return core.Investment{}, s.insertErr
	}
	return s.Store.Insert(ctx, r)
}

func (s *countingStore) Delete(ctx context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.Delete(ctx, id)
}

func (s *countingStore) ListAll(ctx context.Context) ([]core.Investment, error) {
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.Store.ListAll(ctx)
}

// flakyBlobs wraps the memory blob store and can be told to fail.
type flakyBlobs struct {
	*blob.MemoryStore
	uploadErr error
	removeErr error
	removed   []string
	signs     int
}

func (b *flakyBlobs) Upload(ctx context.Context, p, ct string, r io.Reader) error {
	if b.uploadErr != nil {
		return b.uploadErr
	}
	return b.MemoryStore.Upload(ctx, p, ct, r)
}

func (b *flakyBlobs) Remove(ctx context.Context, paths ...string) error {
	b.removed = append(b.removed, paths...)
	if b.removeErr != nil {
		return b.removeErr
	}
	return b.MemoryStore.Remove(ctx, paths...)
}

func (b *flakyBlobs) SignedURL(ctx context.Context, p string, ttl time.Duration) (string, error) {
	b.signs++
	return b.MemoryStore.SignedURL(ctx, p, ttl)
}

type recordingPublisher struct{ changes []events.Change }

func (p *recordingPublisher) Publish(_ context.Context, c events.Change) {
	p.changes = append(p.changes, c)
}

type fixture struct {
	store *countingStore
	blobs *flakyBlobs
	pub   *recordingPublisher
	svc   *InvestmentService
}

func newFixture(opts InvestmentOptions) fixture {
	f := fixture{
		store: &countingStore{Store: memory.New()},
		blobs: &flakyBlobs{MemoryStore: blob.NewMemoryStore(blob.NewSigner([]byte("0123456789abcdef"), "/blobs"))},
		pub:   &recordingPublisher{},
	}
	f.svc = NewInvestmentService(f.store, f.blobs, f.pub, opts)
	return f
}

func screenshot(body string) *core.Upload {
	return &core.Upload{Filename: "receipt.png", Size: int64(len(body)), Body: strings.NewReader(body)}
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name      string
		sub       core.Submission
		wantField string
	}{
		{"negative amount", core.Submission{Amount: "-5", Category: "Gold"}, "amount"},
		{"zero grams", core.Submission{Amount: "10", Grams: "0", Category: "Gold"}, "grams"},
		{"bad category", core.Submission{Amount: "10", Category: "Copper"}, "category"},
		{"not an image", core.Submission{Amount: "10", Category: "Gold", Screenshot: screenshot("plain text")}, "screenshot"},
		{"svg image", core.Submission{Amount: "10", Category: "Gold", Screenshot: screenshot(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)}, "screenshot"},
		{"too large", core.Submission{Amount: "10", Category: "Gold", Screenshot: &core.Upload{Filename: "a.png", Size: 6 << 20, Body: strings.NewReader(pngBytes)}}, "screenshot"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(InvestmentOptions{})
			_, err := f.svc.Submit(context.Background(), tc.sub)
			ve, ok := core.IsValidation(err)
			if !ok || ve.Field != tc.wantField {
				t.Fatalf("expected validation error on %s, got %v", tc.wantField, err)
			}
			if f.store.inserts != 0 {
				t.Fatalf("insert attempted %d times", f.store.inserts)
			}
			if len(f.pub.changes) != 0 {
				t.Fatal("no change should be published")
			}
		})
	}
}

func TestSubmit_OversizeBodyWithSmallDeclaredSize(t *testing.T) {
	f := newFixture(InvestmentOptions{MaxUploadBytes: 16})
	up := &core.Upload{Filename: "a.png", Size: 1, Body: strings.NewReader(pngBytes + strings.Repeat("x", 64))}

	_, err := f.svc.Submit(context.Background(), core.Submission{Amount: "10", Category: "Gold", Screenshot: up})
	if ve, ok := core.IsValidation(err); !ok || ve.Field != "screenshot" {
		t.Fatalf("expected screenshot size error, got %v", err)
	}
}

func TestSubmit_WithScreenshot(t *testing.T) {
	f := newFixture(InvestmentOptions{})
	inv, err := f.svc.Submit(context.Background(), core.Submission{
		Amount:     "1500.50",
		Grams:      "2.5",
		Category:   "gold",
		Notes:      "  coin  ",
		Screenshot: screenshot(pngBytes),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !strings.HasPrefix(inv.ScreenshotPath, "screenshots/") || !strings.HasSuffix(inv.ScreenshotPath, ".png") {
		t.Fatalf("ScreenshotPath = %q", inv.ScreenshotPath)
	}
	if !f.blobs.Has(inv.ScreenshotPath) {
		t.Fatal("screenshot not uploaded")
	}
	if inv.Notes != "coin" || inv.Category != core.CategoryGold {
		t.Fatalf("unexpected record %+v", inv)
	}
	if len(f.pub.changes) != 1 || f.pub.changes[0].Kind != events.KindCreated || f.pub.changes[0].ID != inv.ID {
		t.Fatalf("published %+v", f.pub.changes)
	}
}

func TestSubmit_UploadFailureSkipsInsert(t *testing.T) {
	f := newFixture(InvestmentOptions{})
	f.blobs.uploadErr = errors.New("bucket unavailable")

	_, err := f.svc.Submit(context.Background(), core.Submission{Amount: "10", Category: "Silver", Screenshot: screenshot(pngBytes)})
	var pe *core.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if f.store.inserts != 0 {
		t.Fatal("insert must not be attempted after failed upload")
	}
}

func TestSubmit_InsertFailureOrphanCleanup(t *testing.T) {
	for _, cleanup := range []bool{true, false} {
		f := newFixture(InvestmentOptions{CleanupOrphans: cleanup})
		f.store.insertErr = errors.New("disk full")

		_, err := f.svc.Submit(context.Background(), core.Submission{Amount: "10", Category: "Gold", Screenshot: screenshot(pngBytes)})
		var pe *core.PersistenceError
		if !errors.As(err, &pe) {
			t.Fatalf("cleanup=%v: expected PersistenceError, got %v", cleanup, err)
		}
		if got := len(f.blobs.removed); (got == 1) != cleanup {
			t.Fatalf("cleanup=%v: removed %v", cleanup, f.blobs.removed)
		}
	}
}

func TestDelete_RemovesRecordAndBlob(t *testing.T) {
	f := newFixture(InvestmentOptions{})
	ctx := context.Background()
	inv, err := f.svc.Submit(ctx, core.Submission{Amount: "10", Category: "Gold", Screenshot: screenshot(pngBytes)})
	if err != nil {
		t.Fatal(err)
	}
	keep, _ := f.svc.Submit(ctx, core.Submission{Amount: "25", Category: "Silver"})

	before, _ := f.store.ListAll(ctx)
	if _, err := f.svc.Delete(ctx, inv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	after, _ := f.store.ListAll(ctx)

	if len(after) != 1 || after[0].ID != keep.ID {
		t.Fatalf("remaining = %+v", after)
	}
	if diff := core.Total(before).Sub(core.Total(after)); !diff.Equal(inv.Amount) {
		t.Fatalf("total dropped by %s, want %s", diff, inv.Amount)
	}
	if f.blobs.Has(inv.ScreenshotPath) {
		t.Fatal("screenshot not removed")
	}
	last := f.pub.changes[len(f.pub.changes)-1]
	if last.Kind != events.KindDeleted || last.ID != inv.ID {
		t.Fatalf("last change = %+v", last)
	}
}

func TestDelete_BlobFailureStillDeletes(t *testing.T) {
	f := newFixture(InvestmentOptions{})
	ctx := context.Background()
	inv, _ := f.svc.Submit(ctx, core.Submission{Amount: "10", Category: "Gold", Screenshot: screenshot(pngBytes)})
	f.blobs.removeErr = errors.New("storage offline")

	if _, err := f.svc.Delete(ctx, inv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(f.blobs.removed) != 1 {
		t.Fatalf("blob removal not attempted: %v", f.blobs.removed)
	}
	if _, err := f.store.Get(ctx, inv.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("record still present: %v", err)
	}
}

func TestDelete_Errors(t *testing.T) {
	f := newFixture(InvestmentOptions{})
	ctx := context.Background()
	if _, err := f.svc.Delete(ctx, 42); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing id: %v", err)
	}

	inv, _ := f.svc.Submit(ctx, core.Submission{Amount: "10", Category: "Gold"})
	f.store.deleteErr = errors.New("locked")
	_, err := f.svc.Delete(ctx, inv.ID)
	var pe *core.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestScreenshotURL(t *testing.T) {
	urls := cache.NewLRUCache[string](8, 50*time.Minute)
	f := newFixture(InvestmentOptions{URLCache: urls})
	ctx := context.Background()

	plain, _ := f.svc.Submit(ctx, core.Submission{Amount: "10", Category: "Gold"})
	if _, err := f.svc.ScreenshotURL(ctx, plain.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("no screenshot: %v", err)
	}
	if _, err := f.svc.ScreenshotURL(ctx, 999); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing record: %v", err)
	}

	inv, _ := f.svc.Submit(ctx, core.Submission{Amount: "10", Category: "Gold", Screenshot: screenshot(pngBytes)})
	first, err := f.svc.ScreenshotURL(ctx, inv.ID)
	if err != nil || !strings.HasPrefix(first, "/blobs/"+inv.ScreenshotPath+"?exp=") {
		t.Fatalf("ScreenshotURL = %q, %v", first, err)
	}
	second, _ := f.svc.ScreenshotURL(ctx, inv.ID)
	if second != first || f.blobs.signs != 1 {
		t.Fatalf("expected cached link, signs=%d", f.blobs.signs)
	}

	f.svc.Delete(ctx, inv.ID)
	if _, ok := urls.Get(inv.ScreenshotPath); ok {
		t.Fatal("cached link should be dropped on delete")
	}
}
