package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"oro/internal/core"
	"oro/internal/events"
	"oro/internal/storage/memory"
)

func TestRecordSet_CachesUntilChange(t *testing.T) {
	store := &countingStore{Store: memory.New()}
	set := NewRecordSet(store)
	bus := events.NewBus()
	bus.Handle(set.OnChange)

	svc := NewInvestmentService(store, nil, bus, InvestmentOptions{})
	ctx := context.Background()

	first, err := set.Load(ctx)
	if err != nil || len(first.Records) != 0 {
		t.Fatalf("Load = %+v, %v", first, err)
	}
	set.Load(ctx)
	if store.lists != 1 {
		t.Fatalf("lists = %d, want cached snapshot", store.lists)
	}

	if _, err := svc.Submit(ctx, core.Submission{Amount: "10", Category: "Gold"}); err != nil {
		t.Fatal(err)
	}
	second, err := set.Load(ctx)
	if err != nil || len(second.Records) != 1 {
		t.Fatalf("after submit Load = %+v, %v", second, err)
	}
	if second.Version == first.Version {
		t.Fatal("version should change after a record change")
	}
}

func TestRecordSet_LoadError(t *testing.T) {
	store := &countingStore{Store: memory.New(), listErr: errors.New("database is locked")}
	set := NewRecordSet(store)

	_, err := set.Load(context.Background())
	var le *core.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}

	store.listErr = nil
	if _, err := set.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh after recovery: %v", err)
	}
	if store.lists != 2 {
		t.Fatalf("failed loads must not be cached, lists = %d", store.lists)
	}
}

type blockingLister struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func newBlockingLister() *blockingLister {
	return &blockingLister{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (b *blockingLister) ListAll(ctx context.Context) ([]core.Investment, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	b.entered <- struct{}{}
	select {
	case <-b.release:
		return []core.Investment{{ID: 1}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *blockingLister) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestRecordSet_CollapsesConcurrentLoads(t *testing.T) {
	lister := newBlockingLister()
	set := NewRecordSet(lister)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := set.Load(context.Background())
			if err == nil && len(snap.Records) != 1 {
				err = errors.New("missing records")
			}
			errs <- err
		}()
	}
	<-lister.entered
	close(lister.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("Load: %v", err)
		}
	}
	if _, err := set.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := lister.callCount(); got != 1 {
		t.Fatalf("store reads = %d, want 1", got)
	}
}

func TestRecordSet_CancelledCallerDoesNotFailOthers(t *testing.T) {
	lister := newBlockingLister()
	set := NewRecordSet(lister)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := set.Load(ctxA)
		errA <- err
	}()
	<-lister.entered

	errB := make(chan error, 1)
	go func() {
		snap, err := set.Load(context.Background())
		if err == nil && len(snap.Records) != 1 {
			err = errors.New("missing records")
		}
		errB <- err
	}()

	cancelA()
	if err := <-errA; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller err = %v, want context.Canceled", err)
	}

	close(lister.release)
	if err := <-errB; err != nil {
		t.Fatalf("live caller err = %v", err)
	}
	if got := lister.callCount(); got != 1 {
		t.Fatalf("store reads = %d, want 1", got)
	}
}
