package worker

import (
	"context"
	"testing"
	"time"

	mirrormem "oro/internal/sheets/memory"
	"oro/internal/storage/memory"
)

func TestReconciler_StartStop(t *testing.T) {
	store := memory.New()
	mirror := mirrormem.New()
	recs := seed(t, store, 5)
	r := NewReconciler(NewMirrorWorker(store, mirror), time.Hour)
	ctx := context.Background()

	if r.IsRunning() {
		t.Fatal("should not be running before Start")
	}
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := mirror.Row(recs[0].ID); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial reconcile pass did not run")
		}
		time.Sleep(5 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if r.IsRunning() {
		t.Fatal("still running after Stop")
	}
	if err := r.Stop(stopCtx); err != nil {
		t.Fatalf("Stop on stopped reconciler: %v", err)
	}
}

func TestNewReconciler_DefaultInterval(t *testing.T) {
	r := NewReconciler(nil, 0)
	if r.interval != DefaultReconcileInterval {
		t.Fatalf("interval = %v", r.interval)
	}
}
