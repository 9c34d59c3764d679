package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"oro/internal/log"
)

// DefaultReconcileInterval is how often the mirror is reconciled when no
// interval is configured.
const DefaultReconcileInterval = 30 * time.Second

// Reconciler runs MirrorWorker.Reconcile on a fixed interval.
type Reconciler struct {
	worker   *MirrorWorker
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReconciler(worker *MirrorWorker, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Reconciler{worker: worker, interval: interval}
}

// Start begins the reconcile loop. Returns an error if already running.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reconciler is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Reconciler started",
		log.FieldComponent, log.ComponentWorker,
		"interval", r.interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Reconciler stopped gracefully", log.FieldComponent, log.ComponentWorker)
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reconciler stop timed out", log.FieldComponent, log.ComponentWorker)
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return nil
}

func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reconciler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.pass(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	if _, err := r.worker.Reconcile(ctx); err != nil {
		slog.ErrorContext(ctx, "Reconcile failed",
			log.FieldComponent, log.ComponentWorker,
			log.FieldOperation, log.OpSync,
			log.FieldError, err)
	}
}
