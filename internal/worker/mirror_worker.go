// Package worker mirrors the record set to an external sheet, driven by
// change messages and a periodic reconcile.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"oro/internal/amqp"
	"oro/internal/core"
	"oro/internal/events"
	"oro/internal/log"
	"oro/internal/ports"
	"oro/internal/sheets"
)

// MirrorWorker applies record changes to a sheets.Mirror.
type MirrorWorker struct {
	records ports.RecordStore
	mirror  sheets.Mirror
}

func NewMirrorWorker(records ports.RecordStore, mirror sheets.Mirror) *MirrorWorker {
	return &MirrorWorker{records: records, mirror: mirror}
}

// HandleChange processes a single change message from AMQP. A created record
// that no longer exists is skipped; the delete message that follows removes
// any row.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		log.FieldComponent, log.ComponentWorker,
		"kind", msg.Kind,
		log.FieldInvestmentID, msg.ID)

	switch msg.Kind {
	case string(events.KindCreated):
		inv, err := w.records.Get(ctx, msg.ID)
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Record gone before mirroring, skipping",
				log.FieldComponent, log.ComponentWorker,
				log.FieldInvestmentID, msg.ID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		ref, err := w.mirror.Upsert(ctx, inv)
		if err != nil {
			return fmt.Errorf("mirror record: %w", err)
		}
		slog.InfoContext(ctx, "Record mirrored",
			log.FieldComponent, log.ComponentWorker,
			log.FieldInvestmentID, msg.ID,
			"ref", ref)
	case string(events.KindDeleted):
		if err := w.mirror.Delete(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete mirrored record: %w", err)
		}
		slog.InfoContext(ctx, "Mirrored record deleted",
			log.FieldComponent, log.ComponentWorker,
			log.FieldInvestmentID, msg.ID)
	default:
		return fmt.Errorf("unknown change kind %q", msg.Kind)
	}
	return nil
}

// ReconcileResult counts the rows touched by one reconcile.
type ReconcileResult struct {
	Upserted int
	Deleted  int
	Failed   int
}

// Reconcile brings the mirror in line with the record store: missing rows are
// written and rows for deleted records are removed. It covers messages lost
// while the worker or the broker was down. Individual row failures are
// counted and logged; only listing failures abort.
func (w *MirrorWorker) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	records, err := w.records.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list records: %w", err)
	}
	mirrored, err := w.mirror.ListIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list mirrored ids: %w", err)
	}

	have := make(map[int64]bool, len(mirrored))
	for _, id := range mirrored {
		have[id] = true
	}
	want := make(map[int64]bool, len(records))

	// Oldest first so appended rows keep creation order.
	for i := len(records) - 1; i >= 0; i-- {
		inv := records[i]
		want[inv.ID] = true
		if have[inv.ID] {
			continue
		}
		if _, err := w.mirror.Upsert(ctx, inv); err != nil {
			res.Failed++
			slog.ErrorContext(ctx, "Failed to mirror record during reconcile",
				log.FieldComponent, log.ComponentWorker,
				log.FieldInvestmentID, inv.ID,
				log.FieldError, err)
			continue
		}
		res.Upserted++
	}

	for _, id := range mirrored {
		if want[id] {
			continue
		}
		if err := w.mirror.Delete(ctx, id); err != nil {
			res.Failed++
			slog.ErrorContext(ctx, "Failed to remove stale mirrored record",
				log.FieldComponent, log.ComponentWorker,
				log.FieldInvestmentID, id,
				log.FieldError, err)
			continue
		}
		res.Deleted++
	}

	if res.Upserted+res.Deleted+res.Failed > 0 {
		slog.InfoContext(ctx, "Reconcile completed",
			log.FieldComponent, log.ComponentWorker,
			log.FieldOperation, log.OpSync,
			"upserted", res.Upserted,
			"deleted", res.Deleted,
			"failed", res.Failed)
	}
	return res, nil
}
