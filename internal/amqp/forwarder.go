package amqp

import (
	"context"
	"log/slog"

	"oro/internal/events"
)

// ChangePublisher is the part of Client the forwarder needs.
type ChangePublisher interface {
	PublishRecordChange(ctx context.Context, kind string, id int64) error
}

// Forwarder relays in-process record changes to the broker so the mirror
// worker can pick them up. Publishing is best effort: failures are logged
// and the change is not retried.
type Forwarder struct {
	publisher ChangePublisher
}

func NewForwarder(publisher ChangePublisher) *Forwarder {
	return &Forwarder{publisher: publisher}
}

// Run forwards changes until the channel is closed or ctx is done.
func (f *Forwarder) Run(ctx context.Context, changes <-chan events.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if err := f.publisher.PublishRecordChange(ctx, string(c.Kind), c.ID); err != nil {
				slog.WarnContext(ctx, "Failed to forward record change",
					"kind", c.Kind,
					"investment_id", c.ID,
					"error", err)
			}
		}
	}
}
