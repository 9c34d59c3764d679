package amqp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"oro/internal/events"
)

type fakePublisher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakePublisher) PublishRecordChange(_ context.Context, kind string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	return f.err
}

func TestForwarder_RelaysUntilClosed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	changes := make(chan events.Change, 3)
	changes <- events.Change{Kind: events.KindCreated, ID: 1}
	changes <- events.Change{Kind: events.KindDeleted, ID: 1}
	close(changes)

	NewForwarder(pub).Run(context.Background(), changes)

	if len(pub.calls) != 2 || pub.calls[0] != "created" || pub.calls[1] != "deleted" {
		t.Fatalf("calls = %v", pub.calls)
	}
}

func TestForwarder_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		NewForwarder(&fakePublisher{}).Run(ctx, make(chan events.Change))
		close(done)
	}()
	<-done
}
