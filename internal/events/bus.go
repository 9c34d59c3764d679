// Package events carries "record set changed" notifications from the
// mutating services to every view and forwarder that depends on the record
// set.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Kind string

const (
	KindCreated Kind = "created"
	KindDeleted Kind = "deleted"
)

// Change says that record ID was created or deleted at At.
type Change struct {
	Kind Kind
	ID   int64
	At   time.Time
}

// Publisher announces record changes.
type Publisher interface {
	Publish(ctx context.Context, c Change)
}

// Bus fans changes out to subscribers. Handlers run synchronously inside
// Publish, so state they invalidate is consistent before Publish returns.
// Channel subscribers never block Publish: one whose buffer is full misses
// the change.
type Bus struct {
	mu       sync.RWMutex
	subs     map[int]chan Change
	handlers []func(context.Context, Change)
	nextID   int
	closed   bool

	dropped int64
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Change)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// function unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Handle registers fn to be called for every published change.
func (b *Bus) Handle(fn func(context.Context, Change)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, fn)
}

func (b *Bus) Publish(ctx context.Context, c Change) {
	if c.At.IsZero() {
		c.At = time.Now()
	}

	b.mu.RLock()
	handlers := b.handlers
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return
	}
	for _, fn := range handlers {
		fn(ctx, c)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- c:
		default:
			b.dropped++
			slog.WarnContext(ctx, "Dropped record change for slow subscriber",
				"subscriber", id,
				"kind", c.Kind,
				"investment_id", c.ID)
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped reports how many deliveries were skipped because a subscriber was
// full.
func (b *Bus) Dropped() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
