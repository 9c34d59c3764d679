package events

import (
	"context"
	"testing"
	"time"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus()
	a, unsubA := bus.Subscribe(4)
	b, unsubB := bus.Subscribe(4)
	defer unsubA()
	defer unsubB()

	bus.Publish(context.Background(), Change{Kind: KindCreated, ID: 7})

	for name, ch := range map[string]<-chan Change{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got.Kind != KindCreated || got.ID != 7 || got.At.IsZero() {
				t.Fatalf("%s received %+v", name, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s did not receive change", name)
		}
	}
}

func TestBus_DropsForFullSubscriber(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(1)
	defer unsub()

	ctx := context.Background()
	bus.Publish(ctx, Change{Kind: KindCreated, ID: 1})
	bus.Publish(ctx, Change{Kind: KindDeleted, ID: 1})

	if got := bus.Dropped(); got != 1 {
		t.Fatalf("Dropped = %d, want 1", got)
	}
	if got := <-ch; got.Kind != KindCreated {
		t.Fatalf("first change = %+v", got)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(1)
	unsub()
	unsub()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if bus.Subscribers() != 0 {
		t.Fatalf("Subscribers = %d", bus.Subscribers())
	}
	bus.Publish(context.Background(), Change{Kind: KindCreated, ID: 1})
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(1)
	bus.Close()
	unsub()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after Close")
	}
	bus.Publish(context.Background(), Change{Kind: KindDeleted, ID: 2})

	late, _ := bus.Subscribe(1)
	if _, ok := <-late; ok {
		t.Fatal("subscribe after Close should return a closed channel")
	}
}

func TestBus_HandlersRunBeforePublishReturns(t *testing.T) {
	bus := NewBus()
	var got []Change
	bus.Handle(func(_ context.Context, c Change) { got = append(got, c) })

	bus.Publish(context.Background(), Change{Kind: KindDeleted, ID: 3})
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("handler saw %+v", got)
	}
}
