package memorybus

import (
	"testing"
)

func TestBusFanOut(t *testing.T) {
	b := New()
	ch1, cancel1 := b.Subscribe()
	ch2, cancel2 := b.Subscribe()
	defer cancel2()

	b.Publish("sync.completed", []byte(`{}`))
	if evt := <-ch1; evt.Topic != "sync.completed" {
		t.Fatalf("sub1: unexpected topic %q", evt.Topic)
	}
	if evt := <-ch2; evt.Topic != "sync.completed" {
		t.Fatalf("sub2: unexpected topic %q", evt.Topic)
	}

	cancel1()
	cancel1()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected closed channel after cancel")
	}
	b.Publish("schedule.created", nil)
	if evt := <-ch2; evt.Topic != "schedule.created" {
		t.Fatalf("sub2: unexpected topic %q", evt.Topic)
	}
}

func TestBusDropsWhenSubscriberIsSlow(t *testing.T) {
	b := New()
	_, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Publish("localstore.changed", nil)
	}
	if got := b.Dropped(); got != 5 {
		t.Fatalf("expected 5 dropped events, got %d", got)
	}
}

func TestBusClose(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe()
	b.Close()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	cancel()
	b.Publish("x", nil)

	late, _ := b.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscription after Close must be closed")
	}
}
