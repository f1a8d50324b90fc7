package binui

import (
	"sync"
	"testing"
	"time"
)

func TestTopic_FanOut(t *testing.T) {
	topic := NewTopic[int]()
	defer topic.Close()

	a := topic.Subscribe(4, PolicyBlock)
	b := topic.Subscribe(4, PolicyBlock)

	topic.Publish(7)

	for _, sub := range []*Subscription[int]{a, b} {
		select {
		case v := <-sub.C():
			if v != 7 {
				t.Fatalf("got %d, want 7", v)
			}
		case <-time.After(time.Second):
			t.Fatal("value not delivered")
		}
	}
}

func TestTopic_DropOldest(t *testing.T) {
	topic := NewTopic[int]()
	defer topic.Close()

	sub := topic.Subscribe(2, PolicyDropOldest)
	for i := 1; i <= 5; i++ {
		topic.Publish(i)
	}

	// Queue of 2 keeps only the newest two values.
	if v := <-sub.C(); v != 4 {
		t.Fatalf("first = %d, want 4", v)
	}
	if v := <-sub.C(); v != 5 {
		t.Fatalf("second = %d, want 5", v)
	}
}

func TestTopic_CancelStopsDelivery(t *testing.T) {
	topic := NewTopic[int]()
	defer topic.Close()

	sub := topic.Subscribe(1, PolicyDropOldest)
	sub.Cancel()
	topic.Publish(1) // must not panic on the canceled channel

	if _, ok := <-sub.C(); ok {
		t.Fatal("canceled subscription still delivered a value")
	}
}

func TestTopic_CloseClosesSubscribers(t *testing.T) {
	topic := NewTopic[int]()
	sub := topic.Subscribe(1, PolicyBlock)
	topic.Close()

	if _, ok := <-sub.C(); ok {
		t.Fatal("channel open after topic close")
	}
	topic.Publish(1) // no-op after close
}

func TestTopic_CloseUnblocksSlowSubscriber(t *testing.T) {
	topic := NewTopic[int]()
	sub := topic.Subscribe(1, PolicyBlock)
	topic.Publish(1) // fills the queue; nobody drains

	published := make(chan struct{})
	go func() {
		topic.Publish(2) // blocks on the full subscriber
		close(published)
	}()

	// Close must not wait behind the blocked Publish, and must release it.
	closed := make(chan struct{})
	go func() {
		topic.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close stuck behind a blocked Publish")
	}
	select {
	case <-published:
	case <-time.After(time.Second):
		t.Fatal("blocked Publish not released by Close")
	}
	if v, ok := <-sub.C(); !ok || v != 1 {
		t.Fatalf("queued value = %d, %v; want 1, true", v, ok)
	}
	if _, ok := <-sub.C(); ok {
		t.Fatal("channel open after topic close")
	}
}

func TestTopic_ConcurrentPublishCancel(t *testing.T) {
	topic := NewTopic[int]()
	defer topic.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		sub := topic.Subscribe(1, PolicyDropOldest)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				topic.Publish(j)
			}
		}()
		go func() {
			defer wg.Done()
			sub.Cancel()
		}()
	}
	wg.Wait()
}
