package binui

import "sync"

// SubscribePolicy selects how Publish treats a subscriber whose queue
// is full.
type SubscribePolicy uint8

const (
	// PolicyBlock makes Publish wait until the subscriber drains.
	PolicyBlock SubscribePolicy = iota

	// PolicyDropOldest discards the oldest queued value to make room.
	PolicyDropOldest
)

// Topic fans values out to any number of subscribers, each with its
// own bounded queue and backpressure policy. Style-change
// notifications flow through one of these so the tessellator and the
// input router invalidate independently.
type Topic[T any] struct {
	mu     sync.Mutex
	subs   []*Subscription[T]
	closed bool
}

// Subscription is one subscriber's view of a topic.
type Subscription[T any] struct {
	topic  *Topic[T]
	policy SubscribePolicy

	// done wakes a blocked delivery when the subscription ends; mu
	// orders sends against the channel close.
	done chan struct{}

	mu     sync.Mutex
	ch     chan T
	closed bool
}

// NewTopic creates an empty topic.
func NewTopic[T any]() *Topic[T] {
	return &Topic[T]{}
}

// Subscribe registers a new subscriber with the given queue capacity.
// Capacity below one is raised to one.
func (t *Topic[T]) Subscribe(capacity int, policy SubscribePolicy) *Subscription[T] {
	if capacity < 1 {
		capacity = 1
	}
	s := &Subscription[T]{
		topic:  t,
		ch:     make(chan T, capacity),
		done:   make(chan struct{}),
		policy: policy,
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		s.shutdown()
		return s
	}
	t.subs = append(t.subs, s)
	t.mu.Unlock()
	return s
}

// Publish delivers the value to every current subscriber. Blocking
// subscribers apply backpressure; drop-oldest subscribers never do.
// Delivery happens outside the topic lock, so one slow subscriber
// stalls only its own queue and never Close, Subscribe, or Cancel.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	subs := make([]*Subscription[T], len(t.subs))
	copy(subs, t.subs)
	t.mu.Unlock()

	for _, s := range subs {
		s.deliver(v)
	}
}

// Close ends the topic; every subscriber's channel is closed. A Publish
// blocked on a full subscriber is released.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()

	for _, s := range subs {
		s.shutdown()
	}
}

// C returns the receive channel. It closes when the subscription is
// cancelled or the topic closes.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Cancel detaches the subscription and closes its channel.
func (s *Subscription[T]) Cancel() {
	t := s.topic
	t.mu.Lock()
	for i, sub := range t.subs {
		if sub == s {
			t.subs = append(t.subs[:i], t.subs[i+1:]...)
			t.mu.Unlock()
			s.shutdown()
			return
		}
	}
	t.mu.Unlock()
}

// deliver sends one value under the subscription mutex, which is what
// keeps shutdown from closing the channel mid-send.
func (s *Subscription[T]) deliver(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	switch s.policy {
	case PolicyDropOldest:
		for {
			select {
			case s.ch <- v:
				return
			default:
			}
			select {
			case <-s.ch:
			default:
			}
		}
	default:
		select {
		case s.ch <- v:
		case <-s.done:
		}
	}
}

// shutdown wakes any blocked delivery, then closes the channel. Called
// at most once per subscription; the topic removes the subscription
// from its list before calling.
func (s *Subscription[T]) shutdown() {
	close(s.done)
	s.mu.Lock()
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
}
