package stream

import (
	"context"
	"sync"
)

// Subject multicasts values to any number of subscribers.
//
// Send never waits for a slow subscriber: each subscription owns an unbounded
// queue. A behavior subject replays its latest value to new subscribers.
type Subject[T any] struct {
	mu     sync.Mutex
	subs   map[*subscription[T]]struct{}
	latest T
	has    bool
	replay bool
	closed bool
}

type subscription[T any] struct {
	in   chan T
	done chan struct{}
}

// NewPublishSubject creates a subject that only delivers values sent after
// subscription.
func NewPublishSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[*subscription[T]]struct{})}
}

// NewReplaySubject creates a subject that replays the latest value, once one
// has been sent.
func NewReplaySubject[T any]() *Subject[T] {
	s := NewPublishSubject[T]()
	s.replay = true
	return s
}

// NewBehaviorSubject creates a subject holding initial as its current value.
func NewBehaviorSubject[T any](initial T) *Subject[T] {
	s := NewReplaySubject[T]()
	s.latest, s.has = initial, true
	return s
}

// Send delivers v to every subscriber. Sends after Close are ignored.
func (s *Subject[T]) Send(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.latest, s.has = v, true
	for sub := range s.subs {
		select {
		case sub.in <- v:
		case <-sub.done:
			delete(s.subs, sub)
		}
	}
}

// Value returns the latest value sent, if any.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.has
}

// Subscribe returns a channel of the values sent from now on. The channel is
// closed when ctx is done or the subject is closed.
func (s *Subject[T]) Subscribe(ctx context.Context) <-chan T {
	sub := &subscription[T]{
		in:   make(chan T),
		done: make(chan struct{}),
	}
	out := make(chan T)
	go func() {
		defer close(sub.done)
		pump(ctx, sub.in, out)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.replay && s.has {
		select {
		case sub.in <- s.latest:
		case <-sub.done:
			return out
		}
	}
	if s.closed {
		close(sub.in)
		return out
	}
	s.subs[sub] = struct{}{}
	return out
}

// Close completes the subject. Subscribers receive what is already queued,
// then their channels are closed.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		close(sub.in)
	}
	clear(s.subs)
}
