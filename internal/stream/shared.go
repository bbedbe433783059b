package stream

import (
	"context"
	"sync"
)

// Shared runs one underlying source for all of its subscribers and replays the
// latest value to late subscribers. The source is started by the first
// subscriber and cancelled when the last one leaves.
type Shared[T any] struct {
	source func(ctx context.Context) <-chan T

	mu      sync.Mutex
	refs    int
	subject *Subject[T]
	cancel  context.CancelFunc
}

// Share wraps source.
func Share[T any](source func(ctx context.Context) <-chan T) *Shared[T] {
	return &Shared[T]{source: source}
}

// Subscribe connects to the shared source until ctx is done.
func (s *Shared[T]) Subscribe(ctx context.Context) <-chan T {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refs == 0 {
		subject := NewReplaySubject[T]()
		srcCtx, cancel := context.WithCancel(context.Background())
		s.subject, s.cancel = subject, cancel

		go func() {
			defer subject.Close()
			each(srcCtx, s.source(srcCtx), func(v T) bool {
				subject.Send(v)
				return true
			})
		}()
	}
	s.refs++

	subject := s.subject
	out := subject.Subscribe(ctx)
	go func() {
		<-ctx.Done()
		s.release(subject)
	}()
	return out
}

// Subscribers returns the number of connected subscribers.
func (s *Shared[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

func (s *Shared[T]) release(subject *Subject[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subject != subject {
		return
	}
	s.refs--
	if s.refs == 0 {
		s.cancel()
		s.subject, s.cancel = nil, nil
	}
}
