// Package stream is a small channel-based stream runtime used by the screen
// view-models: subjects to multicast values, and operators that compose
// channels with explicit concurrency policies.
//
// Every operator takes a context. Output channels are closed once the input is
// closed and all pending work has been delivered, or as soon as the context is
// done. Functions passed to the flattening operators must close their returned
// channel when the context they receive is done.
package stream

import (
	"context"
)

// send delivers v unless ctx is done first.
func send[T any](ctx context.Context, ch chan<- T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// each calls f for every value of in until in is closed, ctx is done or f returns false.
func each[T any](ctx context.Context, in <-chan T, f func(T) bool) {
	for {
		select {
		case v, ok := <-in:
			if !ok || !f(v) {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// pump forwards in to out through an unbounded FIFO, so writers to in never
// wait on the reader of out. out is closed once in is closed and drained, or
// when ctx is done.
func pump[T any](ctx context.Context, in <-chan T, out chan<- T) {
	defer close(out)

	var queue []T
	for {
		var (
			next T
			ch   chan<- T
		)
		if len(queue) > 0 {
			next, ch = queue[0], out
		} else if in == nil {
			return
		}

		select {
		case v, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, v)
		case ch <- next:
			var zero T
			queue[0] = zero
			queue = queue[1:]
		case <-ctx.Done():
			return
		}
	}
}

// Buffer decouples a producer from a slow consumer with an unbounded queue.
func Buffer[T any](ctx context.Context, in <-chan T) <-chan T {
	out := make(chan T)
	go pump(ctx, in, out)
	return out
}

// Of returns a closed channel pre-filled with vs.
func Of[T any](vs ...T) <-chan T {
	out := make(chan T, len(vs))
	for _, v := range vs {
		out <- v
	}
	close(out)
	return out
}
