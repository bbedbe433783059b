package stream

import (
	"context"
	"sync"
)

// Project maps a value to an inner stream. The inner stream must close when
// ctx is done.
type Project[T, R any] func(ctx context.Context, v T) <-chan R

type policy int

const (
	latestWins policy = iota
	firstWins
	queued
	concurrent
)

// SwitchMap runs project for every value, cancelling the previous inner stream
// and discarding anything it still produces (latest-wins).
func SwitchMap[T, R any](ctx context.Context, in <-chan T, project Project[T, R]) <-chan R {
	return flatten(ctx, in, project, latestWins)
}

// ExhaustMap ignores values that arrive while an inner stream is still running
// (first-wins).
func ExhaustMap[T, R any](ctx context.Context, in <-chan T, project Project[T, R]) <-chan R {
	return flatten(ctx, in, project, firstWins)
}

// ConcatMap runs inner streams one at a time, in arrival order. Values that
// arrive while one is running are queued, never dropped.
func ConcatMap[T, R any](ctx context.Context, in <-chan T, project Project[T, R]) <-chan R {
	return flatten(ctx, in, project, queued)
}

// MergeMap runs all inner streams concurrently.
func MergeMap[T, R any](ctx context.Context, in <-chan T, project Project[T, R]) <-chan R {
	return flatten(ctx, in, project, concurrent)
}

type innerValue[R any] struct {
	gen  uint64
	v    R
	done bool
}

func flatten[T, R any](ctx context.Context, in <-chan T, project Project[T, R], p policy) <-chan R {
	sink := make(chan R)
	out := make(chan R)
	go pump(ctx, sink, out)

	go func() {
		defer close(sink)

		results := make(chan innerValue[R])
		var (
			gen    uint64
			active int
			queue  []T
			cancel context.CancelFunc = func() {}
		)

		start := func(v T) {
			gen++
			id := gen
			innerCtx, innerCancel := context.WithCancel(ctx)
			cancel = innerCancel
			active++

			go func() {
				defer innerCancel()
				each(ctx, project(innerCtx, v), func(r R) bool {
					return send(ctx, results, innerValue[R]{gen: id, v: r})
				})
				send(ctx, results, innerValue[R]{gen: id, done: true})
			}()
		}

		for in != nil || active > 0 {
			select {
			case v, ok := <-in:
				if !ok {
					in = nil
					continue
				}
				switch p {
				case latestWins:
					cancel()
					start(v)
				case firstWins:
					if active == 0 {
						start(v)
					}
				case queued:
					if active == 0 {
						start(v)
					} else {
						queue = append(queue, v)
					}
				case concurrent:
					start(v)
				}

			case r := <-results:
				if r.done {
					active--
					if p == queued && len(queue) > 0 {
						next := queue[0]
						queue = queue[1:]
						start(next)
					}
					continue
				}
				if p == latestWins && r.gen != gen {
					continue
				}
				if !send(ctx, sink, r.v) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// GroupBy splits in by key and feeds each group to its own pipeline built by
// f. Groups run independently; their outputs are merged.
//
// Groups are never retired: a key's pipeline stays alive until in closes or
// ctx is done, so a returning key keeps its throttle and queue state. Callers
// bound the number of keys by the lifetime of ctx.
func GroupBy[T any, K comparable, R any](
	ctx context.Context,
	in <-chan T,
	key func(T) K,
	f func(ctx context.Context, group <-chan T) <-chan R,
) <-chan R {
	out := make(chan R)
	go func() {
		defer close(out)

		var wg sync.WaitGroup
		groups := make(map[K]chan T)
		defer func() {
			for _, g := range groups {
				close(g)
			}
			wg.Wait()
		}()

		each(ctx, in, func(v T) bool {
			k := key(v)
			g, ok := groups[k]
			if !ok {
				g = make(chan T)
				groups[k] = g
				results := f(ctx, Buffer(ctx, g))
				wg.Go(func() {
					each(ctx, results, func(r R) bool {
						return send(ctx, out, r)
					})
				})
			}
			return send(ctx, g, v)
		})
	}()
	return out
}
