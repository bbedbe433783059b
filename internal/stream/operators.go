package stream

import (
	"context"
	"sync"
	"time"
)

// Map applies f to every value.
func Map[T, R any](ctx context.Context, in <-chan T, f func(T) R) <-chan R {
	out := make(chan R)
	go func() {
		defer close(out)
		each(ctx, in, func(v T) bool {
			return send(ctx, out, f(v))
		})
	}()
	return out
}

// Filter forwards the values for which keep returns true.
func Filter[T any](ctx context.Context, in <-chan T, keep func(T) bool) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		each(ctx, in, func(v T) bool {
			if !keep(v) {
				return true
			}
			return send(ctx, out, v)
		})
	}()
	return out
}

// FilterMap forwards f(v) for the values where f reports ok.
func FilterMap[T, R any](ctx context.Context, in <-chan T, f func(T) (R, bool)) <-chan R {
	out := make(chan R)
	go func() {
		defer close(out)
		each(ctx, in, func(v T) bool {
			r, ok := f(v)
			if !ok {
				return true
			}
			return send(ctx, out, r)
		})
	}()
	return out
}

// Distinct drops values equal to the previously forwarded one.
func Distinct[T comparable](ctx context.Context, in <-chan T) <-chan T {
	return DistinctFunc(ctx, in, func(a, b T) bool { return a == b })
}

// DistinctFunc is Distinct with a custom equality.
func DistinctFunc[T any](ctx context.Context, in <-chan T, equal func(a, b T) bool) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		var (
			last T
			has  bool
		)
		each(ctx, in, func(v T) bool {
			if has && equal(last, v) {
				return true
			}
			last, has = v, true
			return send(ctx, out, v)
		})
	}()
	return out
}

// StartWith emits vs before the values of in.
func StartWith[T any](ctx context.Context, in <-chan T, vs ...T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, v := range vs {
			if !send(ctx, out, v) {
				return
			}
		}
		each(ctx, in, func(v T) bool {
			return send(ctx, out, v)
		})
	}()
	return out
}

// Take forwards the first n values, then closes.
func Take[T any](ctx context.Context, in <-chan T, n int) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		if n <= 0 {
			return
		}
		taken := 0
		each(ctx, in, func(v T) bool {
			if !send(ctx, out, v) {
				return false
			}
			taken++
			return taken < n
		})
	}()
	return out
}

// Merge interleaves the values of all inputs.
func Merge[T any](ctx context.Context, ins ...<-chan T) <-chan T {
	out := make(chan T)

	var wg sync.WaitGroup
	for _, in := range ins {
		wg.Go(func() {
			each(ctx, in, func(v T) bool {
				return send(ctx, out, v)
			})
		})
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Debounce forwards a value only after d has passed without a newer one.
// A pending value is flushed when in closes.
func Debounce[T any](ctx context.Context, in <-chan T, d time.Duration) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)

		var (
			pending T
			has     bool
			timer   *time.Timer
			fire    <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case v, ok := <-in:
				if !ok {
					if has {
						send(ctx, out, pending)
					}
					return
				}
				pending, has = v, true
				if timer == nil {
					timer = time.NewTimer(d)
				} else {
					timer.Reset(d)
				}
				fire = timer.C
			case <-fire:
				fire, has = nil, false
				if !send(ctx, out, pending) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// ThrottleFirst forwards a value and then drops everything that arrives
// within d of it (leading edge only).
func ThrottleFirst[T any](ctx context.Context, in <-chan T, d time.Duration) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)

		var last time.Time
		first := true
		each(ctx, in, func(v T) bool {
			now := time.Now()
			if !first && now.Sub(last) < d {
				return true
			}
			first, last = false, now
			return send(ctx, out, v)
		})
	}()
	return out
}

// Delay emits v once after d, unless ctx is done first.
func Delay[T any](ctx context.Context, d time.Duration, v T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			send(ctx, out, v)
		case <-ctx.Done():
		}
	}()
	return out
}
