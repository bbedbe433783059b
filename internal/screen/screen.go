// Package screen holds what the home, detail and favorites view-models share:
// the repository contracts they consume, their timings, the state and event
// outputs, and the per-id favorite toggle pipeline.
package screen

import (
	"context"
	"log/slog"
	"time"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/stream"
)

// BookRepository is the catalog as seen by the interactors.
type BookRepository interface {
	SearchBook(ctx context.Context, query string, startIndex int) domain.Result[[]domain.Book]
	GetBook(ctx context.Context, id string, policy domain.CachePolicy) <-chan domain.Result[domain.Book]
}

// FavoritesRepository is the favorites store as seen by the interactors.
type FavoritesRepository interface {
	ToggleFavorited(ctx context.Context, book domain.Book) domain.Result[domain.ToggleResult]
	FavoritedIDs(ctx context.Context) <-chan domain.IDSet
}

// Default timings.
const (
	DefaultSearchDebounce = 500 * time.Millisecond
	DefaultToggleThrottle = 500 * time.Millisecond
	DefaultRefreshDelay   = 2 * time.Second
)

// Timings configures the time-based operators of the view-models.
type Timings struct {
	SearchDebounce time.Duration
	ToggleThrottle time.Duration
	RefreshDelay   time.Duration
}

// WithDefaults fills zero durations with their defaults.
func (t Timings) WithDefaults() Timings {
	if t.SearchDebounce <= 0 {
		t.SearchDebounce = DefaultSearchDebounce
	}
	if t.ToggleThrottle <= 0 {
		t.ToggleThrottle = DefaultToggleThrottle
	}
	if t.RefreshDelay <= 0 {
		t.RefreshDelay = DefaultRefreshDelay
	}
	return t
}

// Change is a partial change folded into a view state.
type Change interface {
	// Tag names the change in log records.
	Tag() string
}

// LogChange writes the structured record every view-model emits per change.
func LogChange(logger *slog.Logger, name string, c Change) {
	logger.Debug("change", "screen", name, "change", c.Tag())
}

// Output publishes the view states and one-shot events of a view-model.
// Publish is called from the owning actor only; Emit from any goroutine.
type Output[S interface{ Equal(S) bool }, E any] struct {
	state  *stream.Subject[S]
	events *stream.Subject[E]
	last   S
}

// NewOutput creates an output whose current state is initial.
func NewOutput[S interface{ Equal(S) bool }, E any](initial S) *Output[S, E] {
	return &Output[S, E]{
		state:  stream.NewBehaviorSubject(initial),
		events: stream.NewPublishSubject[E](),
		last:   initial,
	}
}

// Publish forwards s unless it equals the last published state.
func (o *Output[S, E]) Publish(s S) bool {
	if s.Equal(o.last) {
		return false
	}
	o.last = s
	o.state.Send(s)
	return true
}

// Emit fires a one-shot event. Only current subscribers receive it.
func (o *Output[S, E]) Emit(e E) {
	o.events.Send(e)
}

// State returns the latest published state.
func (o *Output[S, E]) State() S {
	s, _ := o.state.Value()
	return s
}

// States streams the current state, then every new one.
func (o *Output[S, E]) States(ctx context.Context) <-chan S {
	return o.state.Subscribe(ctx)
}

// Events streams the events fired from now on.
func (o *Output[S, E]) Events(ctx context.Context) <-chan E {
	return o.events.Subscribe(ctx)
}

// Close completes both streams.
func (o *Output[S, E]) Close() {
	o.state.Close()
	o.events.Close()
}

// Toggles runs the favorite toggle pipeline: values are grouped by key, each
// group keeps only the first value within throttle and runs its toggles one at
// a time in arrival order. Groups are independent of each other.
func Toggles[T, E any](
	ctx context.Context,
	in <-chan T,
	key func(T) string,
	throttle time.Duration,
	toggle func(ctx context.Context, v T) E,
) <-chan E {
	return stream.GroupBy(ctx, in, key, func(ctx context.Context, group <-chan T) <-chan E {
		return stream.ConcatMap(ctx, stream.ThrottleFirst(ctx, group, throttle), func(ctx context.Context, v T) <-chan E {
			return stream.Of(toggle(ctx, v))
		})
	})
}
