package home

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/id"
	"github.com/listenupapp/searchbook/internal/screen"
	"github.com/listenupapp/searchbook/internal/stream"
)

const name = "home"

type page struct {
	query      string
	startIndex int
}

// ViewModel drives the home screen. One actor goroutine owns the state; it
// validates intents against it, folds changes into it and overlays the
// favorite ids before publishing.
type ViewModel struct {
	out     *screen.Output[ViewState, Event]
	intents *stream.Subject[Intent]
	logger  *slog.Logger

	// Accepted triggers, fed by the actor only.
	terms      *stream.Subject[string]
	retryFirst *stream.Subject[string]
	nextPage   *stream.Subject[page]
	toggles    *stream.Subject[Book]

	// Set by the actor when a next page is dispatched, cleared once its
	// outcome is reduced. The reduced state only sees the load when
	// loadingNextPage comes back, so it cannot gate a second trigger alone.
	nextPagePending bool

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts a home view-model.
func New(interactor Interactor, timings screen.Timings, logger *slog.Logger) *ViewModel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timings = timings.WithDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	vm := &ViewModel{
		out:        screen.NewOutput[ViewState, Event](InitialState()),
		intents:    stream.NewPublishSubject[Intent](),
		logger:     logger.With("instance", id.Instance()),
		terms:      stream.NewPublishSubject[string](),
		retryFirst: stream.NewPublishSubject[string](),
		nextPage:   stream.NewPublishSubject[page](),
		toggles:    stream.NewPublishSubject[Book](),
		cancel:     cancel,
	}

	searchTerms := stream.FilterMap(ctx,
		stream.Distinct(ctx, stream.Debounce(ctx, vm.terms.Subscribe(ctx), timings.SearchDebounce)),
		func(term string) (string, bool) {
			term = strings.TrimSpace(term)
			return term, term != ""
		},
	)
	firstPage := stream.SwitchMap(ctx,
		stream.Merge(ctx, searchTerms, vm.retryFirst.Subscribe(ctx)),
		interactor.SearchBook,
	)
	nextPage := stream.ExhaustMap(ctx, vm.nextPage.Subscribe(ctx), func(ctx context.Context, p page) <-chan Change {
		return interactor.LoadNextPage(ctx, p.query, p.startIndex)
	})
	toggled := screen.Toggles(ctx, vm.toggles.Subscribe(ctx),
		func(b Book) string { return b.ID },
		timings.ToggleThrottle,
		interactor.ToggleFavorited,
	)

	intents := vm.intents.Subscribe(ctx)
	changes := stream.Merge(ctx, firstPage, nextPage)
	ids := interactor.FavoritedIDs(ctx)

	vm.wg.Go(func() { vm.run(ctx, intents, changes, ids) })
	vm.wg.Go(func() {
		for e := range toggled {
			vm.out.Emit(e)
		}
	})

	vm.logger.Debug("view-model started", "screen", name)
	return vm
}

// Process submits an intent. It never blocks.
func (vm *ViewModel) Process(intent Intent) {
	vm.intents.Send(intent)
}

// State returns the latest published state.
func (vm *ViewModel) State() ViewState {
	return vm.out.State()
}

// States streams the current state, then every new one, until ctx is done or
// the view-model is closed.
func (vm *ViewModel) States(ctx context.Context) <-chan ViewState {
	return vm.out.States(ctx)
}

// Events streams the one-shot events fired from now on.
func (vm *ViewModel) Events(ctx context.Context) <-chan Event {
	return vm.out.Events(ctx)
}

// Close stops every pipeline of the view-model. Results of in-flight calls are
// discarded.
func (vm *ViewModel) Close() {
	vm.closeOnce.Do(func() {
		vm.cancel()
		vm.wg.Wait()
		vm.intents.Close()
		vm.out.Close()
		vm.logger.Debug("view-model closed", "screen", name)
	})
}

func (vm *ViewModel) run(ctx context.Context, intents <-chan Intent, changes <-chan Change, ids <-chan domain.IDSet) {
	var (
		state  = InitialState()
		favs   domain.IDSet
		hasIDs bool
	)
	publish := func() {
		if hasIDs {
			vm.out.Publish(state.WithFavorites(favs))
		}
	}

	for {
		select {
		case intent, ok := <-intents:
			if !ok {
				intents = nil
				continue
			}
			vm.dispatch(intent, state)

		case c, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			screen.LogChange(vm.logger, name, c)
			state = c.reduce(state)
			switch c := c.(type) {
			case loadFirstPageError:
				vm.out.Emit(LoadError{Err: c.err})
			case nextPageLoaded:
				vm.nextPagePending = false
			case loadNextPageError:
				vm.nextPagePending = false
				vm.out.Emit(LoadError{Err: c.err})
			}
			publish()

		case set, ok := <-ids:
			if !ok {
				ids = nil
				continue
			}
			favs, hasIDs = set, true
			publish()

		case <-ctx.Done():
			return
		}
	}
}

// dispatch forwards an intent to its pipeline if state accepts it.
func (vm *ViewModel) dispatch(intent Intent, state ViewState) {
	switch intent := intent.(type) {
	case Search:
		vm.terms.Send(intent.Term)
	case RetryLoadFirstPage:
		if state.ShouldRetryFirstPage() {
			vm.retryFirst.Send(state.SearchTerm)
		}
	case LoadNextPage:
		if !vm.nextPagePending && state.ShouldLoadNextPage() {
			vm.sendNextPage(state)
		}
	case RetryLoadNextPage:
		if !vm.nextPagePending && state.ShouldRetryNextPage() {
			vm.sendNextPage(state)
		}
	case ToggleFavorite:
		vm.toggles.Send(intent.Book)
	}
}

func (vm *ViewModel) sendNextPage(state ViewState) {
	vm.nextPagePending = true
	vm.nextPage.Send(page{query: state.SearchTerm, startIndex: len(state.Books)})
}
