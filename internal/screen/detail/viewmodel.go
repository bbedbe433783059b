package detail

import (
	"context"
	"log/slog"
	"sync"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/id"
	"github.com/listenupapp/searchbook/internal/screen"
	"github.com/listenupapp/searchbook/internal/stream"
)

const name = "detail"

// ViewModel drives the detail screen.
type ViewModel struct {
	out     *screen.Output[ViewState, Event]
	intents *stream.Subject[Intent]
	logger  *slog.Logger

	initial *stream.Subject[InitialBookDetail]
	refresh *stream.Subject[string]
	toggles *stream.Subject[BookDetail]

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts a detail view-model.
func New(interactor Interactor, timings screen.Timings, logger *slog.Logger) *ViewModel {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timings = timings.WithDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	vm := &ViewModel{
		out:     screen.NewOutput[ViewState, Event](InitialState()),
		intents: stream.NewPublishSubject[Intent](),
		logger:  logger.With("instance", id.Instance()),
		initial: stream.NewPublishSubject[InitialBookDetail](),
		refresh: stream.NewPublishSubject[string](),
		toggles: stream.NewPublishSubject[BookDetail](),
		cancel:  cancel,
	}

	initialChanges := stream.MergeMap(ctx, stream.Take(ctx, vm.initial.Subscribe(ctx), 1),
		func(ctx context.Context, seed InitialBookDetail) <-chan Change {
			return stream.StartWith(ctx, interactor.GetDetail(ctx, seed.ID), Change(initialLoaded{seed: seed}))
		},
	)
	refreshChanges := stream.ExhaustMap(ctx, vm.refresh.Subscribe(ctx), interactor.Refresh)
	toggled := screen.Toggles(ctx, vm.toggles.Subscribe(ctx),
		func(d BookDetail) string { return d.ID },
		timings.ToggleThrottle,
		interactor.ToggleFavorited,
	)

	intents := vm.intents.Subscribe(ctx)
	changes := stream.Merge(ctx, initialChanges, refreshChanges)
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

// States streams the current state, then every new one.
func (vm *ViewModel) States(ctx context.Context) <-chan ViewState {
	return vm.out.States(ctx)
}

// Events streams the one-shot events fired from now on.
func (vm *ViewModel) Events(ctx context.Context) <-chan Event {
	return vm.out.Events(ctx)
}

// Close stops every pipeline of the view-model.
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
		state       = InitialState()
		favs        domain.IDSet
		hasIDs      bool
		initialized bool
	)
	overlaid := func() ViewState { return state.WithFavorites(favs) }
	publish := func() {
		if hasIDs {
			vm.out.Publish(overlaid())
		}
	}

	for {
		select {
		case intent, ok := <-intents:
			if !ok {
				intents = nil
				continue
			}
			switch intent := intent.(type) {
			case Initial:
				if !initialized {
					initialized = true
					vm.initial.Send(intent.Seed)
				}
			case Refresh:
				if state.Detail != nil {
					vm.refresh.Send(state.Detail.ID)
				}
			case ToggleFavorite:
				if s := overlaid(); s.Detail != nil {
					vm.toggles.Send(*s.Detail)
				}
			}

		case c, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			screen.LogChange(vm.logger, name, c)
			state = c.reduce(state)
			switch c := c.(type) {
			case detailError:
				vm.out.Emit(GetDetailError{Err: c.err})
			case refreshSuccess:
				vm.out.Emit(RefreshSuccess{})
			case refreshError:
				vm.out.Emit(RefreshError{Err: c.err})
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
