package favorites

import (
	"context"
	"log/slog"
	"sync"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/id"
	"github.com/listenupapp/searchbook/internal/screen"
	"github.com/listenupapp/searchbook/internal/stream"
)

const name = "favorites"

// ViewModel drives the favorites screen. The list follows the favorite ids;
// a removal only shows once the ids stop containing the row.
type ViewModel struct {
	out     *screen.Output[ViewState, Event]
	intents *stream.Subject[Intent]
	logger  *slog.Logger

	ids     *stream.Subject[[]string]
	refresh *stream.Subject[[]string]
	removes *stream.Subject[Item]

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts a favorites view-model.
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
		ids:     stream.NewPublishSubject[[]string](),
		refresh: stream.NewPublishSubject[[]string](),
		removes: stream.NewPublishSubject[Item](),
		cancel:  cancel,
	}

	listChanges := stream.SwitchMap(ctx, vm.ids.Subscribe(ctx), interactor.GetBooks)
	refreshChanges := stream.ExhaustMap(ctx, vm.refresh.Subscribe(ctx), interactor.Refresh)
	removed := screen.Toggles(ctx, vm.removes.Subscribe(ctx),
		func(item Item) string { return item.ID },
		timings.ToggleThrottle,
		interactor.RemoveFavorite,
	)

	intents := vm.intents.Subscribe(ctx)
	changes := stream.Merge(ctx, listChanges, refreshChanges)
	ids := interactor.FavoritedIDs(ctx)

	vm.wg.Go(func() { vm.run(ctx, intents, changes, ids) })
	vm.wg.Go(func() {
		for e := range removed {
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
		state  = InitialState()
		latest domain.IDSet
		hasIDs bool
	)

	for {
		select {
		case intent, ok := <-intents:
			if !ok {
				intents = nil
				continue
			}
			switch intent := intent.(type) {
			case Refresh:
				if hasIDs {
					vm.refresh.Send(latest.Slice())
				}
			case RemoveFavorite:
				if latest.Contains(intent.Item.ID) {
					vm.removes.Send(intent.Item)
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
			case refreshSuccess:
				vm.out.Emit(RefreshSuccess{})
			case refreshError:
				vm.out.Emit(RefreshError{Err: c.err})
			}
			vm.out.Publish(state)

		case set, ok := <-ids:
			if !ok {
				ids = nil
				continue
			}
			latest, hasIDs = set, true
			vm.ids.Send(set.Slice())

		case <-ctx.Done():
			return
		}
	}
}
