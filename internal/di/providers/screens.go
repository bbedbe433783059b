package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/searchbook/internal/api"
	"github.com/listenupapp/searchbook/internal/config"
	"github.com/listenupapp/searchbook/internal/logger"
	"github.com/listenupapp/searchbook/internal/repository"
	"github.com/listenupapp/searchbook/internal/screen"
	"github.com/listenupapp/searchbook/internal/screen/detail"
	"github.com/listenupapp/searchbook/internal/screen/favorites"
	"github.com/listenupapp/searchbook/internal/screen/home"
)

// ProvideViewModels provides the per-session view-model factories.
func ProvideViewModels(i do.Injector) (api.ViewModels, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	books := do.MustInvoke[*repository.BookRepository](i)
	favs := do.MustInvoke[*repository.FavoritesRepository](i)

	timings := screen.Timings{
		SearchDebounce: cfg.Screens.SearchDebounce,
		ToggleThrottle: cfg.Screens.ToggleThrottle,
		RefreshDelay:   cfg.Screens.RefreshDelay,
	}.WithDefaults()
	screenLog := log.Component("screen")

	return api.ViewModels{
		Home: func() *home.ViewModel {
			return home.New(home.NewInteractor(books, favs, screenLog), timings, screenLog)
		},
		Detail: func() *detail.ViewModel {
			return detail.New(detail.NewInteractor(books, favs, timings.RefreshDelay, screenLog), timings, screenLog)
		},
		Favorites: func() *favorites.ViewModel {
			return favorites.New(favorites.NewInteractor(books, favs, screenLog), timings, screenLog)
		},
	}, nil
}

// SessionsHandle wraps the session registry with shutdown capability.
type SessionsHandle struct {
	*api.Sessions
}

// Shutdown implements do.Shutdownable.
func (h *SessionsHandle) Shutdown() error {
	h.CloseAll()
	return nil
}

// ProvideSessions provides the screen session registry.
func ProvideSessions(i do.Injector) (*SessionsHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)
	viewModels := do.MustInvoke[api.ViewModels](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	return &SessionsHandle{
		Sessions: api.NewSessions(viewModels, sseHandle.Manager, log.Component("sessions")),
	}, nil
}
