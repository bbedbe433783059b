package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/searchbook/internal/bookapi"
	"github.com/listenupapp/searchbook/internal/cache"
	"github.com/listenupapp/searchbook/internal/config"
	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/logger"
	"github.com/listenupapp/searchbook/internal/repository"
)

// BookAPIHandle wraps the catalog client with shutdown capability.
type BookAPIHandle struct {
	*bookapi.Client
}

// Shutdown implements do.Shutdownable.
func (h *BookAPIHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideBookAPI provides the rate-limited catalog client.
func ProvideBookAPI(i do.Injector) (*BookAPIHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := bookapi.New(bookapi.Config{
		BaseURL:           cfg.BookAPI.BaseURL,
		Timeout:           cfg.BookAPI.Timeout,
		RequestsPerSecond: cfg.BookAPI.RequestsPerSecond,
		Burst:             cfg.BookAPI.Burst,
	}, log.Component("bookapi"))

	return &BookAPIHandle{Client: client}, nil
}

// ProvideBookRepository provides the book repository and its detail cache.
func ProvideBookRepository(i do.Injector) (*repository.BookRepository, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	api := do.MustInvoke[*BookAPIHandle](i)

	detailCache := cache.New[string, domain.Book](cfg.Cache.DetailTTL, nil)
	return repository.NewBookRepository(api.Client, detailCache, log.Component("books")), nil
}

// ProvideFavoritesRepository provides the favorites repository.
func ProvideFavoritesRepository(i do.Injector) (*repository.FavoritesRepository, error) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	return repository.NewFavoritesRepository(storeHandle.Store, log.Component("favorites")), nil
}
