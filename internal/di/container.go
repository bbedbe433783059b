// Package di provides dependency injection configuration for the search book server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/searchbook/internal/api"
	"github.com/listenupapp/searchbook/internal/config"
	"github.com/listenupapp/searchbook/internal/di/providers"
	"github.com/listenupapp/searchbook/internal/logger"
	"github.com/listenupapp/searchbook/internal/repository"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer(args []string, version string) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, providers.Args(args))
	do.ProvideValue(injector, providers.Version(version))

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage and events
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)

	// Catalog and repositories
	do.Provide(injector, providers.ProvideBookAPI)
	do.Provide(injector, providers.ProvideBookRepository)
	do.Provide(injector, providers.ProvideFavoritesRepository)

	// Screens
	do.Provide(injector, providers.ProvideViewModels)
	do.Provide(injector, providers.ProvideSessions)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.BookAPIHandle](injector)
	_ = do.MustInvoke[*repository.BookRepository](injector)
	_ = do.MustInvoke[*repository.FavoritesRepository](injector)
	_ = do.MustInvoke[api.ViewModels](injector)
	_ = do.MustInvoke[*providers.SessionsHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
