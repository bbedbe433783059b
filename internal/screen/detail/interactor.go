package detail

import (
	"context"
	"log/slog"
	"time"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/screen"
)

type interactor struct {
	books        screen.BookRepository
	favs         screen.FavoritesRepository
	refreshDelay time.Duration
	logger       *slog.Logger
}

// NewInteractor creates the detail interactor. Every refresh waits
// refreshDelay before it loads, so the refreshing state is observable.
func NewInteractor(books screen.BookRepository, favs screen.FavoritesRepository, refreshDelay time.Duration, logger *slog.Logger) Interactor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if refreshDelay < 0 {
		refreshDelay = 0
	}
	return &interactor{books: books, favs: favs, refreshDelay: refreshDelay, logger: logger}
}

func (i *interactor) GetDetail(ctx context.Context, id string) <-chan Change {
	out := make(chan Change)
	go func() {
		defer close(out)
		if !send(ctx, out, Change(loading{})) {
			return
		}
		for res := range i.books.GetBook(ctx, id, domain.NetworkOnly) {
			var c Change = detailLoaded{detail: DetailFromDomain(res.Value)}
			if res.Err != nil {
				c = detailError{err: errors.From(res.Err)}
			}
			if !send(ctx, out, c) {
				return
			}
		}
	}()
	return out
}

func (i *interactor) Refresh(ctx context.Context, id string) <-chan Change {
	out := make(chan Change)
	go func() {
		defer close(out)
		if !send(ctx, out, Change(refreshing{})) {
			return
		}

		timer := time.NewTimer(i.refreshDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}

		i.logger.Debug("refresh", "id", id)
		for res := range i.books.GetBook(ctx, id, domain.LocalFirst) {
			var c Change = refreshSuccess{detail: DetailFromDomain(res.Value)}
			if res.Err != nil {
				c = refreshError{err: errors.From(res.Err)}
			}
			if !send(ctx, out, c) {
				return
			}
		}
	}()
	return out
}

func (i *interactor) ToggleFavorited(ctx context.Context, detail BookDetail) Event {
	res := i.favs.ToggleFavorited(ctx, detail.Domain())
	if res.Err != nil {
		return ToggleFavoritedError{Detail: detail, Err: errors.From(res.Err)}
	}
	d := detail
	d.IsFavorited = res.Value.Added
	if res.Value.Added {
		return AddedToFavorited{Detail: d}
	}
	return RemovedFromFavorited{Detail: d}
}

func (i *interactor) FavoritedIDs(ctx context.Context) <-chan domain.IDSet {
	return i.favs.FavoritedIDs(ctx)
}

func send(ctx context.Context, out chan<- Change, c Change) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
