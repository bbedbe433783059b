package home

import (
	"context"
	"log/slog"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/screen"
)

type interactor struct {
	books  screen.BookRepository
	favs   screen.FavoritesRepository
	logger *slog.Logger
}

// NewInteractor creates the home interactor over the two repositories.
func NewInteractor(books screen.BookRepository, favs screen.FavoritesRepository, logger *slog.Logger) Interactor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &interactor{books: books, favs: favs, logger: logger}
}

func (i *interactor) SearchBook(ctx context.Context, query string) <-chan Change {
	out := make(chan Change, 2)
	out <- loadingFirstPage{}
	go func() {
		defer close(out)
		i.logger.Debug("search", "query", query)

		res := i.books.SearchBook(ctx, query, 0)
		if res.Err != nil {
			out <- loadFirstPageError{err: errors.From(res.Err), searchTerm: query}
			return
		}
		out <- firstPageLoaded{books: toRows(res.Value), searchTerm: query}
	}()
	return out
}

func (i *interactor) LoadNextPage(ctx context.Context, query string, startIndex int) <-chan Change {
	out := make(chan Change, 2)
	out <- loadingNextPage{}
	go func() {
		defer close(out)
		i.logger.Debug("load next page", "query", query, "start_index", startIndex)

		res := i.books.SearchBook(ctx, query, startIndex)
		if res.Err != nil {
			out <- loadNextPageError{err: errors.From(res.Err), searchTerm: query}
			return
		}
		out <- nextPageLoaded{books: toRows(res.Value), searchTerm: query}
	}()
	return out
}

func (i *interactor) ToggleFavorited(ctx context.Context, book Book) Event {
	res := i.favs.ToggleFavorited(ctx, book.Domain())
	return domain.Fold(res,
		func(r domain.ToggleResult) Event {
			if r.Added {
				return AddedToFavorited{Book: BookFromDomain(r.Book)}
			}
			return RemovedFromFavorited{Book: BookFromDomain(r.Book)}
		},
		func(err error) Event {
			return ToggleFavoritedError{Book: book, Err: errors.From(err)}
		},
	)
}

func (i *interactor) FavoritedIDs(ctx context.Context) <-chan domain.IDSet {
	return i.favs.FavoritedIDs(ctx)
}

func toRows(books []domain.Book) []Book {
	rows := make([]Book, len(books))
	for i, b := range books {
		rows[i] = BookFromDomain(b)
	}
	return rows
}
