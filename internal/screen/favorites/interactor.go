package favorites

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/screen"
	"github.com/listenupapp/searchbook/internal/stream"
)

type interactor struct {
	books  screen.BookRepository
	favs   screen.FavoritesRepository
	logger *slog.Logger
}

// NewInteractor creates the favorites interactor over the two repositories.
func NewInteractor(books screen.BookRepository, favs screen.FavoritesRepository, logger *slog.Logger) Interactor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &interactor{books: books, favs: favs, logger: logger}
}

func (i *interactor) GetBooks(ctx context.Context, ids []string) <-chan Change {
	resolved := stream.MergeMap(ctx, stream.Of(ids...), i.getBook)
	return stream.StartWith(ctx, resolved, Change(idsChanged{ids: ids}))
}

func (i *interactor) getBook(ctx context.Context, id string) <-chan Change {
	return stream.Map(ctx, i.books.GetBook(ctx, id, domain.LocalFirst), func(res domain.Result[domain.Book]) Change {
		if res.Err != nil {
			return bookError{id: id, err: errors.From(res.Err)}
		}
		return bookLoaded{id: id, book: BookFromDomain(res.Value)}
	})
}

func (i *interactor) Refresh(ctx context.Context, ids []string) <-chan Change {
	out := make(chan Change, 2)
	out <- refreshing{}
	go func() {
		defer close(out)
		i.logger.Debug("refresh favorites", "count", len(ids))

		books := make([]Book, len(ids))
		g, gctx := errgroup.WithContext(ctx)
		for n, id := range ids {
			g.Go(func() error {
				var last domain.Result[domain.Book]
				got := false
				for res := range i.books.GetBook(gctx, id, domain.NetworkOnly) {
					last, got = res, true
				}
				switch {
				case !got:
					return errors.Unexpectedf("refresh %s: no result", id)
				case last.Err != nil:
					return last.Err
				}
				books[n] = BookFromDomain(last.Value)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			out <- refreshError{err: errors.From(err)}
			return
		}
		out <- refreshSuccess{books: books}
	}()
	return out
}

func (i *interactor) RemoveFavorite(ctx context.Context, item Item) Event {
	book := domain.Book{ID: item.ID}
	if item.Book != nil {
		book.Title = item.Book.Title
		book.Subtitle = item.Book.Subtitle
		book.Thumbnail = item.Book.Thumbnail
	}

	res := i.favs.ToggleFavorited(ctx, book)
	switch {
	case res.Err != nil:
		return RemoveError{Item: item, Err: errors.From(res.Err)}
	case res.Value.Added:
		// Removed elsewhere in the meantime; the toggle put it back.
		return RemoveError{Item: item, Err: errors.Unexpectedf("book %s was not a favorite", item.ID)}
	}
	return Removed{Item: item}
}

func (i *interactor) FavoritedIDs(ctx context.Context) <-chan domain.IDSet {
	return i.favs.FavoritedIDs(ctx)
}
