// Package repository holds the two data owners of the app: the book
// repository (remote catalog plus detail cache) and the favorites repository
// (the persisted set of favorite ids).
package repository

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/listenupapp/searchbook/internal/bookapi"
	"github.com/listenupapp/searchbook/internal/cache"
	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
)

// BookAPI is the remote catalog collaborator.
type BookAPI interface {
	Search(ctx context.Context, query string, startIndex int) ([]bookapi.Volume, error)
	Volume(ctx context.Context, id string) (*bookapi.Volume, error)
}

// BookRepository searches the catalog and serves book details through a TTL cache.
type BookRepository struct {
	api    BookAPI
	cache  *cache.TTL[string, domain.Book]
	group  singleflight.Group
	logger *slog.Logger
}

// NewBookRepository creates a book repository. The cache is owned by the
// repository from now on.
func NewBookRepository(api BookAPI, detailCache *cache.TTL[string, domain.Book], logger *slog.Logger) *BookRepository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BookRepository{
		api:    api,
		cache:  detailCache,
		logger: logger,
	}
}

// SearchBook returns one page of results. Search results are never cached.
func (r *BookRepository) SearchBook(ctx context.Context, query string, startIndex int) domain.Result[[]domain.Book] {
	volumes, err := r.api.Search(ctx, query, startIndex)
	if err != nil {
		r.logger.Debug("search failed", "query", query, "start_index", startIndex, "error", err)
		return domain.Fail[[]domain.Book](toAppError(err))
	}

	books := make([]domain.Book, 0, len(volumes))
	for _, v := range volumes {
		books = append(books, v.Book())
	}
	return domain.Ok(books)
}

// GetBook streams the book with the given id according to policy:
//
//	NetworkOnly            cached value first if present, then fetch
//	LocalFirst, fresh      cached value only
//	LocalFirst, stale/miss cached value first if present, then fetch
//
// A successful fetch overwrites the cache entry; a failed one leaves it alone.
// The channel is closed after the last emission and never blocks the sender.
func (r *BookRepository) GetBook(ctx context.Context, id string, policy domain.CachePolicy) <-chan domain.Result[domain.Book] {
	out := make(chan domain.Result[domain.Book], 2)

	entry, fresh, cached := r.cache.Get(id)
	if cached {
		out <- domain.Ok(entry.Value)
	}
	if policy == domain.LocalFirst && cached && fresh {
		close(out)
		return out
	}

	go func() {
		defer close(out)
		out <- r.fetch(ctx, id)
	}()
	return out
}

// fetch loads a book from the API. Concurrent fetches of the same id share
// one request.
func (r *BookRepository) fetch(ctx context.Context, id string) domain.Result[domain.Book] {
	ch := r.group.DoChan(id, func() (any, error) {
		// Shared by every waiting caller, so one caller leaving must not cancel it.
		v, err := r.api.Volume(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		book := v.Book()
		r.cache.Put(id, book)
		return book, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			r.logger.Debug("get book failed", "id", id, "error", res.Err)
			return domain.Fail[domain.Book](toAppError(res.Err))
		}
		return domain.Ok(res.Val.(domain.Book))
	case <-ctx.Done():
		return domain.Fail[domain.Book](errors.Unexpected(ctx.Err()))
	}
}

// toAppError maps collaborator failures onto the app taxonomy.
func toAppError(err error) *errors.AppError {
	var apiErr *bookapi.APIError
	if errors.As(err, &apiErr) {
		return errors.ServerResponse(apiErr.Code, apiErr.Message)
	}
	var netErr *bookapi.NetworkError
	if errors.As(err, &netErr) {
		return errors.Network(netErr)
	}
	return errors.From(err)
}
