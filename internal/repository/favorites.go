package repository

import (
	"context"
	"log/slog"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/stream"
)

// FavoritesKey is the store key holding the favorite ids.
const FavoritesKey = "fav_ids"

// KeyValue is the persistence collaborator.
type KeyValue interface {
	UpdateStrings(ctx context.Context, key string, fn func(current []string) ([]string, error)) ([]string, error)
	WatchStrings(ctx context.Context, key string) <-chan []string
}

// FavoritesRepository owns the persisted set of favorite book ids.
type FavoritesRepository struct {
	kv     KeyValue
	ids    *stream.Shared[domain.IDSet]
	logger *slog.Logger
}

// NewFavoritesRepository creates a favorites repository on top of kv.
func NewFavoritesRepository(kv KeyValue, logger *slog.Logger) *FavoritesRepository {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &FavoritesRepository{kv: kv, logger: logger}
	r.ids = stream.Share(func(ctx context.Context) <-chan domain.IDSet {
		logger.Debug("favorites watch started")
		sets := stream.Map(ctx, kv.WatchStrings(ctx, FavoritesKey), func(ids []string) domain.IDSet {
			return domain.NewIDSet(ids...)
		})
		return stream.DistinctFunc(ctx, sets, domain.IDSet.Equal)
	})
	return r
}

// ToggleFavorited flips the membership of book.ID in one atomic
// read-modify-write and reports whether the book was added.
func (r *FavoritesRepository) ToggleFavorited(ctx context.Context, book domain.Book) domain.Result[domain.ToggleResult] {
	if book.ID == "" {
		return domain.Fail[domain.ToggleResult](errors.Unexpectedf("toggle favorite: empty book id"))
	}

	var added bool
	_, err := r.kv.UpdateStrings(ctx, FavoritesKey, func(current []string) ([]string, error) {
		set := domain.NewIDSet(current...)
		added = !set.Contains(book.ID)
		if added {
			return set.With(book.ID).Slice(), nil
		}
		return set.Without(book.ID).Slice(), nil
	})
	if err != nil {
		r.logger.Warn("toggle favorite failed", "id", book.ID, "error", err)
		return domain.Fail[domain.ToggleResult](errors.From(err))
	}

	r.logger.Debug("favorite toggled", "id", book.ID, "added", added)
	return domain.Ok(domain.ToggleResult{Added: added, Book: book})
}

// FavoritedIDs streams the favorite ids: the current set first, then every
// change, without consecutive duplicates. All subscribers share one store
// watch and late subscribers get the latest set immediately.
func (r *FavoritesRepository) FavoritedIDs(ctx context.Context) <-chan domain.IDSet {
	return r.ids.Subscribe(ctx)
}
