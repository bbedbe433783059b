package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/store"
)

func setupFavorites(t *testing.T) (*FavoritesRepository, *store.Store) {
	t.Helper()
	s, err := store.New(store.Options{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return NewFavoritesRepository(s, nil), s
}

func nextIDs(t *testing.T, ch <-chan domain.IDSet) []string {
	t.Helper()
	select {
	case set, ok := <-ch:
		require.True(t, ok, "ids stream closed")
		return set.Slice()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for favorite ids")
		return nil
	}
}

func TestToggleFavorited_AddThenRemove(t *testing.T) {
	repo, s := setupFavorites(t)
	ctx := context.Background()
	book := domain.Book{ID: "b1", Title: "One"}

	res := repo.ToggleFavorited(ctx, book)
	require.NoError(t, res.Err)
	assert.True(t, res.Value.Added)
	assert.Equal(t, book, res.Value.Book)

	ids, err := s.Strings(ctx, FavoritesKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, ids)

	res = repo.ToggleFavorited(ctx, book)
	require.NoError(t, res.Err)
	assert.False(t, res.Value.Added)

	ids, err = s.Strings(ctx, FavoritesKey)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestToggleFavorited_KeepsInsertionOrder(t *testing.T) {
	repo, s := setupFavorites(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.ToggleFavorited(ctx, domain.Book{ID: id}).Err)
	}
	require.NoError(t, repo.ToggleFavorited(ctx, domain.Book{ID: "a"}).Err)

	ids, err := s.Strings(ctx, FavoritesKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, ids)
}

func TestToggleFavorited_EmptyID(t *testing.T) {
	repo, _ := setupFavorites(t)

	res := repo.ToggleFavorited(context.Background(), domain.Book{})
	assert.ErrorIs(t, res.Err, errors.ErrUnexpected)
}

func TestFavoritedIDs_EmitsCurrentThenChanges(t *testing.T) {
	repo, s := setupFavorites(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.SetStrings(ctx, FavoritesKey, []string{"x"}))

	ids := repo.FavoritedIDs(ctx)
	assert.Equal(t, []string{"x"}, nextIDs(t, ids))

	require.NoError(t, repo.ToggleFavorited(ctx, domain.Book{ID: "y"}).Err)
	assert.Equal(t, []string{"x", "y"}, nextIDs(t, ids))

	require.NoError(t, repo.ToggleFavorited(ctx, domain.Book{ID: "x"}).Err)
	assert.Equal(t, []string{"y"}, nextIDs(t, ids))
}

func TestFavoritedIDs_SkipsUnchangedWrites(t *testing.T) {
	repo, s := setupFavorites(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ids := repo.FavoritedIDs(ctx)
	assert.Empty(t, nextIDs(t, ids))

	// Same set written again: no emission.
	require.NoError(t, s.SetStrings(ctx, FavoritesKey, nil))
	require.NoError(t, s.SetStrings(ctx, FavoritesKey, []string{"z"}))
	assert.Equal(t, []string{"z"}, nextIDs(t, ids))
}

func TestFavoritedIDs_LateSubscriberGetsLatest(t *testing.T) {
	repo, _ := setupFavorites(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := repo.FavoritedIDs(ctx)
	assert.Empty(t, nextIDs(t, first))
	require.NoError(t, repo.ToggleFavorited(ctx, domain.Book{ID: "b1"}).Err)
	assert.Equal(t, []string{"b1"}, nextIDs(t, first))

	late := repo.FavoritedIDs(ctx)
	assert.Equal(t, []string{"b1"}, nextIDs(t, late))
}

func TestToggleFavorited_Concurrent(t *testing.T) {
	repo, s := setupFavorites(t)
	ctx := context.Background()

	done := make(chan struct{})
	for _, id := range []string{"a", "b", "c", "d"} {
		go func() {
			defer func() { done <- struct{}{} }()
			assert.NoError(t, repo.ToggleFavorited(ctx, domain.Book{ID: id}).Err)
		}()
	}
	for range 4 {
		<-done
	}

	ids, err := s.Strings(ctx, FavoritesKey)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, ids)
}
