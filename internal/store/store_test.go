package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/searchbook/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(store.Options{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStrings_MissingKey(t *testing.T) {
	s := setupTestStore(t)

	values, err := s.Strings(context.Background(), "fav_ids")
	require.NoError(t, err)
	assert.Nil(t, values)
}

func TestSetStrings_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetStrings(ctx, "fav_ids", []string{"a", "b"}))

	values, err := s.Strings(ctx, "fav_ids")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, values)
}

func TestOnDisk_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := store.New(store.Options{Path: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetStrings(ctx, "fav_ids", []string{"x"}))
	require.NoError(t, s.Close())

	reopened, err := store.New(store.Options{Path: dir}, nil)
	require.NoError(t, err)
	defer reopened.Close()

	values, err := reopened.Strings(ctx, "fav_ids")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, values)
}

func TestUpdateStrings_FnErrorLeavesValue(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SetStrings(ctx, "fav_ids", []string{"a"}))

	boom := errors.New("boom")
	_, err := s.UpdateStrings(ctx, "fav_ids", func([]string) ([]string, error) { return nil, boom })
	require.ErrorIs(t, err, boom)

	values, err := s.Strings(ctx, "fav_ids")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, values)
}

func TestUpdateStrings_ConcurrentAppendsAreAtomic(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			_, err := s.UpdateStrings(ctx, "fav_ids", func(cur []string) ([]string, error) {
				return append(cur, fmt.Sprintf("id-%d", i)), nil
			})
			// Exhausted retries are acceptable under heavy contention; lost writes are not.
			if err != nil {
				assert.ErrorIs(t, err, badger.ErrConflict)
			}
		})
	}
	wg.Wait()

	values, err := s.Strings(ctx, "fav_ids")
	require.NoError(t, err)
	seen := make(map[string]bool)
	for _, v := range values {
		assert.False(t, seen[v], "duplicate %s", v)
		seen[v] = true
	}
	assert.NotEmpty(t, values)
}

func TestWatchStrings_EmitsCurrentThenChanges(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.SetStrings(ctx, "fav_ids", []string{"a"}))

	watch := s.WatchStrings(ctx, "fav_ids")
	assert.Equal(t, []string{"a"}, receive(t, watch))

	require.NoError(t, s.SetStrings(ctx, "fav_ids", []string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, receive(t, watch))

	// Writes to other keys are not observed.
	require.NoError(t, s.SetStrings(ctx, "other", []string{"z"}))
	select {
	case v := <-watch:
		t.Fatalf("unexpected emission %v", v)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-watch
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestWatchStrings_ClosedWithStore(t *testing.T) {
	s, err := store.New(store.Options{InMemory: true}, nil)
	require.NoError(t, err)

	watch := s.WatchStrings(context.Background(), "fav_ids")
	assert.Nil(t, receive(t, watch))

	require.NoError(t, s.Close())
	select {
	case _, ok := <-watch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("watch not closed with store")
	}
}

func receive(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "watch closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch")
		return nil
	}
}

func TestPing(t *testing.T) {
	s, err := store.New(store.Options{InMemory: true}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Ping(context.Background()))

	require.NoError(t, s.Close())
	assert.Error(t, s.Ping(context.Background()))
}
