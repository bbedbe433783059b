package home

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/screen"
	"github.com/listenupapp/searchbook/internal/screen/screentest"
)

var testTimings = screen.Timings{
	SearchDebounce: 50 * time.Millisecond,
	ToggleThrottle: 200 * time.Millisecond,
	RefreshDelay:   10 * time.Millisecond,
}

type harness struct {
	vm     *ViewModel
	books  *screentest.Books
	favs   *screentest.Favorites
	events <-chan Event
}

func setup(t *testing.T, books *screentest.Books, favs *screentest.Favorites) *harness {
	t.Helper()
	vm := New(NewInteractor(books, favs, nil), testTimings, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		vm.Close()
	})
	return &harness{vm: vm, books: books, favs: favs, events: vm.Events(ctx)}
}

func (h *harness) waitState(t *testing.T, cond func(ViewState) bool) ViewState {
	t.Helper()
	require.Eventually(t, func() bool { return cond(h.vm.State()) }, 2*time.Second, 5*time.Millisecond)
	return h.vm.State()
}

func (h *harness) nextEvent(t *testing.T) Event {
	t.Helper()
	select {
	case e := <-h.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func bookIDs(books []Book) []string {
	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return ids
}

func TestSearch_DebouncesTyping(t *testing.T) {
	h := setup(t, &screentest.Books{}, screentest.NewFavorites())

	for _, term := range []string{"h", "ha", "har"} {
		h.vm.Process(Search{Term: term})
		time.Sleep(10 * time.Millisecond)
	}

	h.waitState(t, func(s ViewState) bool { return s.SearchTerm == "har" && len(s.Books) > 0 })
	time.Sleep(3 * testTimings.SearchDebounce)

	assert.Equal(t, []screentest.SearchCall{{Query: "har", StartIndex: 0}}, h.books.Searches())
}

func TestSearch_TrimsAndDropsBlankTerms(t *testing.T) {
	h := setup(t, &screentest.Books{}, screentest.NewFavorites())

	h.vm.Process(Search{Term: "   "})
	time.Sleep(3 * testTimings.SearchDebounce)
	assert.Empty(t, h.books.Searches())

	h.vm.Process(Search{Term: "  go  "})
	h.waitState(t, func(s ViewState) bool { return len(s.Books) > 0 })
	assert.Equal(t, []screentest.SearchCall{{Query: "go"}}, h.books.Searches())
}

func TestSearch_LatestTermWins(t *testing.T) {
	release := make(chan struct{})
	books := &screentest.Books{
		SearchFunc: func(ctx context.Context, query string, startIndex int) ([]domain.Book, error) {
			if query == "slow" {
				select {
				case <-release:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return []domain.Book{{ID: query + "-1", Title: query}}, nil
		},
	}
	h := setup(t, books, screentest.NewFavorites())
	defer close(release)

	h.vm.Process(Search{Term: "slow"})
	require.Eventually(t, func() bool { return len(h.books.Searches()) == 1 }, time.Second, 5*time.Millisecond)

	h.vm.Process(Search{Term: "fast"})
	state := h.waitState(t, func(s ViewState) bool { return s.SearchTerm == "fast" })
	assert.Equal(t, []string{"fast-1"}, bookIDs(state.Books))

	// The superseded load was cancelled and its outcome dropped.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"fast-1"}, bookIDs(h.vm.State().Books))
}

func TestPagination_AppendsInOrder(t *testing.T) {
	h := setup(t, &screentest.Books{PageSize: 20}, screentest.NewFavorites())

	h.vm.Process(Search{Term: "go"})
	h.waitState(t, func(s ViewState) bool { return len(s.Books) == 20 })

	h.vm.Process(LoadNextPage{})
	state := h.waitState(t, func(s ViewState) bool { return len(s.Books) == 40 })

	want := make([]string, 40)
	for i := range want {
		want[i] = fmt.Sprintf("b%d", i+1)
	}
	assert.Equal(t, want, bookIDs(state.Books))
	require.Len(t, state.Items, 40)
	for i, item := range state.Items {
		assert.Equal(t, ItemBook, item.Kind)
		assert.Equal(t, want[i], item.Book.ID)
	}
	assert.Equal(t, []screentest.SearchCall{
		{Query: "go", StartIndex: 0},
		{Query: "go", StartIndex: 20},
	}, h.books.Searches())
}

func TestPagination_IgnoresTriggersWhileLoading(t *testing.T) {
	release := make(chan struct{})
	books := &screentest.Books{
		SearchFunc: func(ctx context.Context, query string, startIndex int) ([]domain.Book, error) {
			if startIndex > 0 {
				select {
				case <-release:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return screentest.Page(startIndex, 20), nil
		},
	}
	h := setup(t, books, screentest.NewFavorites())

	h.vm.Process(Search{Term: "go"})
	h.waitState(t, func(s ViewState) bool { return len(s.Books) == 20 })

	h.vm.Process(LoadNextPage{})
	h.vm.Process(LoadNextPage{})
	h.vm.Process(LoadNextPage{})
	state := h.waitState(t, func(s ViewState) bool {
		return len(s.Items) == 21 && s.Items[20].Kind == ItemLoading
	})
	assert.False(t, state.ShouldLoadNextPage())
	time.Sleep(30 * time.Millisecond)
	close(release)

	h.waitState(t, func(s ViewState) bool { return len(s.Books) == 40 })
	assert.Len(t, h.books.Searches(), 2)
}

func TestPagination_BackToBackTriggersLoadOnePage(t *testing.T) {
	timings := testTimings
	timings.SearchDebounce = time.Millisecond

	for i := range 200 {
		books := &screentest.Books{PageSize: 20}
		vm := New(NewInteractor(books, screentest.NewFavorites(), nil), timings, nil)

		vm.Process(Search{Term: "go"})
		require.Eventually(t, func() bool { return len(vm.State().Books) == 20 }, 2*time.Second, time.Millisecond)

		vm.Process(LoadNextPage{})
		vm.Process(LoadNextPage{})
		require.Eventually(t, func() bool { return len(vm.State().Books) >= 40 }, 2*time.Second, time.Millisecond)
		time.Sleep(2 * time.Millisecond)

		state := vm.State()
		vm.Close()
		require.Len(t, state.Books, 40, "iteration %d", i)
		require.Equal(t, []screentest.SearchCall{
			{Query: "go", StartIndex: 0},
			{Query: "go", StartIndex: 20},
		}, books.Searches(), "iteration %d", i)
	}
}

func TestFirstPageError_RetryAfterFailure(t *testing.T) {
	fail := true
	books := &screentest.Books{
		SearchFunc: func(_ context.Context, query string, startIndex int) ([]domain.Book, error) {
			if fail {
				fail = false
				return nil, errors.Network(nil)
			}
			return screentest.Page(startIndex, 2), nil
		},
	}
	h := setup(t, books, screentest.NewFavorites())

	h.vm.Process(Search{Term: "go"})
	state := h.waitState(t, func(s ViewState) bool { return s.ShouldRetryFirstPage() })
	assert.Equal(t, "go", state.SearchTerm)
	assert.True(t, state.Items[0].Error.Equal(errors.Network(nil)))

	e := h.nextEvent(t)
	require.IsType(t, LoadError{}, e)
	assert.ErrorIs(t, e.(LoadError).Err, errors.ErrNetwork)

	// A first-page error does not accept a next-page retry.
	h.vm.Process(RetryLoadNextPage{})
	h.vm.Process(RetryLoadFirstPage{})
	state = h.waitState(t, func(s ViewState) bool { return len(s.Books) == 2 })
	assert.Equal(t, []string{"b1", "b2"}, bookIDs(state.Books))
	assert.Equal(t, []screentest.SearchCall{{Query: "go"}, {Query: "go"}}, h.books.Searches())
}

func TestNextPageError_KeepsBooksAndRetries(t *testing.T) {
	fail := true
	books := &screentest.Books{
		SearchFunc: func(_ context.Context, _ string, startIndex int) ([]domain.Book, error) {
			if startIndex > 0 && fail {
				fail = false
				return nil, errors.ServerResponse(503, "Backend Error")
			}
			return screentest.Page(startIndex, 2), nil
		},
	}
	h := setup(t, books, screentest.NewFavorites())

	h.vm.Process(Search{Term: "go"})
	h.waitState(t, func(s ViewState) bool { return len(s.Books) == 2 })

	h.vm.Process(LoadNextPage{})
	state := h.waitState(t, func(s ViewState) bool { return s.ShouldRetryNextPage() })
	assert.Len(t, state.Books, 2)
	require.Len(t, state.Items, 3)
	assert.True(t, state.Items[2].Error.Equal(errors.ServerResponse(503, "Backend Error")))

	e := h.nextEvent(t)
	require.IsType(t, LoadError{}, e)

	// A retry of the first page is not accepted once books are loaded.
	h.vm.Process(RetryLoadFirstPage{})
	h.vm.Process(RetryLoadNextPage{})
	state = h.waitState(t, func(s ViewState) bool { return len(s.Books) == 4 })
	assert.Equal(t, []string{"b1", "b2", "b3", "b4"}, bookIDs(state.Books))
	assert.Len(t, h.books.Searches(), 3)
}

func TestFavoriteOverlay(t *testing.T) {
	favs := screentest.NewFavorites("b2")
	h := setup(t, &screentest.Books{PageSize: 3}, favs)

	h.vm.Process(Search{Term: "go"})
	state := h.waitState(t, func(s ViewState) bool { return len(s.Books) == 3 })
	assert.Equal(t, []bool{false, true, false}, favorited(state))
	assert.Equal(t, 1, state.FavCount)

	favs.Set("b1", "b3", "other")
	state = h.waitState(t, func(s ViewState) bool { return s.FavCount == 3 })
	assert.Equal(t, []bool{true, false, true}, favorited(state))
	for _, b := range state.Books {
		assert.Equal(t, b.ID != "b2", b.IsFavorited)
	}
	assert.Len(t, h.books.Searches(), 1)
}

func favorited(s ViewState) []bool {
	out := make([]bool, 0, len(s.Items))
	for _, item := range s.Items {
		out = append(out, item.Book.IsFavorited)
	}
	return out
}

func TestToggle_CoalescesRapidTaps(t *testing.T) {
	h := setup(t, &screentest.Books{}, screentest.NewFavorites())
	book := Book{ID: "A", Title: "A"}

	for range 3 {
		h.vm.Process(ToggleFavorite{Book: book})
	}

	assert.Equal(t, AddedToFavorited{Book: Book{ID: "A", Title: "A"}}, h.nextEvent(t))
	time.Sleep(testTimings.ToggleThrottle / 2)
	assert.Equal(t, []string{"A"}, h.favs.Calls())
}

func TestToggle_DifferentIDsDoNotBlockEachOther(t *testing.T) {
	favs := screentest.NewFavorites()
	release := favs.Block("A")
	defer release()
	h := setup(t, &screentest.Books{}, favs)

	h.vm.Process(ToggleFavorite{Book: Book{ID: "A"}})
	h.vm.Process(ToggleFavorite{Book: Book{ID: "B"}})

	// B completes while A is still in flight.
	assert.Equal(t, AddedToFavorited{Book: Book{ID: "B"}}, h.nextEvent(t))
	assert.ElementsMatch(t, []string{"A", "B"}, favs.Calls())

	release()
	assert.Equal(t, AddedToFavorited{Book: Book{ID: "A"}}, h.nextEvent(t))
}

func TestToggle_SameIDQueuesAfterThrottleWindow(t *testing.T) {
	favs := screentest.NewFavorites()
	release := favs.Block("A")
	h := setup(t, &screentest.Books{}, favs)

	h.vm.Process(ToggleFavorite{Book: Book{ID: "A"}})
	require.Eventually(t, func() bool { return len(favs.Calls()) == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(testTimings.ToggleThrottle + 50*time.Millisecond)
	h.vm.Process(ToggleFavorite{Book: Book{ID: "A"}})
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, favs.Calls(), 1, "second toggle must wait for the first")

	release()
	assert.Equal(t, AddedToFavorited{Book: Book{ID: "A"}}, h.nextEvent(t))
	assert.Equal(t, RemovedFromFavorited{Book: Book{ID: "A"}}, h.nextEvent(t))
	assert.Equal(t, []string{"A", "A"}, favs.Calls())
}

func TestToggle_ErrorIsEventOnly(t *testing.T) {
	favs := screentest.NewFavorites()
	favs.Err = errors.Unexpectedf("disk full")
	h := setup(t, &screentest.Books{PageSize: 1}, favs)

	h.vm.Process(Search{Term: "go"})
	before := h.waitState(t, func(s ViewState) bool { return len(s.Books) == 1 })

	h.vm.Process(ToggleFavorite{Book: before.Books[0]})
	e := h.nextEvent(t)
	require.IsType(t, ToggleFavoritedError{}, e)
	assert.ErrorIs(t, e.(ToggleFavoritedError).Err, errors.ErrUnexpected)
	assert.True(t, before.Equal(h.vm.State()))
}

func TestEndToEnd_SearchThenFavorite(t *testing.T) {
	books := &screentest.Books{
		SearchFunc: func(context.Context, string, int) ([]domain.Book, error) {
			return []domain.Book{{ID: "abc", Title: "Clean Code"}}, nil
		},
	}
	h := setup(t, books, screentest.NewFavorites())

	h.vm.Process(Search{Term: "clean code"})
	state := h.waitState(t, func(s ViewState) bool { return len(s.Books) == 1 })
	require.Len(t, state.Items, 1)
	assert.Equal(t, BookItem(Book{ID: "abc", Title: "Clean Code", IsFavorited: false}), state.Items[0])

	h.vm.Process(ToggleFavorite{Book: state.Books[0]})
	assert.Equal(t, AddedToFavorited{Book: Book{ID: "abc", Title: "Clean Code"}}, h.nextEvent(t))

	state = h.waitState(t, func(s ViewState) bool { return s.FavCount == 1 })
	assert.Equal(t, BookItem(Book{ID: "abc", Title: "Clean Code", IsFavorited: true}), state.Items[0])
	assert.Len(t, books.Searches(), 1)
}

func TestStates_DeduplicatesAndCloses(t *testing.T) {
	favs := screentest.NewFavorites()
	h := setup(t, &screentest.Books{PageSize: 1}, favs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := h.vm.States(ctx)

	h.vm.Process(Search{Term: "go"})
	h.waitState(t, func(s ViewState) bool { return len(s.Books) == 1 })
	favs.Set() // same empty set: no new state

	h.vm.Close()

	var got []ViewState
	for s := range states {
		got = append(got, s)
	}
	// initial, loading, loaded
	require.Len(t, got, 3)
	assert.Equal(t, ItemLoading, got[1].Items[0].Kind)
	assert.Equal(t, ItemBook, got[2].Items[0].Kind)
}

func TestReduce_FirstPageLoadingDropsMarkers(t *testing.T) {
	s := ViewState{
		Items: []Item{BookItem(Book{ID: "b1"}), ErrorItem(errors.Network(nil), false)},
		Books: []Book{{ID: "b1"}},
	}

	s = Reduce(s, loadingFirstPage{})
	assert.Equal(t, []Item{LoadingItem(), BookItem(Book{ID: "b1"})}, s.Items)

	s = Reduce(s, loadFirstPageError{err: errors.Network(nil), searchTerm: "x"})
	assert.True(t, s.ShouldRetryFirstPage())
	assert.Empty(t, s.Books)
}
