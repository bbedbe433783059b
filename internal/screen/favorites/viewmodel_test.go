package favorites

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/screen"
	"github.com/listenupapp/searchbook/internal/screen/screentest"
)

var testTimings = screen.Timings{ToggleThrottle: 200 * time.Millisecond}

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

// titled resolves every id to a book whose title names the policy used.
func titled() *screentest.Books {
	return &screentest.Books{
		GetFunc: func(_ context.Context, id string, policy domain.CachePolicy) []domain.Result[domain.Book] {
			return []domain.Result[domain.Book]{domain.Ok(domain.Book{ID: id, Title: id + " " + policy.String()})}
		},
	}
}

func resolved(ids ...string) func(ViewState) bool {
	return func(s ViewState) bool {
		if len(s.Items) != len(ids) {
			return false
		}
		for i, item := range s.Items {
			if item.ID != ids[i] || item.Book == nil || item.IsLoading {
				return false
			}
		}
		return true
	}
}

func titles(s ViewState) []string {
	out := make([]string, 0, len(s.Items))
	for _, item := range s.Items {
		if item.Book != nil {
			out = append(out, item.Book.Title)
		}
	}
	return out
}

func TestList_FollowsIDs(t *testing.T) {
	favs := screentest.NewFavorites("a", "b")
	h := setup(t, titled(), favs)

	state := h.waitState(t, resolved("a", "b"))
	assert.Equal(t, []string{"a local_first", "b local_first"}, titles(state))

	favs.Set("b", "a", "c")
	state = h.waitState(t, resolved("b", "a", "c"))
	assert.Equal(t, []string{"b local_first", "a local_first", "c local_first"}, titles(state))
	for _, call := range h.books.Gets() {
		assert.Equal(t, domain.LocalFirst, call.Policy)
	}
}

func TestList_RowsResolveIndependently(t *testing.T) {
	release := make(chan struct{})
	books := &screentest.Books{
		GetFunc: func(ctx context.Context, id string, _ domain.CachePolicy) []domain.Result[domain.Book] {
			switch id {
			case "slow":
				select {
				case <-release:
				case <-ctx.Done():
				}
			case "broken":
				return []domain.Result[domain.Book]{domain.Fail[domain.Book](errors.ServerResponse(404, "Not found"))}
			}
			return []domain.Result[domain.Book]{domain.Ok(domain.Book{ID: id, Title: id})}
		},
	}
	h := setup(t, books, screentest.NewFavorites("slow", "broken", "ok"))

	state := h.waitState(t, func(s ViewState) bool {
		return len(s.Items) == 3 && s.Items[1].Error != nil && s.Items[2].Book != nil
	})
	assert.Equal(t, Item{ID: "slow", IsLoading: true}, state.Items[0])
	assert.True(t, state.Items[1].Error.Equal(errors.ServerResponse(404, "Not found")))
	assert.False(t, state.Items[1].IsLoading)

	close(release)
	state = h.waitState(t, func(s ViewState) bool { return s.Items[0].Book != nil })
	assert.Equal(t, "slow", state.Items[0].Book.Title)
	assert.NotNil(t, state.Items[1].Error)
}

func TestRefresh_CommitsAllAtOnce(t *testing.T) {
	h := setup(t, titled(), screentest.NewFavorites("a", "b"))
	h.waitState(t, resolved("a", "b"))

	h.vm.Process(Refresh{})
	assert.Equal(t, RefreshSuccess{}, h.nextEvent(t))

	state := h.waitState(t, func(s ViewState) bool { return !s.IsRefreshing })
	assert.Equal(t, []string{"a network_only", "b network_only"}, titles(state))
}

func TestRefresh_FailureKeepsList(t *testing.T) {
	books := &screentest.Books{
		GetFunc: func(_ context.Context, id string, policy domain.CachePolicy) []domain.Result[domain.Book] {
			if policy == domain.NetworkOnly && id == "b" {
				return []domain.Result[domain.Book]{
					domain.Ok(domain.Book{ID: id, Title: "cached"}),
					domain.Fail[domain.Book](errors.Network(nil)),
				}
			}
			return []domain.Result[domain.Book]{domain.Ok(domain.Book{ID: id, Title: id + " " + policy.String()})}
		},
	}
	h := setup(t, books, screentest.NewFavorites("a", "b"))
	before := h.waitState(t, resolved("a", "b"))

	h.vm.Process(Refresh{})
	e := h.nextEvent(t)
	require.IsType(t, RefreshError{}, e)
	assert.ErrorIs(t, e.(RefreshError).Err, errors.ErrNetwork)

	state := h.waitState(t, func(s ViewState) bool { return !s.IsRefreshing })
	assert.True(t, before.Equal(state))
}

func TestRemove_ObservedThroughIDs(t *testing.T) {
	favs := screentest.NewFavorites("a", "b")
	h := setup(t, titled(), favs)
	state := h.waitState(t, resolved("a", "b"))

	for range 3 {
		h.vm.Process(RemoveFavorite{Item: state.Items[0]})
	}
	assert.Equal(t, Removed{Item: state.Items[0]}, h.nextEvent(t))

	h.waitState(t, resolved("b"))
	time.Sleep(testTimings.ToggleThrottle / 2)
	assert.Equal(t, []string{"a"}, favs.Calls())
}

func TestRemove_IgnoresUnknownRows(t *testing.T) {
	favs := screentest.NewFavorites("a")
	h := setup(t, titled(), favs)
	h.waitState(t, resolved("a"))

	h.vm.Process(RemoveFavorite{Item: Item{ID: "zzz"}})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, favs.Calls())
}

func TestRemove_Error(t *testing.T) {
	favs := screentest.NewFavorites("a")
	favs.Err = errors.Unexpectedf("disk full")
	h := setup(t, titled(), favs)
	state := h.waitState(t, resolved("a"))

	h.vm.Process(RemoveFavorite{Item: state.Items[0]})
	e := h.nextEvent(t)
	require.IsType(t, RemoveError{}, e)
	assert.ErrorIs(t, e.(RemoveError).Err, errors.ErrUnexpected)
	assert.True(t, state.Equal(h.vm.State()))
}

func TestReduce_IDsChangedKeepsResolvedRows(t *testing.T) {
	book := Book{ID: "a", Title: "A"}
	s := ViewState{Items: []Item{
		{ID: "a", Book: &book},
		{ID: "b", Error: errors.Network(nil)},
	}}

	s = Reduce(s, idsChanged{ids: []string{"c", "b", "a"}})

	require.Len(t, s.Items, 3)
	assert.Equal(t, Item{ID: "c", IsLoading: true}, s.Items[0])
	assert.Equal(t, Item{ID: "b", IsLoading: true}, s.Items[1])
	assert.Equal(t, "A", s.Items[2].Book.Title)
}

func TestBookFromDomain_Summarizes(t *testing.T) {
	b := BookFromDomain(domain.Book{
		ID:          "x",
		Authors:     []string{"Ann", "Bob"},
		Description: "<p>Hello <i>world</i></p>",
	})

	assert.Equal(t, "Ann, Bob", b.Authors)
	assert.Equal(t, "Hello world", b.Summary)
}
