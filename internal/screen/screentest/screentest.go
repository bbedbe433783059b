// Package screentest provides in-memory repositories for view-model tests.
package screentest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/stream"
)

// SearchCall records one SearchBook call.
type SearchCall struct {
	Query      string
	StartIndex int
}

// GetCall records one GetBook call.
type GetCall struct {
	ID     string
	Policy domain.CachePolicy
}

// Books is a scriptable book repository. Without a SearchFunc every page
// holds PageSize books numbered from startIndex+1; without a GetFunc every
// id resolves to a book titled after it.
type Books struct {
	SearchFunc func(ctx context.Context, query string, startIndex int) ([]domain.Book, error)
	GetFunc    func(ctx context.Context, id string, policy domain.CachePolicy) []domain.Result[domain.Book]
	PageSize   int

	mu       sync.Mutex
	searches []SearchCall
	gets     []GetCall
}

// SearchBook implements the catalog contract.
func (b *Books) SearchBook(ctx context.Context, query string, startIndex int) domain.Result[[]domain.Book] {
	b.mu.Lock()
	b.searches = append(b.searches, SearchCall{Query: query, StartIndex: startIndex})
	fn := b.SearchFunc
	size := b.PageSize
	b.mu.Unlock()

	if fn != nil {
		books, err := fn(ctx, query, startIndex)
		if err != nil {
			return domain.Fail[[]domain.Book](errors.From(err))
		}
		return domain.Ok(books)
	}
	if size <= 0 {
		size = 20
	}
	return domain.Ok(Page(startIndex, size))
}

// GetBook implements the catalog contract.
func (b *Books) GetBook(ctx context.Context, id string, policy domain.CachePolicy) <-chan domain.Result[domain.Book] {
	b.mu.Lock()
	b.gets = append(b.gets, GetCall{ID: id, Policy: policy})
	fn := b.GetFunc
	b.mu.Unlock()

	out := make(chan domain.Result[domain.Book])
	go func() {
		defer close(out)
		results := []domain.Result[domain.Book]{domain.Ok(domain.Book{ID: id, Title: "Title " + id})}
		if fn != nil {
			results = fn(ctx, id, policy)
		}
		for _, r := range results {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Searches returns the recorded SearchBook calls.
func (b *Books) Searches() []SearchCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.searches)
}

// Gets returns the recorded GetBook calls.
func (b *Books) Gets() []GetCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.gets)
}

// Page returns size books with ids b{startIndex+1}..b{startIndex+size}.
func Page(startIndex, size int) []domain.Book {
	books := make([]domain.Book, size)
	for i := range books {
		n := startIndex + i + 1
		books[i] = domain.Book{ID: fmt.Sprintf("b%d", n), Title: fmt.Sprintf("Book %d", n)}
	}
	return books
}

// Favorites is an in-memory favorites repository. Toggles update the set and
// publish it to every FavoritedIDs subscriber.
type Favorites struct {
	// Err, when set, fails every toggle without touching the set.
	Err error

	ids *stream.Subject[domain.IDSet]

	mu    sync.Mutex
	set   domain.IDSet
	calls []string
	gates map[string]chan struct{}
}

// NewFavorites creates a repository holding ids.
func NewFavorites(ids ...string) *Favorites {
	set := domain.NewIDSet(ids...)
	return &Favorites{
		ids:   stream.NewBehaviorSubject(set),
		set:   set,
		gates: make(map[string]chan struct{}),
	}
}

// Block makes toggles of id wait until the returned func is called.
func (f *Favorites) Block(id string) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[id] = gate
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.gates, id)
			f.mu.Unlock()
			close(gate)
		})
	}
}

// ToggleFavorited implements the favorites contract.
func (f *Favorites) ToggleFavorited(ctx context.Context, book domain.Book) domain.Result[domain.ToggleResult] {
	f.mu.Lock()
	f.calls = append(f.calls, book.ID)
	gate := f.gates[book.ID]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.Fail[domain.ToggleResult](errors.Unexpected(ctx.Err()))
		}
	}
	if f.Err != nil {
		return domain.Fail[domain.ToggleResult](errors.From(f.Err))
	}

	f.mu.Lock()
	added := !f.set.Contains(book.ID)
	if added {
		f.set = f.set.With(book.ID)
	} else {
		f.set = f.set.Without(book.ID)
	}
	f.ids.Send(f.set)
	f.mu.Unlock()

	return domain.Ok(domain.ToggleResult{Added: added, Book: book})
}

// FavoritedIDs implements the favorites contract.
func (f *Favorites) FavoritedIDs(ctx context.Context) <-chan domain.IDSet {
	return f.ids.Subscribe(ctx)
}

// Set replaces the set as if it had been changed elsewhere.
func (f *Favorites) Set(ids ...string) {
	set := domain.NewIDSet(ids...)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set = set
	f.ids.Send(set)
}

// Calls returns the ids passed to ToggleFavorited, in call order.
func (f *Favorites) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}
