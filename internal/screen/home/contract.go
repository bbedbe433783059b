// Package home is the search screen: a debounced search over the catalog
// with pagination and favorite toggling.
package home

import (
	"context"
	"slices"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
)

// Intent is a user action on the home screen.
type Intent interface {
	isIntent()
}

type (
	// Search asks for the results of term.
	Search struct{ Term string }
	// LoadNextPage asks for the page after the loaded books.
	LoadNextPage struct{}
	// RetryLoadFirstPage retries a failed first page.
	RetryLoadFirstPage struct{}
	// RetryLoadNextPage retries a failed next page.
	RetryLoadNextPage struct{}
	// ToggleFavorite flips the favorite membership of a book.
	ToggleFavorite struct{ Book Book }
)

func (Search) isIntent()             {}
func (LoadNextPage) isIntent()       {}
func (RetryLoadFirstPage) isIntent() {}
func (RetryLoadNextPage) isIntent()  {}
func (ToggleFavorite) isIntent()     {}

// Book is a search result row.
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Subtitle    string `json:"subtitle,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	IsFavorited bool   `json:"isFavorited"`
}

// BookFromDomain maps a catalog book to a row.
func BookFromDomain(b domain.Book) Book {
	return Book{
		ID:        b.ID,
		Title:     b.Title,
		Subtitle:  b.Subtitle,
		Thumbnail: b.Thumbnail,
	}
}

// Domain maps the row back to the fields a catalog book shares with it.
func (b Book) Domain() domain.Book {
	return domain.Book{
		ID:        b.ID,
		Title:     b.Title,
		Subtitle:  b.Subtitle,
		Thumbnail: b.Thumbnail,
	}
}

// WithFavorited returns a copy of b with the flag set.
func (b Book) WithFavorited(favorited bool) Book {
	b.IsFavorited = favorited
	return b
}

// ItemKind discriminates the rows of the result list.
type ItemKind string

// Row kinds.
const (
	ItemLoading ItemKind = "loading"
	ItemError   ItemKind = "error"
	ItemBook    ItemKind = "book"
)

// Item is one row of the result list: a loading marker, an error marker or a book.
type Item struct {
	Kind        ItemKind         `json:"kind"`
	Book        Book             `json:"book,omitzero"`
	Error       *errors.AppError `json:"error,omitempty"`
	IsFirstPage bool             `json:"isFirstPage,omitempty"`
}

// LoadingItem is the loading marker.
func LoadingItem() Item { return Item{Kind: ItemLoading} }

// ErrorItem is the error marker of a failed first or next page.
func ErrorItem(err *errors.AppError, isFirstPage bool) Item {
	return Item{Kind: ItemError, Error: err, IsFirstPage: isFirstPage}
}

// BookItem wraps a book row.
func BookItem(b Book) Item { return Item{Kind: ItemBook, Book: b} }

// Equal compares two items by value.
func (i Item) Equal(other Item) bool {
	return i.Kind == other.Kind &&
		i.Book == other.Book &&
		i.Error.Equal(other.Error) &&
		i.IsFirstPage == other.IsFirstPage
}

// ViewState is the state rendered by the home screen.
type ViewState struct {
	SearchTerm string `json:"searchTerm"`
	Items      []Item `json:"items"`
	Books      []Book `json:"books"`
	FavCount   int    `json:"favCount"`
}

// InitialState is the state before any search.
func InitialState() ViewState {
	return ViewState{Items: []Item{}, Books: []Book{}}
}

// Equal compares two states by value.
func (s ViewState) Equal(other ViewState) bool {
	return s.SearchTerm == other.SearchTerm &&
		s.FavCount == other.FavCount &&
		slices.EqualFunc(s.Items, other.Items, Item.Equal) &&
		slices.Equal(s.Books, other.Books)
}

// ShouldRetryFirstPage reports whether the list is a lone first-page error.
func (s ViewState) ShouldRetryFirstPage() bool {
	return len(s.Books) == 0 &&
		len(s.Items) == 1 &&
		s.Items[0].Kind == ItemError &&
		s.Items[0].IsFirstPage
}

// ShouldLoadNextPage reports whether the list holds only loaded books.
func (s ViewState) ShouldLoadNextPage() bool {
	if len(s.Items) == 0 {
		return false
	}
	for _, item := range s.Items {
		if item.Kind != ItemBook {
			return false
		}
	}
	return true
}

// ShouldRetryNextPage reports whether the last row is a next-page error.
func (s ViewState) ShouldRetryNextPage() bool {
	if len(s.Items) == 0 {
		return false
	}
	last := s.Items[len(s.Items)-1]
	return last.Kind == ItemError && !last.IsFirstPage
}

// WithFavorites overlays ids onto every book: IsFavorited mirrors membership
// and FavCount is the number of favorites.
func (s ViewState) WithFavorites(ids domain.IDSet) ViewState {
	items := make([]Item, len(s.Items))
	for i, item := range s.Items {
		if item.Kind == ItemBook {
			item.Book = item.Book.WithFavorited(ids.Contains(item.Book.ID))
		}
		items[i] = item
	}
	books := make([]Book, len(s.Books))
	for i, b := range s.Books {
		books[i] = b.WithFavorited(ids.Contains(b.ID))
	}
	s.Items, s.Books, s.FavCount = items, books, ids.Len()
	return s
}

// Event is a one-shot notification from the home screen.
type Event interface {
	isEvent()
}

type (
	// AddedToFavorited reports a book added by a toggle.
	AddedToFavorited struct{ Book Book }
	// RemovedFromFavorited reports a book removed by a toggle.
	RemovedFromFavorited struct{ Book Book }
	// ToggleFavoritedError reports a failed toggle.
	ToggleFavoritedError struct {
		Book Book
		Err  *errors.AppError
	}
	// LoadError reports a failed page load.
	LoadError struct{ Err *errors.AppError }
)

func (AddedToFavorited) isEvent()     {}
func (RemovedFromFavorited) isEvent() {}
func (ToggleFavoritedError) isEvent() {}
func (LoadError) isEvent()            {}

// Change is a step of a page load.
type Change interface {
	Tag() string
	reduce(ViewState) ViewState
}

type loadingFirstPage struct{}

type firstPageLoaded struct {
	books      []Book
	searchTerm string
}

type loadFirstPageError struct {
	err        *errors.AppError
	searchTerm string
}

type loadingNextPage struct{}

type nextPageLoaded struct {
	books      []Book
	searchTerm string
}

type loadNextPageError struct {
	err        *errors.AppError
	searchTerm string
}

func (loadingFirstPage) Tag() string   { return "loadingFirstPage" }
func (firstPageLoaded) Tag() string    { return "firstPageLoaded" }
func (loadFirstPageError) Tag() string { return "loadFirstPageError" }
func (loadingNextPage) Tag() string    { return "loadingNextPage" }
func (nextPageLoaded) Tag() string     { return "nextPageLoaded" }
func (loadNextPageError) Tag() string  { return "loadNextPageError" }

// Interactor runs the I/O of the home screen.
type Interactor interface {
	// SearchBook loads the first page of query as a stream of changes.
	SearchBook(ctx context.Context, query string) <-chan Change
	// LoadNextPage loads the page of query starting at startIndex.
	LoadNextPage(ctx context.Context, query string, startIndex int) <-chan Change
	// ToggleFavorited flips the membership of book and reports the outcome.
	ToggleFavorited(ctx context.Context, book Book) Event
	// FavoritedIDs streams the favorite ids.
	FavoritedIDs(ctx context.Context) <-chan domain.IDSet
}

