// Package favorites is the favorites screen: the persisted favorite ids
// resolved to books, with refresh and removal.
package favorites

import (
	"context"
	"slices"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/richtext"
)

// SummaryLength is the rune limit of a row's description summary.
const SummaryLength = 160

// Intent is a user action on the favorites screen.
type Intent interface {
	isIntent()
}

type (
	// Refresh reloads every favorite from the network.
	Refresh struct{}
	// RemoveFavorite removes a row from the favorites.
	RemoveFavorite struct{ Item Item }
)

func (Refresh) isIntent()        {}
func (RemoveFavorite) isIntent() {}

// Book is a resolved favorite.
type Book struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Subtitle  string `json:"subtitle,omitempty"`
	Authors   string `json:"authors,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

// BookFromDomain maps a catalog book to a row, summarizing its description.
func BookFromDomain(b domain.Book) Book {
	return Book{
		ID:        b.ID,
		Title:     b.Title,
		Subtitle:  b.Subtitle,
		Authors:   b.AuthorsLine(),
		Thumbnail: b.Thumbnail,
		Summary:   richtext.Summary(b.Description, SummaryLength),
	}
}

// Item is one row: a favorite id, its book once resolved and the state of
// its own load.
type Item struct {
	ID        string           `json:"id"`
	IsLoading bool             `json:"isLoading"`
	Error     *errors.AppError `json:"error,omitempty"`
	Book      *Book            `json:"book,omitempty"`
}

// Equal compares two rows by value.
func (i Item) Equal(other Item) bool {
	if i.ID != other.ID || i.IsLoading != other.IsLoading || !i.Error.Equal(other.Error) {
		return false
	}
	if i.Book == nil || other.Book == nil {
		return i.Book == other.Book
	}
	return *i.Book == *other.Book
}

// ViewState is the state rendered by the favorites screen.
type ViewState struct {
	Items        []Item `json:"items"`
	IsRefreshing bool   `json:"isRefreshing"`
}

// InitialState is the state before the ids are known.
func InitialState() ViewState {
	return ViewState{Items: []Item{}}
}

// Equal compares two states by value.
func (s ViewState) Equal(other ViewState) bool {
	return s.IsRefreshing == other.IsRefreshing && slices.EqualFunc(s.Items, other.Items, Item.Equal)
}

// Event is a one-shot notification from the favorites screen.
type Event interface {
	isEvent()
}

type (
	// Removed reports a favorite removed by the user.
	Removed struct{ Item Item }
	// RemoveError reports a failed removal.
	RemoveError struct {
		Item Item
		Err  *errors.AppError
	}
	// RefreshSuccess reports a completed refresh.
	RefreshSuccess struct{}
	// RefreshError reports a failed refresh; the list was kept.
	RefreshError struct{ Err *errors.AppError }
)

func (Removed) isEvent()        {}
func (RemoveError) isEvent()    {}
func (RefreshSuccess) isEvent() {}
func (RefreshError) isEvent()   {}

// Change is a step of a load or a refresh.
type Change interface {
	Tag() string
	reduce(ViewState) ViewState
}

type idsChanged struct{ ids []string }

type bookLoaded struct {
	id   string
	book Book
}

type bookError struct {
	id  string
	err *errors.AppError
}

type refreshing struct{}

type refreshSuccess struct{ books []Book }

type refreshError struct{ err *errors.AppError }

func (idsChanged) Tag() string     { return "idsChanged" }
func (bookLoaded) Tag() string     { return "bookLoaded" }
func (bookError) Tag() string      { return "bookError" }
func (refreshing) Tag() string     { return "refreshing" }
func (refreshSuccess) Tag() string { return "refreshSuccess" }
func (refreshError) Tag() string   { return "refreshError" }

// Interactor runs the I/O of the favorites screen.
type Interactor interface {
	// GetBooks rebuilds the list for ids and resolves every row concurrently.
	GetBooks(ctx context.Context, ids []string) <-chan Change
	// Refresh reloads every id from the network and succeeds only if all do.
	Refresh(ctx context.Context, ids []string) <-chan Change
	// RemoveFavorite removes the row's id from the favorites.
	RemoveFavorite(ctx context.Context, item Item) Event
	// FavoritedIDs streams the favorite ids.
	FavoritedIDs(ctx context.Context) <-chan domain.IDSet
}
