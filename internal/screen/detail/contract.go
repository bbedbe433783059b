// Package detail is the book detail screen: a seeded initial load, a
// pull-to-refresh and favorite toggling for one book.
package detail

import (
	"context"
	"slices"

	"github.com/listenupapp/searchbook/internal/domain"
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/richtext"
)

// Intent is a user action on the detail screen.
type Intent interface {
	isIntent()
}

type (
	// Initial opens the screen with what the caller already knows of the book.
	// Only the first one is honored.
	Initial struct{ Seed InitialBookDetail }
	// Refresh reloads the book once a detail is shown.
	Refresh struct{}
	// ToggleFavorite flips the favorite membership of the shown book.
	ToggleFavorite struct{}
)

func (Initial) isIntent()        {}
func (Refresh) isIntent()        {}
func (ToggleFavorite) isIntent() {}

// InitialBookDetail is the partial book the screen is opened with.
type InitialBookDetail struct {
	ID        string `json:"id" validate:"required"`
	Title     string `json:"title,omitempty"`
	Subtitle  string `json:"subtitle,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// BookDetail is the book shown by the screen.
type BookDetail struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title,omitempty"`
	Subtitle            string   `json:"subtitle,omitempty"`
	Authors             []string `json:"authors,omitempty"`
	Thumbnail           string   `json:"thumbnail,omitempty"`
	LargeImage          string   `json:"largeImage,omitempty"`
	Description         string   `json:"description,omitempty"`
	DescriptionMarkdown string   `json:"descriptionMarkdown,omitempty"`
	PublishedDate       string   `json:"publishedDate,omitempty"`
	IsFavorited         bool     `json:"isFavorited"`
}

// DetailFromDomain maps a catalog book, rendering its description as Markdown.
func DetailFromDomain(b domain.Book) BookDetail {
	return BookDetail{
		ID:                  b.ID,
		Title:               b.Title,
		Subtitle:            b.Subtitle,
		Authors:             slices.Clone(b.Authors),
		Thumbnail:           b.Thumbnail,
		LargeImage:          b.LargeImage,
		Description:         b.Description,
		DescriptionMarkdown: richtext.Markdown(b.Description),
		PublishedDate:       b.PublishedDate,
	}
}

// DetailFromInitial builds the placeholder detail shown before the first load.
func DetailFromInitial(seed InitialBookDetail) BookDetail {
	return BookDetail{
		ID:        seed.ID,
		Title:     seed.Title,
		Subtitle:  seed.Subtitle,
		Thumbnail: seed.Thumbnail,
	}
}

// Domain maps the detail back to a catalog book.
func (d BookDetail) Domain() domain.Book {
	return domain.Book{
		ID:            d.ID,
		Title:         d.Title,
		Subtitle:      d.Subtitle,
		Authors:       slices.Clone(d.Authors),
		Thumbnail:     d.Thumbnail,
		LargeImage:    d.LargeImage,
		Description:   d.Description,
		PublishedDate: d.PublishedDate,
	}
}

// Equal compares two details by value.
func (d BookDetail) Equal(other BookDetail) bool {
	return d.ID == other.ID &&
		d.Title == other.Title &&
		d.Subtitle == other.Subtitle &&
		slices.Equal(d.Authors, other.Authors) &&
		d.Thumbnail == other.Thumbnail &&
		d.LargeImage == other.LargeImage &&
		d.Description == other.Description &&
		d.DescriptionMarkdown == other.DescriptionMarkdown &&
		d.PublishedDate == other.PublishedDate &&
		d.IsFavorited == other.IsFavorited
}

// ViewState is the state rendered by the detail screen.
type ViewState struct {
	IsLoading    bool             `json:"isLoading"`
	IsRefreshing bool             `json:"isRefreshing"`
	Error        *errors.AppError `json:"error,omitempty"`
	Detail       *BookDetail      `json:"detail,omitempty"`
}

// InitialState is the state before the first intent.
func InitialState() ViewState {
	return ViewState{IsLoading: true}
}

// Equal compares two states by value.
func (s ViewState) Equal(other ViewState) bool {
	if s.IsLoading != other.IsLoading || s.IsRefreshing != other.IsRefreshing || !s.Error.Equal(other.Error) {
		return false
	}
	if s.Detail == nil || other.Detail == nil {
		return s.Detail == other.Detail
	}
	return s.Detail.Equal(*other.Detail)
}

// WithFavorites sets the favorite flag of the detail from ids.
func (s ViewState) WithFavorites(ids domain.IDSet) ViewState {
	if s.Detail == nil {
		return s
	}
	d := *s.Detail
	d.IsFavorited = ids.Contains(d.ID)
	s.Detail = &d
	return s
}

// Event is a one-shot notification from the detail screen.
type Event interface {
	isEvent()
}

type (
	// AddedToFavorited reports a book added by a toggle.
	AddedToFavorited struct{ Detail BookDetail }
	// RemovedFromFavorited reports a book removed by a toggle.
	RemovedFromFavorited struct{ Detail BookDetail }
	// ToggleFavoritedError reports a failed toggle.
	ToggleFavoritedError struct {
		Detail BookDetail
		Err    *errors.AppError
	}
	// GetDetailError reports a failed initial load.
	GetDetailError struct{ Err *errors.AppError }
	// RefreshSuccess reports a completed refresh.
	RefreshSuccess struct{}
	// RefreshError reports a failed refresh.
	RefreshError struct{ Err *errors.AppError }
)

func (AddedToFavorited) isEvent()     {}
func (RemovedFromFavorited) isEvent() {}
func (ToggleFavoritedError) isEvent() {}
func (GetDetailError) isEvent()       {}
func (RefreshSuccess) isEvent()       {}
func (RefreshError) isEvent()         {}

// Change is a step of a load or a refresh.
type Change interface {
	Tag() string
	reduce(ViewState) ViewState
}

type initialLoaded struct{ seed InitialBookDetail }

type loading struct{}

type detailLoaded struct{ detail BookDetail }

type detailError struct{ err *errors.AppError }

type refreshing struct{}

type refreshSuccess struct{ detail BookDetail }

type refreshError struct{ err *errors.AppError }

func (initialLoaded) Tag() string  { return "initialLoaded" }
func (loading) Tag() string        { return "loading" }
func (detailLoaded) Tag() string   { return "detailLoaded" }
func (detailError) Tag() string    { return "detailError" }
func (refreshing) Tag() string     { return "refreshing" }
func (refreshSuccess) Tag() string { return "refreshSuccess" }
func (refreshError) Tag() string   { return "refreshError" }

// Interactor runs the I/O of the detail screen.
type Interactor interface {
	// GetDetail loads the book from the network.
	GetDetail(ctx context.Context, id string) <-chan Change
	// Refresh reloads the book, serving a fresh cache entry when there is one.
	Refresh(ctx context.Context, id string) <-chan Change
	// ToggleFavorited flips the membership of the book and reports the outcome.
	ToggleFavorited(ctx context.Context, detail BookDetail) Event
	// FavoritedIDs streams the favorite ids.
	FavoritedIDs(ctx context.Context) <-chan domain.IDSet
}
