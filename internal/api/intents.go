package api

import (
	"github.com/listenupapp/searchbook/internal/errors"
	"github.com/listenupapp/searchbook/internal/screen/detail"
	"github.com/listenupapp/searchbook/internal/screen/favorites"
	"github.com/listenupapp/searchbook/internal/screen/home"
	"github.com/listenupapp/searchbook/internal/validation"
)

// Intent types, shared by every screen that understands them.
const (
	IntentSearch             = "search"
	IntentLoadNextPage       = "load_next_page"
	IntentRetryLoadFirstPage = "retry_load_first_page"
	IntentRetryLoadNextPage  = "retry_load_next_page"
	IntentToggleFavorite     = "toggle_favorite"
	IntentInitial            = "initial"
	IntentRefresh            = "refresh"
	IntentRemoveFavorite     = "remove_favorite"
)

// IntentRequest is the wire form of a user action on a screen.
type IntentRequest struct {
	Type string      `json:"type" validate:"required,oneof=search load_next_page retry_load_first_page retry_load_next_page toggle_favorite initial refresh remove_favorite" doc:"Intent type"`
	Term string      `json:"term,omitempty" validate:"excluded_unless=Type search,max=256" doc:"Search term, for search"`
	Book *IntentBook `json:"book,omitempty" doc:"Book the intent is about, for toggle_favorite, initial and remove_favorite"`
}

// IntentBook identifies a book in an intent.
type IntentBook struct {
	ID        string `json:"id" validate:"required,max=128" doc:"Book ID"`
	Title     string `json:"title,omitempty" validate:"max=1024" doc:"Book title"`
	Subtitle  string `json:"subtitle,omitempty" validate:"max=1024" doc:"Book subtitle"`
	Thumbnail string `json:"thumbnail,omitempty" validate:"omitempty,url" doc:"Thumbnail URL"`
}

func invalid(field, message string) error {
	return &validation.Error{Fields: map[string]string{field: message}}
}

func unsupported(screen string) error {
	return invalid("type", "is not supported by the "+screen+" screen")
}

func requireBook(req IntentRequest) (IntentBook, error) {
	if req.Book == nil {
		return IntentBook{}, invalid("book", "is required")
	}
	return *req.Book, nil
}

func homeIntent(req IntentRequest, state home.ViewState) (home.Intent, error) {
	switch req.Type {
	case IntentSearch:
		return home.Search{Term: req.Term}, nil
	case IntentLoadNextPage:
		return home.LoadNextPage{}, nil
	case IntentRetryLoadFirstPage:
		return home.RetryLoadFirstPage{}, nil
	case IntentRetryLoadNextPage:
		return home.RetryLoadNextPage{}, nil
	case IntentToggleFavorite:
		b, err := requireBook(req)
		if err != nil {
			return nil, err
		}
		// A listed row carries the fields the caller may have left out.
		for _, listed := range state.Books {
			if listed.ID == b.ID {
				return home.ToggleFavorite{Book: listed}, nil
			}
		}
		return home.ToggleFavorite{Book: home.Book{
			ID:        b.ID,
			Title:     b.Title,
			Subtitle:  b.Subtitle,
			Thumbnail: b.Thumbnail,
		}}, nil
	}
	return nil, unsupported(ScreenHome)
}

func detailIntent(req IntentRequest, _ detail.ViewState) (detail.Intent, error) {
	switch req.Type {
	case IntentInitial:
		b, err := requireBook(req)
		if err != nil {
			return nil, err
		}
		return detail.Initial{Seed: detail.InitialBookDetail{
			ID:        b.ID,
			Title:     b.Title,
			Subtitle:  b.Subtitle,
			Thumbnail: b.Thumbnail,
		}}, nil
	case IntentRefresh:
		return detail.Refresh{}, nil
	case IntentToggleFavorite:
		return detail.ToggleFavorite{}, nil
	}
	return nil, unsupported(ScreenDetail)
}

func favoritesIntent(req IntentRequest, state favorites.ViewState) (favorites.Intent, error) {
	switch req.Type {
	case IntentRefresh:
		return favorites.Refresh{}, nil
	case IntentRemoveFavorite:
		b, err := requireBook(req)
		if err != nil {
			return nil, err
		}
		for _, item := range state.Items {
			if item.ID == b.ID {
				return favorites.RemoveFavorite{Item: item}, nil
			}
		}
		return favorites.RemoveFavorite{Item: favorites.Item{ID: b.ID}}, nil
	}
	return nil, unsupported(ScreenFavorites)
}

// EventPayload is the data of a screen event.
type EventPayload struct {
	Book   any                `json:"book,omitempty"`
	Item   *favorites.Item    `json:"item,omitempty"`
	Detail *detail.BookDetail `json:"detail,omitempty"`
	Error  *errors.AppError   `json:"error,omitempty"`
}

func homeEvent(e home.Event) (string, any) {
	switch e := e.(type) {
	case home.AddedToFavorited:
		return "added_to_favorited", EventPayload{Book: e.Book}
	case home.RemovedFromFavorited:
		return "removed_from_favorited", EventPayload{Book: e.Book}
	case home.ToggleFavoritedError:
		return "toggle_favorited_error", EventPayload{Book: e.Book, Error: e.Err}
	case home.LoadError:
		return "load_error", EventPayload{Error: e.Err}
	}
	return "unknown", nil
}

func detailEvent(e detail.Event) (string, any) {
	switch e := e.(type) {
	case detail.AddedToFavorited:
		return "added_to_favorited", EventPayload{Detail: &e.Detail}
	case detail.RemovedFromFavorited:
		return "removed_from_favorited", EventPayload{Detail: &e.Detail}
	case detail.ToggleFavoritedError:
		return "toggle_favorited_error", EventPayload{Detail: &e.Detail, Error: e.Err}
	case detail.GetDetailError:
		return "get_detail_error", EventPayload{Error: e.Err}
	case detail.RefreshSuccess:
		return "refresh_success", nil
	case detail.RefreshError:
		return "refresh_error", EventPayload{Error: e.Err}
	}
	return "unknown", nil
}

func favoritesEvent(e favorites.Event) (string, any) {
	switch e := e.(type) {
	case favorites.Removed:
		return "removed", EventPayload{Item: &e.Item}
	case favorites.RemoveError:
		return "remove_error", EventPayload{Item: &e.Item, Error: e.Err}
	case favorites.RefreshSuccess:
		return "refresh_success", nil
	case favorites.RefreshError:
		return "refresh_error", EventPayload{Error: e.Err}
	}
	return "unknown", nil
}
