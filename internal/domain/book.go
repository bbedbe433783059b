// Package domain contains the core entities shared by the repositories and the screens
// of the book search application.
package domain

import (
	"slices"
	"strings"
)

// Book is a volume from the remote catalog.
// Optional fields use the empty value for "absent"; the API decode boundary decides absence.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title,omitempty"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Thumbnail     string   `json:"thumbnail,omitempty"`
	LargeImage    string   `json:"large_image,omitempty"`
	Description   string   `json:"description,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
}

// Equal reports whether two books carry the same values.
func (b Book) Equal(other Book) bool {
	return b.ID == other.ID &&
		b.Title == other.Title &&
		b.Subtitle == other.Subtitle &&
		slices.Equal(b.Authors, other.Authors) &&
		b.Thumbnail == other.Thumbnail &&
		b.LargeImage == other.LargeImage &&
		b.Description == other.Description &&
		b.PublishedDate == other.PublishedDate
}

// AuthorsLine joins the authors for display, or returns "" when there are none.
func (b Book) AuthorsLine() string {
	return strings.Join(b.Authors, ", ")
}

// CachePolicy governs whether a cached detail entry may satisfy a request.
type CachePolicy int

const (
	// LocalFirst serves a fresh cache entry without touching the network.
	LocalFirst CachePolicy = iota
	// NetworkOnly always fetches, even when the cache is fresh.
	NetworkOnly
)

// String implements fmt.Stringer.
func (p CachePolicy) String() string {
	switch p {
	case NetworkOnly:
		return "network_only"
	default:
		return "local_first"
	}
}

// ToggleResult is the outcome of flipping a book's favorite membership.
type ToggleResult struct {
	Added bool
	Book  Book
}
