package bookapi

import "github.com/listenupapp/searchbook/internal/domain"

// Volume is one catalog entry as served by the API. Every field of
// VolumeInfo is optional; nil means the API omitted it.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo holds the descriptive fields of a volume.
type VolumeInfo struct {
	Title         *string     `json:"title"`
	Subtitle      *string     `json:"subtitle"`
	Authors       []string    `json:"authors"`
	Description   *string     `json:"description"`
	PublishedDate *string     `json:"publishedDate"`
	ImageLinks    *ImageLinks `json:"imageLinks"`
}

// ImageLinks holds cover URLs.
type ImageLinks struct {
	Thumbnail      *string `json:"thumbnail"`
	SmallThumbnail *string `json:"smallThumbnail"`
}

type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

// Book maps the volume to the domain model. Thumbnail comes from
// imageLinks.thumbnail and LargeImage from imageLinks.smallThumbnail.
func (v Volume) Book() domain.Book {
	info := v.VolumeInfo
	b := domain.Book{
		ID:            v.ID,
		Title:         deref(info.Title),
		Subtitle:      deref(info.Subtitle),
		Description:   deref(info.Description),
		PublishedDate: deref(info.PublishedDate),
	}
	if len(info.Authors) > 0 {
		b.Authors = append([]string(nil), info.Authors...)
	}
	if info.ImageLinks != nil {
		b.Thumbnail = deref(info.ImageLinks.Thumbnail)
		b.LargeImage = deref(info.ImageLinks.SmallThumbnail)
	}
	return b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
