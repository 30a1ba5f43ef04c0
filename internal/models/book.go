// file: internal/models/book.go
// version: 1.0.0
// guid: 3f8a1c2d-9b4e-4d6a-8c1f-2e5b7a9d0c3e

package models

// Identifier is a typed industry identifier (ISBN_10, ISBN_13, ...).
type Identifier struct {
	Type  string `json:"type"`
	Value string `json:"identifier"`
}

// ImageLinks holds cover image URLs when the provider supplies them.
type ImageLinks struct {
	Thumbnail      string `json:"thumbnail,omitempty"`
	SmallThumbnail string `json:"smallThumbnail,omitempty"`
}

// Book is the normalized record every provider adapter produces.
// Instances are created once per provider response and never mutated
// afterward; ranking attaches scores alongside, not inside.
type Book struct {
	Title         string       `json:"title"`
	Authors       []string     `json:"authors"`
	PublishedDate string       `json:"publishedDate,omitempty"`
	Publisher     string       `json:"publisher,omitempty"`
	Description   string       `json:"description,omitempty"`
	Identifiers   []Identifier `json:"industryIdentifiers,omitempty"`
	PageCount     *int         `json:"pageCount,omitempty"`
	Categories    []string     `json:"categories,omitempty"`
	ImageLinks    *ImageLinks  `json:"imageLinks,omitempty"`
	Language      string       `json:"language,omitempty"`
	PreviewLink   string       `json:"previewLink,omitempty"`
	InfoLink      string       `json:"infoLink,omitempty"`
}

// ISBN13 returns the ISBN-13 identifier if present, falling back to ISBN-10.
func (b *Book) ISBN13() string {
	isbn10 := ""
	for _, id := range b.Identifiers {
		switch id.Type {
		case "ISBN_13":
			return id.Value
		case "ISBN_10":
			isbn10 = id.Value
		}
	}
	return isbn10
}
