// file: internal/providers/googlebooks.go
// version: 1.2.0
// guid: a4b5c6d7-e8f9-4a0b-9c1d-2e3f4a5b6c7d

package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jdfalk/bookmeta/internal/models"
	"github.com/jdfalk/bookmeta/internal/validator"
)

// GoogleBooksClient fetches metadata from the Google Books Volume API.
// No API key is required for basic searches (free tier, ~1000 req/day).
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewGoogleBooksClient creates a new Google Books API client.
func NewGoogleBooksClient() *GoogleBooksClient {
	baseURL := os.Getenv("GOOGLE_BOOKS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://www.googleapis.com/books/v1"
	}
	return NewGoogleBooksClientWithBaseURL(baseURL)
}

// NewGoogleBooksClientWithBaseURL creates a client with a custom base URL (for testing).
func NewGoogleBooksClientWithBaseURL(baseURL string) *GoogleBooksClient {
	return &GoogleBooksClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the display name for this provider.
func (c *GoogleBooksClient) Name() string {
	return "Google Books"
}

type googleBooksResponse struct {
	TotalItems int              `json:"totalItems"`
	Items      []googleBooksVol `json:"items"`
}

type googleBooksVol struct {
	VolumeInfo googleBooksVolumeInfo `json:"volumeInfo"`
}

type googleBooksVolumeInfo struct {
	Title               string                  `json:"title"`
	Authors             []string                `json:"authors"`
	Publisher           string                  `json:"publisher"`
	PublishedDate       string                  `json:"publishedDate"`
	Description         string                  `json:"description"`
	IndustryIdentifiers []googleBooksIndustryID `json:"industryIdentifiers"`
	PageCount           int                     `json:"pageCount"`
	Categories          []string                `json:"categories"`
	ImageLinks          *googleBooksImageLinks  `json:"imageLinks"`
	Language            string                  `json:"language"`
	PreviewLink         string                  `json:"previewLink"`
	InfoLink            string                  `json:"infoLink"`
}

type googleBooksIndustryID struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type googleBooksImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

// Search searches Google Books with the request's bounds and sort mode.
func (c *GoogleBooksClient) Search(req validator.SearchRequest) ([]models.Book, error) {
	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("maxResults", strconv.Itoa(req.MaxResults))
	params.Set("orderBy", req.OrderBy)
	if req.LangRestrict != "" {
		params.Set("langRestrict", req.LangRestrict)
	}
	return c.volumes(params)
}

// LookupISBN fetches a single volume by identifier.
func (c *GoogleBooksClient) LookupISBN(isbn string) (*models.Book, error) {
	params := url.Values{}
	params.Set("q", "isbn:"+isbn)
	params.Set("maxResults", "1")
	books, err := c.volumes(params)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, ErrNotFound
	}
	return &books[0], nil
}

// SearchByAuthor searches Google Books with an inauthor query.
func (c *GoogleBooksClient) SearchByAuthor(name string, maxResults int) ([]models.Book, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("inauthor:%q", name))
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("orderBy", "relevance")
	return c.volumes(params)
}

func (c *GoogleBooksClient) volumes(params url.Values) ([]models.Book, error) {
	searchURL := fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(searchURL)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to query volumes: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("API returned status %d", resp.StatusCode)}
	}

	var gbResp googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&gbResp); err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	books := make([]models.Book, 0, len(gbResp.Items))
	for _, item := range gbResp.Items {
		books = append(books, volumeToBook(item.VolumeInfo))
	}
	return books, nil
}

func volumeToBook(vi googleBooksVolumeInfo) models.Book {
	book := models.Book{
		Title:         vi.Title,
		Authors:       vi.Authors,
		PublishedDate: vi.PublishedDate,
		Publisher:     vi.Publisher,
		Description:   vi.Description,
		Categories:    vi.Categories,
		Language:      vi.Language,
		PreviewLink:   vi.PreviewLink,
		InfoLink:      vi.InfoLink,
	}
	if vi.PageCount > 0 {
		pages := vi.PageCount
		book.PageCount = &pages
	}
	for _, id := range vi.IndustryIdentifiers {
		book.Identifiers = append(book.Identifiers, models.Identifier{Type: id.Type, Value: id.Identifier})
	}
	if vi.ImageLinks != nil {
		book.ImageLinks = &models.ImageLinks{
			Thumbnail:      vi.ImageLinks.Thumbnail,
			SmallThumbnail: vi.ImageLinks.SmallThumbnail,
		}
	}
	return book
}
