// file: internal/providers/openlibrary.go
// version: 1.2.0
// guid: b5c6d7e8-f9a0-4b1c-8d2e-3f4a5b6c7d8e

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

// maxSubjects bounds how many Open Library subjects are carried over as
// categories; some records list hundreds.
const maxSubjects = 8

// OpenLibraryClient handles metadata fetching from the Open Library API.
type OpenLibraryClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewOpenLibraryClient creates a new Open Library API client.
func NewOpenLibraryClient() *OpenLibraryClient {
	baseURL := os.Getenv("OPENLIBRARY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://openlibrary.org"
	}
	return NewOpenLibraryClientWithBaseURL(baseURL)
}

// NewOpenLibraryClientWithBaseURL creates a client with a custom base URL.
func NewOpenLibraryClientWithBaseURL(baseURL string) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Name returns the display name for this provider.
func (c *OpenLibraryClient) Name() string {
	return "Open Library"
}

type openLibrarySearchResponse struct {
	NumFound int                  `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key                  string   `json:"key"`
	Title                string   `json:"title"`
	AuthorName           []string `json:"author_name"`
	FirstPublishYear     int      `json:"first_publish_year"`
	ISBN                 []string `json:"isbn"`
	Publisher            []string `json:"publisher"`
	Language             []string `json:"language"`
	Subject              []string `json:"subject"`
	NumberOfPagesMedian  int      `json:"number_of_pages_median"`
	CoverI               int      `json:"cover_i"`
}

// Search searches Open Library by free-text query.
func (c *OpenLibraryClient) Search(req validator.SearchRequest) ([]models.Book, error) {
	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("limit", strconv.Itoa(req.MaxResults))
	if req.OrderBy == "newest" {
		params.Set("sort", "new")
	}
	if req.LangRestrict != "" {
		params.Set("lang", req.LangRestrict)
	}
	return c.search(params)
}

// SearchByAuthor searches Open Library by author name.
func (c *OpenLibraryClient) SearchByAuthor(name string, maxResults int) ([]models.Book, error) {
	params := url.Values{}
	params.Set("author", name)
	params.Set("limit", strconv.Itoa(maxResults))
	return c.search(params)
}

func (c *OpenLibraryClient) search(params url.Values) ([]models.Book, error) {
	searchURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(searchURL)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to search: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("API returned status %d", resp.StatusCode)}
	}

	var searchResp openLibrarySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to decode search response: %w", err)}
	}

	books := make([]models.Book, 0, len(searchResp.Docs))
	for i := range searchResp.Docs {
		books = append(books, docToBook(&searchResp.Docs[i]))
	}
	return books, nil
}

func docToBook(doc *openLibrarySearchDoc) models.Book {
	book := models.Book{
		Title:   doc.Title,
		Authors: doc.AuthorName,
	}
	if doc.FirstPublishYear > 0 {
		book.PublishedDate = strconv.Itoa(doc.FirstPublishYear)
	}
	if len(doc.Publisher) > 0 {
		book.Publisher = doc.Publisher[0]
	}
	if len(doc.Language) > 0 {
		book.Language = doc.Language[0]
	}
	for _, isbn := range doc.ISBN {
		idType := "ISBN_10"
		if len(isbn) == 13 {
			idType = "ISBN_13"
		}
		book.Identifiers = append(book.Identifiers, models.Identifier{Type: idType, Value: isbn})
		if len(book.Identifiers) >= 2 {
			break
		}
	}
	if doc.NumberOfPagesMedian > 0 {
		pages := doc.NumberOfPagesMedian
		book.PageCount = &pages
	}
	if len(doc.Subject) > 0 {
		n := len(doc.Subject)
		if n > maxSubjects {
			n = maxSubjects
		}
		book.Categories = doc.Subject[:n]
	}
	if doc.CoverI > 0 {
		book.ImageLinks = &models.ImageLinks{
			Thumbnail:      fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI),
			SmallThumbnail: fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-S.jpg", doc.CoverI),
		}
	}
	if doc.Key != "" {
		book.InfoLink = "https://openlibrary.org" + doc.Key
		book.PreviewLink = "https://openlibrary.org" + doc.Key
	}
	return book
}

// LookupISBN fetches edition details by ISBN. A 404 from the API is an
// authoritative not-found, not a provider failure.
func (c *OpenLibraryClient) LookupISBN(isbn string) (*models.Book, error) {
	apiURL := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn)

	resp, err := c.httpClient.Get(apiURL)
	if err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to fetch by ISBN: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("API returned status %d", resp.StatusCode)}
	}

	var edition struct {
		Title         string   `json:"title"`
		PublishDate   string   `json:"publish_date"`
		Publishers    []string `json:"publishers"`
		NumberOfPages int      `json:"number_of_pages"`
		Covers        []int    `json:"covers"`
		ISBN10        []string `json:"isbn_10"`
		ISBN13        []string `json:"isbn_13"`
		Key           string   `json:"key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&edition); err != nil {
		return nil, &ProviderError{Provider: c.Name(), Err: fmt.Errorf("failed to decode edition: %w", err)}
	}

	book := models.Book{
		Title:         edition.Title,
		PublishedDate: edition.PublishDate,
	}
	if len(edition.Publishers) > 0 {
		book.Publisher = edition.Publishers[0]
	}
	if edition.NumberOfPages > 0 {
		pages := edition.NumberOfPages
		book.PageCount = &pages
	}
	for _, v := range edition.ISBN10 {
		book.Identifiers = append(book.Identifiers, models.Identifier{Type: "ISBN_10", Value: v})
	}
	for _, v := range edition.ISBN13 {
		book.Identifiers = append(book.Identifiers, models.Identifier{Type: "ISBN_13", Value: v})
	}
	if len(book.Identifiers) == 0 {
		book.Identifiers = []models.Identifier{{Type: identifierType(isbn), Value: isbn}}
	}
	if len(edition.Covers) > 0 {
		book.ImageLinks = &models.ImageLinks{
			Thumbnail:      fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", edition.Covers[0]),
			SmallThumbnail: fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-S.jpg", edition.Covers[0]),
		}
	}
	if edition.Key != "" {
		book.InfoLink = "https://openlibrary.org" + edition.Key
		book.PreviewLink = "https://openlibrary.org" + edition.Key
	}
	return &book, nil
}

func identifierType(isbn string) string {
	if len(isbn) == 13 {
		return "ISBN_13"
	}
	return "ISBN_10"
}
