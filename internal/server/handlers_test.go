// file: internal/server/handlers_test.go
// version: 1.0.0
// guid: 0e1f2a3b-c4d5-4e6f-9a7b-8c9d0e1f2a3b

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/bookmeta/internal/cache"
	"github.com/jdfalk/bookmeta/internal/models"
	"github.com/jdfalk/bookmeta/internal/providers"
	"github.com/jdfalk/bookmeta/internal/ranking"
	"github.com/jdfalk/bookmeta/internal/ratelimit"
	"github.com/jdfalk/bookmeta/internal/validator"
	"github.com/jdfalk/bookmeta/internal/warmer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeProvider is a canned-response provider for handler tests.
type fakeProvider struct {
	name     string
	books    []models.Book
	book     *models.Book
	err      error
	notFound bool
	calls    int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(req validator.SearchRequest) ([]models.Book, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func (f *fakeProvider) LookupISBN(isbn string) (*models.Book, error) {
	f.calls++
	if f.notFound {
		return nil, providers.ErrNotFound
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.book, nil
}

func (f *fakeProvider) SearchByAuthor(name string, maxResults int) ([]models.Book, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func pages(n int) *int { return &n }

func testBooks() []models.Book {
	return []models.Book{
		{Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}, Publisher: "HarperCollins", PageCount: pages(310)},
		{Title: "The Hobbit Study Guide", Authors: []string{"SparkNotes"}, PageCount: pages(80)},
	}
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Store == nil {
		opts.Store = cache.NewTiered(cache.NewMemory[[]byte](time.Hour, 100), nil)
	}
	if opts.Ranker == nil {
		opts.Ranker = ranking.New(ranking.DefaultConfig())
	}
	return NewServer(opts)
}

func doGet(s *Server, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("User-Agent", "bookmeta-test-agent/1.0")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleSearchValidationErrors(t *testing.T) {
	srv := newTestServer(t, Options{Chain: providers.NewChain(&fakeProvider{name: "fake"})})

	w := doGet(srv, "/search?maxResults=999&orderBy=alphabetical")

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	// Missing query, out-of-range maxResults, and bad orderBy all reported.
	assert.Len(t, resp.Details, 3)
}

func TestHandleSearchMissThenHit(t *testing.T) {
	fake := &fakeProvider{name: "fake", books: testBooks()}
	srv := newTestServer(t, Options{Chain: providers.NewChain(fake)})

	w := doGet(srv, "/search?q=the+hobbit")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, "fake", w.Header().Get("X-Provider"))

	var resp struct {
		Items      []models.Book `json:"items"`
		TotalItems int           `json:"totalItems"`
		Provider   string        `json:"provider"`
		Cached     bool          `json:"cached"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Cached)
	assert.Equal(t, "fake", resp.Provider)
	require.Len(t, resp.Items, 2)
	// The study guide is penalized and must sort below the real edition.
	assert.Equal(t, "The Hobbit", resp.Items[0].Title)

	// The write-through is asynchronous; poll until it lands.
	assert.Eventually(t, func() bool {
		w := doGet(srv, "/search?q=the+hobbit")
		return w.Header().Get("X-Cache") == "HIT-HOT"
	}, 2*time.Second, 10*time.Millisecond)

	w = doGet(srv, "/search?q=the+hobbit")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Cached)
	assert.Equal(t, "fake", resp.Provider)
}

func TestHandleSearchQualityFilterOnCachedResults(t *testing.T) {
	fake := &fakeProvider{name: "fake", books: testBooks()}
	srv := newTestServer(t, Options{Chain: providers.NewChain(fake)})

	w := doGet(srv, "/search?q=the+hobbit&excludeStudyGuides=true")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []models.Book `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "The Hobbit", resp.Items[0].Title)
}

func TestHandleSearchAllProvidersFailed(t *testing.T) {
	fake := &fakeProvider{name: "fake", err: errors.New("upstream down")}
	srv := newTestServer(t, Options{Chain: providers.NewChain(fake)})

	w := doGet(srv, "/search?q=anything")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ALL_PROVIDERS_FAILED", resp["code"])
	assert.Equal(t, []any{}, resp["items"])
}

func TestHandleISBN(t *testing.T) {
	book := &models.Book{Title: "Refactoring", Authors: []string{"Martin Fowler"}}
	fake := &fakeProvider{name: "fake", book: book}
	srv := newTestServer(t, Options{Chain: providers.NewChain(fake)})

	w := doGet(srv, "/isbn?isbn=978-0-13-475759-9")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	var resp struct {
		Book     models.Book `json:"book"`
		Provider string      `json:"provider"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Refactoring", resp.Book.Title)
	assert.Equal(t, "fake", resp.Provider)
}

func TestHandleISBNNotFound(t *testing.T) {
	fake := &fakeProvider{name: "fake", notFound: true}
	srv := newTestServer(t, Options{Chain: providers.NewChain(fake)})

	w := doGet(srv, "/isbn?isbn=9780134757599")
	require.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestHandleISBNInvalid(t *testing.T) {
	srv := newTestServer(t, Options{Chain: providers.NewChain(&fakeProvider{name: "fake"})})

	w := doGet(srv, "/isbn?isbn=123")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleAuthor(t *testing.T) {
	fake := &fakeProvider{name: "fake", books: testBooks()}
	srv := newTestServer(t, Options{Chain: providers.NewChain(fake)})

	w := doGet(srv, "/author?name=Tolkien")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items      []models.Book `json:"items"`
		TotalItems int           `json:"totalItems"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalItems)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, Options{Chain: providers.NewChain(&fakeProvider{name: "fake"})})

	w := doGet(srv, "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status    string          `json:"status"`
		Providers []string        `json:"providers"`
		Cache     map[string]bool `json:"cache"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"fake"}, resp.Providers)
	assert.True(t, resp.Cache["hot"])
	assert.False(t, resp.Cache["cold"])
}

func TestRateLimitMiddleware(t *testing.T) {
	fake := &fakeProvider{name: "fake", books: testBooks()}
	srv := newTestServer(t, Options{
		Chain:   providers.NewChain(fake),
		Limiter: ratelimit.New(time.Hour, 2, 1),
	})

	w := doGet(srv, "/search?q=budget+check")
	require.Equal(t, http.StatusOK, w.Code)
	w = doGet(srv, "/search?q=budget+check")
	require.Equal(t, http.StatusOK, w.Code)

	w = doGet(srv, "/search?q=budget+check")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Health is outside the rate-limited group.
	w = doGet(srv, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleWarm(t *testing.T) {
	fake := &fakeProvider{name: "fake", books: testBooks()}
	chain := providers.NewChain(fake)
	store := cache.NewTiered(cache.NewMemory[[]byte](time.Hour, 100), nil)
	wrm := warmer.New(chain, store, warmer.Options{Concurrency: 2, BatchDelay: time.Millisecond, TTL: time.Hour})

	srv := newTestServer(t, Options{Chain: chain, Store: store, Warmer: wrm})

	body := strings.NewReader(`{"queries": ["the hobbit", "dune"]}`)
	req := httptest.NewRequest(http.MethodPost, "/warm", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats warmer.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Cached)
	assert.NotEmpty(t, stats.RunID)
}

func TestHandleWarmNotConfigured(t *testing.T) {
	srv := newTestServer(t, Options{Chain: providers.NewChain(&fakeProvider{name: "fake"})})

	req := httptest.NewRequest(http.MethodPost, "/warm", strings.NewReader(`{"queries": ["x"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
