// file: internal/providers/provider.go
// version: 1.1.0
// guid: f3a4b5c6-d7e8-4f9a-8b0c-1d2e3f4a5b6c

package providers

import (
	"errors"
	"fmt"
	"log"

	"github.com/jdfalk/bookmeta/internal/models"
	"github.com/jdfalk/bookmeta/internal/validator"
)

// ErrNotFound means every provider answered authoritatively that the
// record does not exist.
var ErrNotFound = errors.New("providers: no provider has the record")

// ErrAllProvidersFailed means every provider failed or returned nothing;
// there is nothing further to fall back to. The chain never retries within
// the same request.
var ErrAllProvidersFailed = errors.New("providers: all providers failed")

// ProviderError is a typed upstream failure surfaced by an adapter instead
// of escaping past the chain.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Provider is a pluggable book-metadata source. Each adapter builds a
// provider-specific request, calls the upstream source, and maps the native
// schema into the normalized Book record.
type Provider interface {
	Name() string
	Search(req validator.SearchRequest) ([]models.Book, error)
	LookupISBN(isbn string) (*models.Book, error)
	SearchByAuthor(name string, maxResults int) ([]models.Book, error)
}

// Chain tries providers strictly in priority order, advancing only when
// the current one fails outright or returns zero results. A provider
// returning one low-quality result is still a success; ranking happens
// later, chain-wide.
type Chain struct {
	providers []Provider
}

// NewChain creates a chain over the given providers in priority order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Names returns the provider names in priority order.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Search resolves a search request, returning the results and the name of
// the provider that satisfied it.
func (c *Chain) Search(req validator.SearchRequest) ([]models.Book, string, error) {
	for _, p := range c.providers {
		books, err := p.Search(req)
		if err != nil {
			log.Printf("[WARN] provider %s search failed: %v", p.Name(), err)
			continue
		}
		if len(books) == 0 {
			log.Printf("[INFO] provider %s returned no results for %q", p.Name(), req.Query)
			continue
		}
		return books, p.Name(), nil
	}
	return nil, "", ErrAllProvidersFailed
}

// LookupISBN resolves an identifier lookup. A provider's authoritative
// not-found advances the chain; if no provider has the identifier and at
// least one answered cleanly, the result is ErrNotFound rather than a
// service failure.
func (c *Chain) LookupISBN(isbn string) (*models.Book, string, error) {
	sawNotFound := false
	for _, p := range c.providers {
		book, err := p.LookupISBN(isbn)
		if errors.Is(err, ErrNotFound) {
			sawNotFound = true
			log.Printf("[INFO] provider %s has no record for ISBN %s", p.Name(), isbn)
			continue
		}
		if err != nil {
			log.Printf("[WARN] provider %s ISBN lookup failed: %v", p.Name(), err)
			continue
		}
		return book, p.Name(), nil
	}
	if sawNotFound {
		return nil, "", ErrNotFound
	}
	return nil, "", ErrAllProvidersFailed
}

// SearchByAuthor resolves an author-enrichment lookup.
func (c *Chain) SearchByAuthor(name string, maxResults int) ([]models.Book, string, error) {
	for _, p := range c.providers {
		books, err := p.SearchByAuthor(name, maxResults)
		if err != nil {
			log.Printf("[WARN] provider %s author search failed: %v", p.Name(), err)
			continue
		}
		if len(books) == 0 {
			continue
		}
		return books, p.Name(), nil
	}
	return nil, "", ErrAllProvidersFailed
}
