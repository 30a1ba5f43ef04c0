// file: internal/providers/chain_test.go
// version: 1.0.0
// guid: e8f9a0b1-c2d3-4e4f-9a5b-6c7d8e9f0a1b

package providers

import (
	"errors"
	"testing"

	"github.com/jdfalk/bookmeta/internal/models"
	"github.com/jdfalk/bookmeta/internal/validator"
)

type fakeProvider struct {
	name    string
	books   []models.Book
	err     error
	isbnErr error
	calls   int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(req validator.SearchRequest) ([]models.Book, error) {
	f.calls++
	return f.books, f.err
}

func (f *fakeProvider) LookupISBN(isbn string) (*models.Book, error) {
	f.calls++
	if f.isbnErr != nil {
		return nil, f.isbnErr
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(f.books) == 0 {
		return nil, ErrNotFound
	}
	return &f.books[0], nil
}

func (f *fakeProvider) SearchByAuthor(name string, maxResults int) ([]models.Book, error) {
	f.calls++
	return f.books, f.err
}

func TestChainAdvancesOnFailure(t *testing.T) {
	a := &fakeProvider{name: "A", err: errors.New("connection refused")}
	b := &fakeProvider{name: "B", books: []models.Book{{Title: "Dune"}}}
	chain := NewChain(a, b)

	books, provider, err := chain.Search(validator.SearchRequest{Query: "dune", MaxResults: 20, OrderBy: "relevance"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != "B" {
		t.Errorf("expected provider B, got %q", provider)
	}
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Errorf("expected B's result only, got %v", books)
	}
}

func TestChainAdvancesOnEmpty(t *testing.T) {
	a := &fakeProvider{name: "A"}
	b := &fakeProvider{name: "B", books: []models.Book{{Title: "Dune"}}}
	chain := NewChain(a, b)

	_, provider, err := chain.Search(validator.SearchRequest{Query: "dune", MaxResults: 20, OrderBy: "relevance"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != "B" {
		t.Errorf("expected provider B after empty A, got %q", provider)
	}
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	a := &fakeProvider{name: "A", books: []models.Book{{Title: "Low quality but present"}}}
	b := &fakeProvider{name: "B", books: []models.Book{{Title: "Never reached"}}}
	chain := NewChain(a, b)

	_, provider, err := chain.Search(validator.SearchRequest{Query: "x", MaxResults: 20, OrderBy: "relevance"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != "A" {
		t.Errorf("one low-quality result is still a success; expected A, got %q", provider)
	}
	if b.calls != 0 {
		t.Errorf("provider B should not have been called, got %d calls", b.calls)
	}
}

func TestChainAllFail(t *testing.T) {
	a := &fakeProvider{name: "A", err: errors.New("down")}
	b := &fakeProvider{name: "B", err: errors.New("also down")}
	chain := NewChain(a, b)

	_, _, err := chain.Search(validator.SearchRequest{Query: "x", MaxResults: 20, OrderBy: "relevance"})
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Errorf("expected ErrAllProvidersFailed, got %v", err)
	}
}

func TestChainISBNNotFoundVsFailed(t *testing.T) {
	a := &fakeProvider{name: "A", isbnErr: ErrNotFound}
	b := &fakeProvider{name: "B", isbnErr: ErrNotFound}
	chain := NewChain(a, b)

	_, _, err := chain.LookupISBN("9780000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound when all providers answer cleanly, got %v", err)
	}

	a = &fakeProvider{name: "A", isbnErr: errors.New("timeout")}
	b = &fakeProvider{name: "B", isbnErr: errors.New("timeout")}
	chain = NewChain(a, b)

	_, _, err = chain.LookupISBN("9780000000000")
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Errorf("expected ErrAllProvidersFailed on transport failures, got %v", err)
	}
}

func TestChainISBNFallsBack(t *testing.T) {
	want := models.Book{Title: "Found downstream"}
	a := &fakeProvider{name: "A", isbnErr: ErrNotFound}
	b := &fakeProvider{name: "B", books: []models.Book{want}}
	chain := NewChain(a, b)

	book, provider, err := chain.LookupISBN("9780261103344")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider != "B" || book.Title != want.Title {
		t.Errorf("expected B's record, got %q from %q", book.Title, provider)
	}
}

func TestChainNames(t *testing.T) {
	chain := NewChain(&fakeProvider{name: "A"}, &fakeProvider{name: "B"})
	names := chain.Names()
	if len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Errorf("unexpected names: %v", names)
	}
}
