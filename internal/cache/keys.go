// file: internal/cache/keys.go
// version: 1.0.0
// guid: e6f7a8b9-c0d1-4e2f-9a3b-4c5d6e7f8a9b

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// SearchKey derives the cache key for a search request. It is a pure
// function of the normalized query text, result-count bound, sort mode, and
// language restriction: the same logical request always yields the same key.
func SearchKey(query string, maxResults int, orderBy, langRestrict string) string {
	return "search:" + digest(fmt.Sprintf("%s|%d|%s|%s", strings.ToLower(query), maxResults, orderBy, langRestrict))
}

// ISBNKey derives the cache key for an identifier lookup.
func ISBNKey(isbn string) string {
	return "isbn:" + isbn
}

// AuthorKey derives the cache key for an author-enrichment lookup.
func AuthorKey(name string) string {
	return "author:" + digest(strings.ToLower(name))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
