// file: internal/models/result.go
// version: 1.0.0
// guid: 1b2c3d4e-f5a6-4b7c-8d9e-0f1a2b3c4d5e

package models

// ResultSet is the cached payload for a resolved request: the raw
// normalized provider output plus which provider produced it. Ranking is
// applied per request after retrieval, never baked into the cache.
type ResultSet struct {
	Provider string `json:"provider"`
	Items    []Book `json:"items"`
}
