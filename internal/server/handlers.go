// file: internal/server/handlers.go
// version: 1.0.0
// guid: 9d0e1f2a-b3c4-4d5e-8f6a-7b8c9d0e1f2a

package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jdfalk/bookmeta/internal/cache"
	"github.com/jdfalk/bookmeta/internal/metrics"
	"github.com/jdfalk/bookmeta/internal/models"
	"github.com/jdfalk/bookmeta/internal/providers"
	"github.com/jdfalk/bookmeta/internal/ranking"
	"github.com/jdfalk/bookmeta/internal/validator"
)

// healthCheck reports liveness plus which cache tiers and providers are
// configured, so an operator can tell a degraded deployment from a healthy
// one at a glance.
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"cache": gin.H{
			"hot":  s.store.HasHot(),
			"cold": s.store.HasCold(),
		},
		"providers": s.chain.Names(),
	})
}

// resolveResultSet runs the tiered lookup, falls back to the provider
// chain on a miss, and persists fresh results asynchronously. Cached
// payloads are the raw provider output; quality filtering happens on top,
// per request.
func (s *Server) resolveResultSet(c *gin.Context, key string, ttl time.Duration,
	fetch func() ([]models.Book, string, error),
) (models.ResultSet, bool, error) {
	payload, tier := s.store.Lookup(key)
	metrics.IncCacheLookup(string(tier))
	c.Header("X-Cache", string(tier))

	if tier != cache.TierMiss {
		var rs models.ResultSet
		if err := json.Unmarshal(payload, &rs); err == nil {
			return rs, true, nil
		}
		// A corrupt entry is treated as a miss and overwritten below.
		log.Printf("[WARN] corrupt cache entry for %s, refetching", key)
	}

	books, provider, err := fetch()
	if err != nil {
		metrics.IncProvider("chain", "failure")
		return models.ResultSet{}, false, err
	}
	metrics.IncProvider(provider, "success")

	rs := models.ResultSet{Provider: provider, Items: books}
	if data, err := json.Marshal(rs); err == nil {
		s.store.Store(key, data, ttl)
	} else {
		log.Printf("[WARN] failed to encode results for %s: %v", key, err)
	}
	return rs, false, nil
}

// handleSearch resolves GET /search: validate, consult the cache, fall
// back through the provider chain, rank, respond.
func (s *Server) handleSearch(c *gin.Context) {
	start := time.Now()

	req, errs := validator.ParseSearchRequest(c.Request.URL.Query())
	if errs != nil {
		metrics.IncRequest("search", strconv.Itoa(http.StatusBadRequest))
		RespondWithValidationErrors(c, errs)
		return
	}

	key := cache.SearchKey(req.Query, req.MaxResults, req.OrderBy, req.LangRestrict)
	rs, cached, err := s.resolveResultSet(c, key, s.searchTTL, func() ([]models.Book, string, error) {
		return s.chain.Search(req)
	})
	if err != nil {
		metrics.IncRequest("search", strconv.Itoa(http.StatusServiceUnavailable))
		RespondWithServiceUnavailable(c, "all metadata providers failed")
		return
	}

	ranked := s.ranker.Rank(rs.Items, req.Query, ranking.Options{
		MinPages:           req.MinPages,
		ExcludeCollections: req.ExcludeCollections,
		ExcludeStudyGuides: req.ExcludeStudyGuides,
		QualityTier:        req.QualityTier,
	})

	c.Header("X-Provider", rs.Provider)
	c.JSON(http.StatusOK, gin.H{
		"items":      ranked,
		"totalItems": len(ranked),
		"provider":   rs.Provider,
		"cached":     cached,
	})
	metrics.IncRequest("search", strconv.Itoa(http.StatusOK))
	metrics.ObserveResolveDuration("search", time.Since(start))
}

// handleISBN resolves GET /isbn. An authoritative miss across every
// provider is a 404; only upstream failure is a 503.
func (s *Server) handleISBN(c *gin.Context) {
	start := time.Now()

	req, errs := validator.ParseISBNRequest(c.Request.URL.Query())
	if errs != nil {
		metrics.IncRequest("isbn", strconv.Itoa(http.StatusBadRequest))
		RespondWithValidationErrors(c, errs)
		return
	}

	key := cache.ISBNKey(req.ISBN)
	rs, cached, err := s.resolveResultSet(c, key, s.isbnTTL, func() ([]models.Book, string, error) {
		book, provider, err := s.chain.LookupISBN(req.ISBN)
		if err != nil {
			return nil, provider, err
		}
		return []models.Book{*book}, provider, nil
	})
	if err != nil {
		if errors.Is(err, providers.ErrNotFound) {
			metrics.IncRequest("isbn", strconv.Itoa(http.StatusNotFound))
			RespondWithNotFound(c, "book", req.ISBN)
			return
		}
		metrics.IncRequest("isbn", strconv.Itoa(http.StatusServiceUnavailable))
		RespondWithServiceUnavailable(c, "all metadata providers failed")
		return
	}
	if len(rs.Items) == 0 {
		// Stale cache shape; treat as not found rather than panic.
		metrics.IncRequest("isbn", strconv.Itoa(http.StatusNotFound))
		RespondWithNotFound(c, "book", req.ISBN)
		return
	}

	c.Header("X-Provider", rs.Provider)
	c.JSON(http.StatusOK, gin.H{
		"book":     rs.Items[0],
		"provider": rs.Provider,
		"cached":   cached,
	})
	metrics.IncRequest("isbn", strconv.Itoa(http.StatusOK))
	metrics.ObserveResolveDuration("isbn", time.Since(start))
}

// handleAuthor resolves GET /author. Enrichment results are returned in
// provider order, unranked; they back catalog enrichment rather than
// user-facing relevance.
func (s *Server) handleAuthor(c *gin.Context) {
	start := time.Now()

	req, errs := validator.ParseAuthorRequest(c.Request.URL.Query())
	if errs != nil {
		metrics.IncRequest("author", strconv.Itoa(http.StatusBadRequest))
		RespondWithValidationErrors(c, errs)
		return
	}

	key := cache.AuthorKey(req.Name)
	rs, cached, err := s.resolveResultSet(c, key, s.authorTTL, func() ([]models.Book, string, error) {
		return s.chain.SearchByAuthor(req.Name, validator.MaxResultsDefault)
	})
	if err != nil {
		metrics.IncRequest("author", strconv.Itoa(http.StatusServiceUnavailable))
		RespondWithServiceUnavailable(c, "all metadata providers failed")
		return
	}

	c.Header("X-Provider", rs.Provider)
	c.JSON(http.StatusOK, gin.H{
		"items":      rs.Items,
		"totalItems": len(rs.Items),
		"provider":   rs.Provider,
		"cached":     cached,
	})
	metrics.IncRequest("author", strconv.Itoa(http.StatusOK))
	metrics.ObserveResolveDuration("author", time.Since(start))
}

// warmRequest is the POST /warm body. Queries may be supplied inline;
// an empty list falls back to the configured curated file, if any.
type warmRequest struct {
	Queries   []string `json:"queries"`
	MaxPerRun int      `json:"max_per_run"`
}

// handleWarm triggers a synchronous warm run over the supplied queries.
func (s *Server) handleWarm(c *gin.Context) {
	if s.warm == nil {
		RespondWithError(c, http.StatusServiceUnavailable, "cache warmer is not configured", "WARMER_DISABLED")
		return
	}

	var req warmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error(), "INVALID_BODY")
		return
	}
	if len(req.Queries) == 0 {
		RespondWithError(c, http.StatusBadRequest, "queries must not be empty", "QUERIES_REQUIRED")
		return
	}

	stats := s.warm.WarmBatch(c.Request.Context(), req.Queries, req.MaxPerRun)
	metrics.AddWarmOutcomes(stats.Cached, stats.Skipped, stats.Failed)
	c.JSON(http.StatusOK, stats)
}
