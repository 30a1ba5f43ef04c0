// file: internal/warmer/warmer.go
// version: 1.1.0
// guid: 2c3d4e5f-a6b7-4c8d-9e0f-1a2b3c4d5e6f

package warmer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	ulid "github.com/oklog/ulid/v2"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/jdfalk/bookmeta/internal/cache"
	"github.com/jdfalk/bookmeta/internal/models"
	"github.com/jdfalk/bookmeta/internal/providers"
	"github.com/jdfalk/bookmeta/internal/validator"
)

// Stats records aggregate outcome counts for a warm run.
type Stats struct {
	RunID   string        `json:"run_id"`
	Cached  int           `json:"cached"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Options tunes the warmer's concurrency shape. The resolution path itself
// is shared with live requests.
type Options struct {
	// Concurrency is the number of queries resolved per batch (2-3 keeps
	// upstream providers happy).
	Concurrency int
	// BatchDelay is the pause between batches.
	BatchDelay time.Duration
	// TTL applied to warmed entries.
	TTL time.Duration
	// Progress renders a progress bar on stderr (CLI use).
	Progress bool
}

// Warmer replays curated queries through the live provider chain and cache
// writer, outside the request path.
type Warmer struct {
	chain   *providers.Chain
	store   *cache.Tiered
	opts    Options
	limiter *rate.Limiter
}

// New creates a warmer over the live chain and cache.
func New(chain *providers.Chain, store *cache.Tiered, opts Options) *Warmer {
	if opts.Concurrency < 1 {
		opts.Concurrency = 2
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = 2 * time.Second
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * 24 * time.Hour
	}
	return &Warmer{
		chain:   chain,
		store:   store,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.BatchDelay), 1),
	}
}

// queryFile is the curated warm-list format.
type queryFile struct {
	Queries []string `yaml:"queries"`
}

// LoadQueries reads a curated query list from a YAML file.
func LoadQueries(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}
	var qf queryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse query file: %w", err)
	}
	return qf.Queries, nil
}

// WarmBatch resolves the given queries in small rate-limited batches,
// skipping any whose cache key already resolves to a hit.
func (w *Warmer) WarmBatch(ctx context.Context, queries []string, maxPerRun int) Stats {
	stats := Stats{RunID: ulid.Make().String()}
	start := time.Now()

	if maxPerRun > 0 && len(queries) > maxPerRun {
		queries = queries[:maxPerRun]
	}

	var bar *progressbar.ProgressBar
	if w.opts.Progress {
		bar = progressbar.Default(int64(len(queries)), "warming cache")
	}

	log.Printf("[INFO] warm run %s: %d queries, batches of %d", stats.RunID, len(queries), w.opts.Concurrency)

	var mu sync.Mutex
	for batchStart := 0; batchStart < len(queries); batchStart += w.opts.Concurrency {
		if batchStart > 0 {
			if err := w.limiter.Wait(ctx); err != nil {
				log.Printf("[WARN] warm run %s interrupted: %v", stats.RunID, err)
				break
			}
		}
		end := batchStart + w.opts.Concurrency
		if end > len(queries) {
			end = len(queries)
		}

		var wg sync.WaitGroup
		for _, q := range queries[batchStart:end] {
			wg.Add(1)
			go func(q string) {
				defer wg.Done()
				outcome := w.warmOne(q)
				mu.Lock()
				switch outcome {
				case outcomeCached:
					stats.Cached++
				case outcomeSkipped:
					stats.Skipped++
				case outcomeFailed:
					stats.Failed++
				}
				mu.Unlock()
				if bar != nil {
					_ = bar.Add(1)
				}
			}(q)
		}
		wg.Wait()
	}

	stats.Elapsed = time.Since(start)
	log.Printf("[INFO] warm run %s done: cached=%d skipped=%d failed=%d elapsed=%s",
		stats.RunID, stats.Cached, stats.Skipped, stats.Failed, stats.Elapsed)
	return stats
}

type outcome int

const (
	outcomeCached outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (w *Warmer) warmOne(rawQuery string) outcome {
	query := validator.SanitizeQuery(rawQuery)
	if query == "" {
		return outcomeFailed
	}
	req := validator.SearchRequest{
		Query:       query,
		MaxResults:  validator.MaxResultsDefault,
		OrderBy:     "relevance",
		QualityTier: "standard",
	}
	key := cache.SearchKey(req.Query, req.MaxResults, req.OrderBy, req.LangRestrict)

	if _, tier := w.store.Lookup(key); tier != cache.TierMiss {
		return outcomeSkipped
	}

	books, provider, err := w.chain.Search(req)
	if err != nil {
		log.Printf("[WARN] warm query %q failed: %v", query, err)
		return outcomeFailed
	}

	payload, err := json.Marshal(models.ResultSet{Provider: provider, Items: books})
	if err != nil {
		log.Printf("[WARN] warm query %q encode failed: %v", query, err)
		return outcomeFailed
	}
	w.store.Store(key, payload, w.opts.TTL)
	return outcomeCached
}
