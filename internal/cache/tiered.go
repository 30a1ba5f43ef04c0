// file: internal/cache/tiered.go
// version: 1.1.0
// guid: f7a8b9c0-d1e2-4f3a-8b4c-5d6e7f8a9b0c

package cache

import (
	"log"
	"time"
)

// Tier identifies which cache tier satisfied a lookup. The values double as
// the X-Cache response header.
type Tier string

const (
	TierHot  Tier = "HIT-HOT"
	TierCold Tier = "HIT-COLD"
	TierMiss Tier = "MISS"
)

const (
	// hotMaxTTL caps hot-tier lifetimes to respect its smaller capacity.
	hotMaxTTL = 24 * time.Hour
	// promotionTTL bounds a cold-hit promotion independently of the cold
	// entry's own remaining lifetime.
	promotionTTL = time.Hour
)

// Tiered performs hot-then-cold lookups with asynchronous promotion, and
// fire-and-forget dual-tier writes. Either tier may be nil; the resolver
// degrades to whatever is configured.
type Tiered struct {
	hot  *Memory[[]byte]
	cold *PebbleStore
}

// NewTiered creates a tiered resolver over the given tiers.
func NewTiered(hot *Memory[[]byte], cold *PebbleStore) *Tiered {
	return &Tiered{hot: hot, cold: cold}
}

// HasHot reports whether a hot tier is configured.
func (t *Tiered) HasHot() bool { return t.hot != nil }

// HasCold reports whether a cold tier is configured.
func (t *Tiered) HasCold() bool { return t.cold != nil }

// Lookup checks the hot tier, then the cold tier. A cold entry whose
// recorded expiry has passed is deleted and reported as a miss. A fresh
// cold hit is re-written into the hot tier asynchronously so repeat reads
// become hot-tier hits; promotion never blocks the caller.
func (t *Tiered) Lookup(key string) ([]byte, Tier) {
	if t.hot != nil {
		if data, ok := t.hot.Get(key); ok {
			return data, TierHot
		}
	}
	if t.cold == nil {
		return nil, TierMiss
	}
	data, expiresAt, err := t.cold.Get(key)
	if err == ErrNotFound {
		return nil, TierMiss
	}
	if err != nil {
		log.Printf("[WARN] cold tier lookup failed for %s: %v", key, err)
		return nil, TierMiss
	}
	if time.Now().After(expiresAt) {
		if err := t.cold.Delete(key); err != nil {
			log.Printf("[WARN] failed to evict expired entry %s: %v", key, err)
		}
		return nil, TierMiss
	}
	if t.hot != nil {
		go t.hot.SetWithTTL(key, data, promotionTTL)
	}
	return data, TierCold
}

// Store persists a payload into both tiers asynchronously. The caller has
// already answered the client; a write failure is logged and swallowed.
func (t *Tiered) Store(key string, payload []byte, ttl time.Duration) {
	go t.storeSync(key, payload, ttl)
}

func (t *Tiered) storeSync(key string, payload []byte, ttl time.Duration) {
	if t.hot != nil {
		hotTTL := ttl
		if hotTTL > hotMaxTTL {
			hotTTL = hotMaxTTL
		}
		t.hot.SetWithTTL(key, payload, hotTTL)
	}
	if t.cold != nil {
		if err := t.cold.Set(key, payload, ttl); err != nil {
			log.Printf("[WARN] cold tier write failed for %s: %v", key, err)
		}
	}
}
