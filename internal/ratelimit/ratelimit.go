// file: internal/ratelimit/ratelimit.go
// version: 1.0.0
// guid: d1e2f3a4-b5c6-4d7e-8f9a-0b1c2d3e4f5a

package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/jdfalk/bookmeta/internal/cache"
)

const (
	// DefaultWindow is the fixed rate-limit window.
	DefaultWindow = time.Hour
	// DefaultBudget is the per-fingerprint request budget per window.
	DefaultBudget = 100
	// ReducedBudget applies when the client identification string is
	// missing or unusually short (heuristic abuse signal).
	ReducedBudget = 20

	shortIdentThreshold = 16
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type window struct {
	count    int
	resetsAt time.Time
}

// Limiter is a fixed-window request limiter. Counters live in the fast
// cache tier and reset by entry expiry, not explicit deletion.
//
// The read-then-increment below is deliberately not atomic across
// concurrent requests from the same fingerprint: a small race letting a
// few extra requests through is an accepted tradeoff for avoiding a lock
// around the whole admission path.
type Limiter struct {
	counters      *cache.Memory[window]
	window        time.Duration
	budget        int
	reducedBudget int
}

// New creates a limiter with the given window and budgets.
func New(windowLen time.Duration, budget, reducedBudget int) *Limiter {
	if windowLen <= 0 {
		windowLen = DefaultWindow
	}
	if budget < 1 {
		budget = DefaultBudget
	}
	if reducedBudget < 1 {
		reducedBudget = ReducedBudget
	}
	return &Limiter{
		counters:      cache.NewMemory[window](windowLen, 0),
		window:        windowLen,
		budget:        budget,
		reducedBudget: reducedBudget,
	}
}

// Fingerprint derives the per-client key: network address plus a short
// hash of the client-supplied identification string, bounding cardinality.
func Fingerprint(ip, clientIdent string) string {
	sum := sha256.Sum256([]byte(clientIdent))
	return ip + ":" + hex.EncodeToString(sum[:4])
}

// BudgetFor returns the window budget for a client identification string.
func (l *Limiter) BudgetFor(clientIdent string) int {
	if len(strings.TrimSpace(clientIdent)) < shortIdentThreshold {
		return l.reducedBudget
	}
	return l.budget
}

// Admit records a request against the fingerprint's window and reports
// whether it is allowed, how much budget remains, and how long a rejected
// caller should wait.
func (l *Limiter) Admit(fingerprint string, budget int) Decision {
	now := time.Now()

	w, ok := l.counters.Get(fingerprint)
	if !ok {
		w = window{count: 0, resetsAt: now.Add(l.window)}
	}

	if w.count >= budget {
		retry := time.Until(w.resetsAt)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}
	}

	w.count++
	l.counters.SetWithTTL(fingerprint, w, time.Until(w.resetsAt))

	return Decision{Allowed: true, Remaining: budget - w.count}
}
