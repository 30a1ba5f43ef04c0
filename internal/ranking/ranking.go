// file: internal/ranking/ranking.go
// version: 1.1.0
// guid: f9a0b1c2-d3e4-4f5a-8b6c-7d8e9f0a1b2c

package ranking

import (
	"sort"
	"strings"

	"github.com/jdfalk/bookmeta/internal/models"
)

// Scoring constants. These are hand-tuned heuristics; change them only
// together with the tests that pin them.
const (
	titlePoints       = 10
	authorPoints      = 10
	pagePresentPoints = 5
	publisherPoints   = 5
	descriptionPoints = 5

	pages200Points  = 15
	pages100Points  = 10
	pages50Points   = 5
	pagesTinyMalus  = -10
	reputablePoints = 10

	lowQualityTermMalus     = -15
	lowQualityCategoryMalus = -10
	authorInQueryBonus      = 20
	wordOverlapPoints       = 5
	wordOverlapCap          = 25
	minOverlapWordLen       = 3
)

// Tier thresholds: the minimum score a book must reach to survive the
// requested quality tier.
var tierThresholds = map[string]int{
	"standard": 0,
	"high":     30,
	"premium":  50,
}

// Config holds the term and publisher lists the ranker matches against.
// Process-wide immutable data, injected so tests can substitute smaller
// lists.
type Config struct {
	ReputablePublishers  []string
	LowQualityTerms      []string
	CollectionTerms      []string
	LowQualityCategories []string
}

// DefaultConfig returns the stock matching lists.
func DefaultConfig() Config {
	return Config{
		ReputablePublishers: []string{
			"penguin", "random house", "harpercollins", "simon & schuster",
			"macmillan", "hachette", "scholastic", "oxford university press",
			"cambridge university press", "vintage", "knopf", "doubleday",
			"houghton mifflin", "norton", "tor books", "del rey", "bantam",
		},
		LowQualityTerms: []string{
			"study guide", "summary", "sparknotes", "cliffsnotes",
			"cliff notes", "shmoop", "movie tie-in", "classroom edition",
		},
		CollectionTerms: []string{
			"collection", "box set", "boxed set", "bundle", "omnibus",
		},
		LowQualityCategories: []string{
			"study aids", "reference", "test preparation", "education",
		},
	}
}

// Options carries the per-request filter parameters.
type Options struct {
	MinPages           int
	ExcludeCollections bool
	ExcludeStudyGuides bool
	QualityTier        string
}

// Ranker scores and filters normalized result sets.
type Ranker struct {
	cfg Config
}

// New creates a ranker over the given configuration.
func New(cfg Config) *Ranker {
	return &Ranker{cfg: cfg}
}

// Rank applies hard filters, scores the survivors, drops those below the
// tier threshold, and returns them sorted by descending score. The sort is
// stable, so ties keep provider-chain order. The transient score never
// leaves this function.
func (r *Ranker) Rank(books []models.Book, query string, opts Options) []models.Book {
	type scored struct {
		book  models.Book
		score int
	}

	threshold := tierThresholds[opts.QualityTier]

	kept := make([]scored, 0, len(books))
	for i := range books {
		if r.rejected(&books[i], opts) {
			continue
		}
		s := r.Score(&books[i], query)
		if s < threshold {
			continue
		}
		kept = append(kept, scored{book: books[i], score: s})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	out := make([]models.Book, 0, len(kept))
	for _, s := range kept {
		out = append(out, s.book)
	}
	return out
}

// rejected applies the hard filters: rejection, not scoring.
func (r *Ranker) rejected(b *models.Book, opts Options) bool {
	if opts.MinPages > 0 && b.PageCount != nil && *b.PageCount < opts.MinPages {
		return true
	}
	title := strings.ToLower(b.Title)
	if opts.ExcludeCollections && containsAny(title, r.cfg.CollectionTerms) {
		return true
	}
	if opts.ExcludeStudyGuides {
		desc := strings.ToLower(b.Description)
		if containsAny(title, r.cfg.LowQualityTerms) || containsAny(desc, r.cfg.LowQualityTerms) {
			return true
		}
	}
	return false
}

// Score computes the additive quality score for a single book against the
// original query. The result is floored at 0.
func (r *Ranker) Score(b *models.Book, query string) int {
	score := 0
	title := strings.ToLower(b.Title)
	desc := strings.ToLower(b.Description)
	q := strings.ToLower(query)

	if b.Title != "" {
		score += titlePoints
	}
	if len(b.Authors) > 0 {
		score += authorPoints
	}
	if b.PageCount != nil {
		score += pagePresentPoints
	}
	if b.Publisher != "" {
		score += publisherPoints
	}
	if b.Description != "" {
		score += descriptionPoints
	}

	if b.PageCount != nil {
		switch pages := *b.PageCount; {
		case pages >= 200:
			score += pages200Points
		case pages >= 100:
			score += pages100Points
		case pages >= 50:
			score += pages50Points
		case pages > 0:
			score += pagesTinyMalus
		}
	}

	if b.Publisher != "" && containsAny(strings.ToLower(b.Publisher), r.cfg.ReputablePublishers) {
		score += reputablePoints
	}

	for _, term := range r.cfg.LowQualityTerms {
		if strings.Contains(title, term) {
			score += lowQualityTermMalus
		}
		if strings.Contains(desc, term) {
			score += lowQualityTermMalus
		}
	}

	for _, cat := range b.Categories {
		if containsAny(strings.ToLower(cat), r.cfg.LowQualityCategories) {
			score += lowQualityCategoryMalus
			break
		}
	}

	for _, author := range b.Authors {
		if author != "" && strings.Contains(q, strings.ToLower(author)) {
			score += authorInQueryBonus
			break
		}
	}

	score += overlapScore(q, title)

	if score < 0 {
		score = 0
	}
	return score
}

// overlapScore awards points for query words (longer than 2 chars) that
// also appear as title words, capped.
func overlapScore(query, title string) int {
	titleWords := make(map[string]bool)
	for _, w := range strings.Fields(title) {
		titleWords[strings.Trim(w, ".,:;!?")] = true
	}
	seen := make(map[string]bool)
	score := 0
	for _, w := range strings.Fields(query) {
		w = strings.Trim(w, ".,:;!?")
		if len(w) < minOverlapWordLen || seen[w] {
			continue
		}
		seen[w] = true
		if titleWords[w] {
			score += wordOverlapPoints
			if score >= wordOverlapCap {
				return wordOverlapCap
			}
		}
	}
	return score
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
