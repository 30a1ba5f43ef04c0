// file: internal/validator/validator.go
// version: 1.1.0
// guid: 7c2d4e9f-1a3b-4c5d-8e6f-0a1b2c3d4e5f

package validator

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxQueryLength bounds raw query text before sanitization.
	MaxQueryLength = 500
	// MaxResultsDefault is used when maxResults is absent.
	MaxResultsDefault = 20
	// MaxResultsLimit is the upper bound for maxResults.
	MaxResultsLimit = 40
)

// FieldError represents a single validation failure. All failures for a
// request are collected and returned together so a caller can fix every
// problem in one round trip.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SearchRequest is a sanitized, bounded search request. It is constructed
// once by ParseSearchRequest and never partially valid.
type SearchRequest struct {
	Query              string
	MaxResults         int
	OrderBy            string
	LangRestrict       string
	MinPages           int
	ExcludeCollections bool
	ExcludeStudyGuides bool
	QualityTier        string
}

// ISBNRequest is a normalized 10- or 13-digit identifier lookup. Checksum
// validity is not checked here; the provider lookup is the arbiter of
// existence.
type ISBNRequest struct {
	ISBN string
}

// AuthorRequest is a sanitized author-enrichment lookup.
type AuthorRequest struct {
	Name string
}

var (
	langPattern   = regexp.MustCompile(`^[a-zA-Z]{2,3}$`)
	isbn10Pattern = regexp.MustCompile(`^[0-9]{9}[0-9X]$`)
	isbn13Pattern = regexp.MustCompile(`^[0-9]{13}$`)
)

// SanitizeQuery strips angle brackets, quote characters, and C0/DEL control
// characters, NFC-normalizes the text, and collapses runs of whitespace so
// equivalent queries derive identical cache keys downstream.
func SanitizeQuery(raw string) string {
	s := norm.NFC.String(raw)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '<' || r == '>' || r == '"' || r == '\'':
			// dropped
		case r < 0x20 || r == 0x7f:
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeISBN strips leading formula-escape characters (a spreadsheet
// export artifact), hyphens, and spaces, and uppercases the remainder.
func NormalizeISBN(raw string) string {
	s := strings.TrimSpace(raw)
	for strings.HasPrefix(s, "=") {
		s = s[1:]
	}
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(s)
}

// ParseSearchRequest validates raw query parameters into a SearchRequest,
// collecting every violation instead of stopping at the first.
func ParseSearchRequest(params url.Values) (SearchRequest, []FieldError) {
	var errs []FieldError
	req := SearchRequest{
		MaxResults:  MaxResultsDefault,
		OrderBy:     "relevance",
		QualityTier: "standard",
	}

	raw := params.Get("q")
	if strings.TrimSpace(raw) == "" {
		errs = append(errs, FieldError{"q", "query is required", "QUERY_REQUIRED"})
	} else if len(raw) > MaxQueryLength {
		errs = append(errs, FieldError{"q", fmt.Sprintf("query must not exceed %d characters", MaxQueryLength), "QUERY_TOO_LONG"})
	} else {
		req.Query = SanitizeQuery(raw)
		if req.Query == "" {
			errs = append(errs, FieldError{"q", "query contains no usable characters", "QUERY_EMPTY_AFTER_SANITIZE"})
		}
	}

	if v := params.Get("maxResults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, FieldError{"maxResults", "maxResults must be an integer", "MAX_RESULTS_NOT_NUMERIC"})
		} else if n < 1 || n > MaxResultsLimit {
			errs = append(errs, FieldError{"maxResults", fmt.Sprintf("maxResults must be between 1 and %d", MaxResultsLimit), "MAX_RESULTS_OUT_OF_RANGE"})
		} else {
			req.MaxResults = n
		}
	}

	if v := params.Get("orderBy"); v != "" {
		if v != "relevance" && v != "newest" {
			errs = append(errs, FieldError{"orderBy", "orderBy must be one of: relevance, newest", "ORDER_BY_INVALID"})
		} else {
			req.OrderBy = v
		}
	}

	if v := params.Get("langRestrict"); v != "" {
		if !langPattern.MatchString(v) {
			errs = append(errs, FieldError{"langRestrict", "langRestrict must be a 2-3 letter language code", "LANG_RESTRICT_INVALID"})
		} else {
			req.LangRestrict = strings.ToLower(v)
		}
	}

	if v := params.Get("minPages"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, FieldError{"minPages", "minPages must be a non-negative integer", "MIN_PAGES_INVALID"})
		} else {
			req.MinPages = n
		}
	}

	req.ExcludeCollections = parseBool(params.Get("excludeCollections"))
	req.ExcludeStudyGuides = parseBool(params.Get("excludeStudyGuides"))

	if v := params.Get("qualityFilter"); v != "" {
		switch v {
		case "standard", "high", "premium":
			req.QualityTier = v
		default:
			errs = append(errs, FieldError{"qualityFilter", "qualityFilter must be one of: standard, high, premium", "QUALITY_FILTER_INVALID"})
		}
	}

	if len(errs) > 0 {
		return SearchRequest{}, errs
	}
	return req, nil
}

// ParseISBNRequest validates an identifier lookup. Format only: exactly 10
// characters matching nine digits plus a digit or X, or exactly 13 digits.
func ParseISBNRequest(params url.Values) (ISBNRequest, []FieldError) {
	raw := params.Get("isbn")
	if strings.TrimSpace(raw) == "" {
		return ISBNRequest{}, []FieldError{{"isbn", "isbn is required", "ISBN_REQUIRED"}}
	}
	normalized := NormalizeISBN(raw)
	if !isbn10Pattern.MatchString(normalized) && !isbn13Pattern.MatchString(normalized) {
		return ISBNRequest{}, []FieldError{{"isbn", "isbn must be 10 characters (digits, final digit or X) or 13 digits", "ISBN_INVALID"}}
	}
	return ISBNRequest{ISBN: normalized}, nil
}

// ParseAuthorRequest validates an author-enrichment lookup.
func ParseAuthorRequest(params url.Values) (AuthorRequest, []FieldError) {
	raw := params.Get("name")
	if strings.TrimSpace(raw) == "" {
		return AuthorRequest{}, []FieldError{{"name", "name is required", "NAME_REQUIRED"}}
	}
	if len(raw) > 200 {
		return AuthorRequest{}, []FieldError{{"name", "name must not exceed 200 characters", "NAME_TOO_LONG"}}
	}
	name := SanitizeQuery(raw)
	if name == "" {
		return AuthorRequest{}, []FieldError{{"name", "name contains no usable characters", "NAME_EMPTY_AFTER_SANITIZE"}}
	}
	return AuthorRequest{Name: name}, nil
}

func parseBool(v string) bool {
	return strings.ToLower(v) == "true" || v == "1"
}
