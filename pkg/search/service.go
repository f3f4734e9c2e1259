package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/unijobs/unijobs/pkg/core"
	"github.com/unijobs/unijobs/pkg/log"
	"github.com/unijobs/unijobs/pkg/storage"
)

// DefaultLimit is the page size when the caller does not set one.
const DefaultLimit = 20

var logger = log.ForComponent("search")

// Service runs paginated offer queries against a store.
type Service struct {
	store    *storage.Store
	maxLimit int
	now      func() time.Time
}

// NewService creates a search service. maxLimit caps the page size; zero or
// negative means DefaultLimit.
func NewService(store *storage.Store, maxLimit int) *Service {
	if maxLimit <= 0 {
		maxLimit = DefaultLimit
	}
	return &Service{store: store, maxLimit: maxLimit, now: time.Now}
}

// Params are the caller-supplied query parameters for one page.
//
// When Token is set it is authoritative: the search text, filters and sort
// recorded in it are used and the corresponding fields here are ignored, so
// every page of one query filters and orders identically.
type Params struct {
	// Value is free-form search text. Empty means a listing query.
	Value string

	Filters core.SearchFilters

	// Limit is the page size, clamped to the service maximum.
	Limit int

	// SortBy names a sortable field. Empty selects publishDate, newest
	// first.
	SortBy string

	// SortDescending overrides the sort direction when non-nil.
	SortDescending *bool

	// Token resumes a previous query after its last returned offer.
	Token string

	Visibility Visibility
}

// Result is one offer in a page. Score is present only for search queries.
type Result struct {
	core.Offer
	Score *float64 `json:"score,omitempty"`
}

// Page is one page of results. QueryToken resumes the query after the last
// result; it is absent when the result set is exhausted.
type Page struct {
	Results    []Result `json:"results"`
	QueryToken string   `json:"queryToken,omitempty"`
}

// Search runs one page of an offer query.
func (s *Service) Search(p Params) (*Page, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	var (
		value     string
		filters   core.SearchFilters
		sortField string
		sortDesc  bool
		after     *Token
	)

	if p.Token != "" {
		token, err := DecodeToken(p.Token)
		if err != nil {
			return nil, err
		}
		value = token.Value
		filters = token.Filters
		sortField = token.SortField
		sortDesc = token.SortDescending
		after = token
	} else {
		value = strings.TrimSpace(p.Value)
		filters = p.Filters
		if err := filters.Normalize(); err != nil {
			return nil, err
		}
		sortField = p.SortBy
		if sortField == "" {
			// Newest first by default.
			sortField = DefaultSortField
			sortDesc = true
		} else if _, ok := sortableFields[sortField]; !ok {
			return nil, fmt.Errorf("unknown sort field %q (valid: %s)",
				sortField, strings.Join(SortableFields(), ", "))
		}
		if p.SortDescending != nil {
			sortDesc = *p.SortDescending
		}
	}

	query, args, err := buildQuery(request{
		Value:          value,
		Filters:        filters,
		Visibility:     p.Visibility,
		SortField:      sortField,
		SortDescending: sortDesc,
		After:          after,
		Limit:          limit,
		Now:            storage.FormatTime(s.now()),
	})
	if err != nil {
		return nil, err
	}
	logger.Debugf("query: %s args=%v", query, args)

	hits, err := s.store.QueryHits(query, args...)
	if err != nil {
		return nil, err
	}

	searching := value != ""
	page := &Page{Results: make([]Result, 0, len(hits))}
	for i := range hits {
		offer := hits[i].Offer
		if !p.Visibility.ShowAdminReason {
			offer.AdminReason = ""
		}
		result := Result{Offer: offer}
		if searching {
			score := hits[i].Score
			result.Score = &score
		}
		page.Results = append(page.Results, result)
	}

	// A token is produced only for a full page; a short page means the
	// result set is exhausted.
	if len(hits) == limit {
		last := hits[len(hits)-1]
		token := Token{
			ID:             last.Offer.ID,
			SortField:      sortField,
			SortValue:      sortableFields[sortField].Extract(&last.Offer),
			SortDescending: sortDesc,
			Value:          value,
			Filters:        filters,
		}
		if searching {
			score := last.Score
			token.Score = &score
		}
		encoded, err := token.Encode()
		if err != nil {
			return nil, err
		}
		page.QueryToken = encoded
	}

	return page, nil
}
