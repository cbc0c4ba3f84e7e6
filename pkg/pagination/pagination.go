package pagination

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/custodian/pkg/query"
)

// PageRequest selects one page of a listing. Page is 1-based.
type PageRequest struct {
	Page   int               `json:"page"`
	Limit  int               `json:"limit"`
	Search *string           `json:"search,omitempty"`
	Sort   []query.SortField `json:"sort,omitempty"`
}

// Normalize clamps Page to at least 1 and Limit into [1, cfg.MaxLimit],
// substituting cfg.DefaultLimit when no limit was given.
func (r *PageRequest) Normalize(cfg Config) {
	r.Page = max(r.Page, 1)
	if r.Limit < 1 {
		r.Limit = cfg.DefaultLimit
	}
	r.Limit = min(r.Limit, cfg.MaxLimit)
}

// Offset is the number of rows preceding the page.
func (r *PageRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// PageRequestFromQuery reads page, limit, search and sort from a query
// string and normalizes the result. Unparseable numbers fall back to the
// defaults and a blank search is ignored.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	req := PageRequest{
		Page:  atoi(values.Get("page")),
		Limit: atoi(values.Get("limit")),
		Sort:  query.ParseSortFields(values.Get("sort")),
	}

	if s := strings.TrimSpace(values.Get("search")); s != "" {
		req.Search = &s
	}

	req.Normalize(cfg)
	return req
}

// PageResult is one page of T plus the totals needed to page further.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult builds a PageResult. Data is never nil so it encodes as an
// empty JSON array, and TotalPages is at least 1.
func NewPageResult[T any](data []T, total, page, limit int) PageResult[T] {
	pages := 1
	if limit > 0 && total > 0 {
		pages = (total + limit - 1) / limit
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: pages,
	}
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
