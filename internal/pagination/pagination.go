// Package pagination solves page/limit query parameters and builds the list envelope.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Page is a solved page request
type Page struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// FromQuery reads page and limit, falling back to defaults on missing or
// invalid values and capping limit at MaxLimit.
func FromQuery(q url.Values) Page {
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Meta describes the returned page
type Meta struct {
	TotalCount int `json:"totalCount"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	PageCount  int `json:"pageCount"`
}

// Result is the envelope of every paginated list
type Result[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

// NewResult wraps one page of items with its metadata
func NewResult[T any](items []T, total int, p Page) Result[T] {
	if items == nil {
		items = []T{}
	}
	pageCount := 0
	if p.Limit > 0 {
		pageCount = (total + p.Limit - 1) / p.Limit
	}
	return Result[T]{
		Data: items,
		Pagination: Meta{
			TotalCount: total,
			Page:       p.Page,
			Limit:      p.Limit,
			PageCount:  pageCount,
		},
	}
}
