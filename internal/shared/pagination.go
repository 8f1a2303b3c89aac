package shared

import (
	"net/url"
	"strconv"
)

// DefaultPerPage is used when a listing does not specify its own page size.
const DefaultPerPage = 20

// Pagination describes a skip/limit window over a backend listing that does
// not report its total size.
type Pagination struct {
	Page    int
	PerPage int
	HasNext bool
}

// NewPagination normalises page and perPage. HasNext is set when the page came back full.
func NewPagination(page, perPage, returned int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	return Pagination{Page: page, PerPage: perPage, HasNext: returned >= perPage}
}

// PageFromQuery reads the 1-based "page" parameter. Missing or malformed values yield 1.
func PageFromQuery(values url.Values) int {
	page, err := strconv.Atoi(values.Get("page"))
	if err != nil || page <= 0 {
		return 1
	}
	return page
}

// Skip is the number of rows before this page.
func (p Pagination) Skip() int {
	return (p.Page - 1) * p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

// PrevPage returns the previous page number.
func (p Pagination) PrevPage() int {
	if p.Page <= 1 {
		return 1
	}
	return p.Page - 1
}

// NextPage returns the next page number.
func (p Pagination) NextPage() int {
	return p.Page + 1
}
