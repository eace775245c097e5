package service

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is a one-based page request
type Page struct {
	Page     int
	PageSize int
}

// Normalize clamps the page request to sane bounds
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Pagination describes the returned slice of a listing
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page count for total rows
func NewPagination(p Page, total int64) Pagination {
	pages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	return Pagination{Page: p.Page, PageSize: p.PageSize, TotalCount: total, TotalPages: pages}
}
