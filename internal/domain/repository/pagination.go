package repository

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination bounds a list query. A zero Limit means no limit.
type Pagination struct {
	Limit  int
	Offset int
}

// NewPagination builds a bounded page from 1-based page numbers as sent by clients.
func NewPagination(page, pageSize int) Pagination {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{Limit: pageSize, Offset: (page - 1) * pageSize}
}
