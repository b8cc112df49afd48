package postgres

import (
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID assigns a time-ordered id when the caller left it empty.
func ensureID(id *uuid.UUID) {
	if *id != uuid.Nil {
		return
	}
	if generated, err := uuid.NewV7(); err == nil {
		*id = generated

		return
	}
	*id = uuid.New()
}

// paginate applies page bounds. A zero limit leaves the query unbounded.
func paginate(query *gorm.DB, page repository.Pagination) *gorm.DB {
	if page.Offset > 0 {
		query = query.Offset(page.Offset)
	}
	if page.Limit > 0 {
		query = query.Limit(page.Limit)
	}

	return query
}
