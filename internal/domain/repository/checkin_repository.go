package repository

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// CheckinFilter narrows check-in lists. Nil fields match everything; From is inclusive, To exclusive.
type CheckinFilter struct {
	UserID     *uuid.UUID
	StoreID    *uuid.UUID
	CampaignID *uuid.UUID
	Status     *entity.CheckinStatus
	From       *time.Time
	To         *time.Time
}

// CheckinRepository defines persistence operations for check-ins.
type CheckinRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Checkin, error)

	// ExistsValidInWindow reports whether the user has a valid check-in at the store with checkin time in [from, to).
	ExistsValidInWindow(ctx context.Context, userID, storeID uuid.UUID, from, to time.Time) (bool, error)

	// ListHistory returns every check-in of the user at the store, oldest first.
	ListHistory(ctx context.Context, userID, storeID uuid.UUID) ([]*entity.Checkin, error)

	// List returns one page ordered by checkin time, newest first, and the total match count.
	List(ctx context.Context, filter CheckinFilter, page Pagination) ([]*entity.Checkin, int64, error)

	// Create persists a check-in. A second valid check-in for the same user, store and
	// checkin date returns ErrDuplicateCheckin.
	Create(ctx context.Context, checkin *entity.Checkin) error

	// UpdateCorrection saves an admin correction of status and points.
	UpdateCorrection(ctx context.Context, checkin *entity.Checkin) error

	Count(ctx context.Context, filter CheckinFilter) (int64, error)
}
