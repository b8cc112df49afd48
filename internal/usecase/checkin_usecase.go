package usecase

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// PerformCheckinInput is a check-in attempt. A QR code may be given by id or by its scanned content.
type PerformCheckinInput struct {
	StoreID    uuid.UUID
	CampaignID *uuid.UUID
	QRCodeID   *uuid.UUID
	QRContent  string
	Location   *orb.Point
}

// ListCheckinsInput filters check-in lists. Non-admin callers only see their own check-ins.
type ListCheckinsInput struct {
	UserID     *uuid.UUID
	StoreID    *uuid.UUID
	CampaignID *uuid.UUID
	Status     *entity.CheckinStatus
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// CheckinList is one page of check-ins.
type CheckinList struct {
	Checkins []*entity.Checkin
	Total    int64
}

// CorrectCheckinInput is an admin correction. Nil fields are left untouched.
type CorrectCheckinInput struct {
	Status       *entity.CheckinStatus
	PointsEarned *int
}

// CheckinUsecase defines the check-in engine operations.
type CheckinUsecase interface {
	// PerformCheckin validates the attempt and records at most one valid check-in
	// per user, store and calendar day, awarding points in the same transaction.
	PerformCheckin(ctx context.Context, principal entity.Principal, input *PerformCheckinInput) (*entity.Checkin, error)

	GetCheckin(ctx context.Context, principal entity.Principal, id uuid.UUID) (*entity.Checkin, error)
	ListCheckins(ctx context.Context, principal entity.Principal, input *ListCheckinsInput) (*CheckinList, error)
	CorrectCheckin(ctx context.Context, principal entity.Principal, id uuid.UUID, input *CorrectCheckinInput) (*entity.Checkin, error)
}
