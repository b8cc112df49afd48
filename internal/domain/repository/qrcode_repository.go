package repository

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// QRCodeFilter narrows QR code lists. Nil fields match everything.
type QRCodeFilter struct {
	StoreID    *uuid.UUID
	CampaignID *uuid.UUID
	Status     *entity.QRCodeStatus
}

// QRCodeRepository defines persistence operations for QR codes.
type QRCodeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.QRCode, error)

	FindByContent(ctx context.Context, content string) (*entity.QRCode, error)

	List(ctx context.Context, filter QRCodeFilter) ([]*entity.QRCode, error)

	Create(ctx context.Context, qrCode *entity.QRCode) error

	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.QRCodeStatus) error

	// IncrementScanCount adds one scan unless the scan limit is already used up,
	// in which case it returns ErrQRCodeScanLimitReached and changes nothing.
	IncrementScanCount(ctx context.Context, id uuid.UUID) error
}
