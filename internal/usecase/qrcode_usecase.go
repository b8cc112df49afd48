package usecase

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateQRCodeInput defines a new QR code of a store.
type CreateQRCodeInput struct {
	StoreID    uuid.UUID
	Type       entity.QRCodeType
	CampaignID *uuid.UUID
	ExpiresAt  *time.Time
	ScanLimit  *int
	Metadata   map[string]any
}

// QRCodeUsecase manages QR codes.
type QRCodeUsecase interface {
	CreateQRCode(ctx context.Context, principal entity.Principal, input *CreateQRCodeInput) (*entity.QRCode, error)
	ListQRCodes(ctx context.Context, principal entity.Principal, storeID uuid.UUID) ([]*entity.QRCode, error)

	// GetQRCodeImage renders the QR code as a PNG image.
	GetQRCodeImage(ctx context.Context, principal entity.Principal, id uuid.UUID) ([]byte, error)

	// ResolveQRCode looks up a QR code by its scanned content.
	ResolveQRCode(ctx context.Context, content string) (*entity.QRCode, error)

	DeactivateQRCode(ctx context.Context, principal entity.Principal, id uuid.UUID) (*entity.QRCode, error)
}
