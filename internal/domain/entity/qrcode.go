package entity

import (
	"time"

	domainerrors "loyalty/internal/domain/errors"

	"github.com/google/uuid"
)

// QRCodeType describes what a QR code is printed for.
type QRCodeType string

const (
	QRCodeTypeStore    QRCodeType = "store"
	QRCodeTypeCampaign QRCodeType = "campaign"
	QRCodeTypeTrial    QRCodeType = "trial"
)

// IsValid checks if the type is a known value.
func (t QRCodeType) IsValid() bool {
	return t == QRCodeTypeStore || t == QRCodeTypeCampaign || t == QRCodeTypeTrial
}

// QRCodeStatus is the state of a QR code.
type QRCodeStatus string

const (
	QRCodeStatusActive   QRCodeStatus = "active"
	QRCodeStatusInactive QRCodeStatus = "inactive"
	QRCodeStatusExpired  QRCodeStatus = "expired"
)

// QRCode is a scannable token bound to a store and optionally to a campaign.
// ScanCount never exceeds ScanLimit when a limit is set.
type QRCode struct {
	ID         uuid.UUID      `json:"id"`
	StoreID    uuid.UUID      `json:"store_id"`
	CreatedBy  uuid.UUID      `json:"created_by"`
	Type       QRCodeType     `json:"type"`
	Content    string         `json:"content"` // Opaque token encoded in the image.
	Status     QRCodeStatus   `json:"status"`
	ExpiresAt  *time.Time     `json:"expires_at,omitempty"`
	ScanLimit  *int           `json:"scan_limit,omitempty"`
	ScanCount  int            `json:"scan_count"`
	CampaignID *uuid.UUID     `json:"campaign_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// IsExpiredAt reports whether the code is past its expiry.
func (q *QRCode) IsExpiredAt(now time.Time) bool {
	return q.ExpiresAt != nil && now.After(*q.ExpiresAt)
}

// LimitReached reports whether the scan limit is used up.
func (q *QRCode) LimitReached() bool {
	return q.ScanLimit != nil && q.ScanCount >= *q.ScanLimit
}

// ResolveCampaign returns the campaign a scan of this code applies to.
// A code bound to a campaign refuses an explicitly requested other campaign.
func (q *QRCode) ResolveCampaign(requested *uuid.UUID) (*uuid.UUID, error) {
	switch {
	case q.CampaignID == nil:
		return requested, nil
	case requested == nil:
		return q.CampaignID, nil
	case *requested != *q.CampaignID:
		return nil, domainerrors.ErrQRCodeCampaignMismatch
	}

	return requested, nil
}

// ValidateScan checks that the code may be used for a check-in at storeID.
func (q *QRCode) ValidateScan(storeID uuid.UUID, now time.Time) error {
	switch q.Status {
	case QRCodeStatusActive:
	case QRCodeStatusExpired:
		return domainerrors.ErrQRCodeExpired
	default:
		return domainerrors.ErrQRCodeInactive
	}

	if q.StoreID != storeID {
		return domainerrors.ErrQRCodeStoreMismatch
	}
	if q.IsExpiredAt(now) {
		return domainerrors.ErrQRCodeExpired
	}
	if q.LimitReached() {
		return domainerrors.ErrQRCodeScanLimitReached
	}

	return nil
}
