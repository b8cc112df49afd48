package entity

import (
	"testing"
	"time"

	domainerrors "loyalty/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestQRCode_ValidateScan(t *testing.T) {
	storeID := uuid.New()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	five := 5

	tests := []struct {
		name    string
		qr      QRCode
		storeID uuid.UUID
		wantErr error
	}{
		{"usable", QRCode{StoreID: storeID, Status: QRCodeStatusActive, ExpiresAt: &future, ScanLimit: &five, ScanCount: 4}, storeID, nil},
		{"no limits", QRCode{StoreID: storeID, Status: QRCodeStatusActive}, storeID, nil},
		{"inactive", QRCode{StoreID: storeID, Status: QRCodeStatusInactive}, storeID, domainerrors.ErrQRCodeInactive},
		{"marked expired", QRCode{StoreID: storeID, Status: QRCodeStatusExpired}, storeID, domainerrors.ErrQRCodeExpired},
		{"other store", QRCode{StoreID: uuid.New(), Status: QRCodeStatusActive}, storeID, domainerrors.ErrQRCodeStoreMismatch},
		{"past expiry", QRCode{StoreID: storeID, Status: QRCodeStatusActive, ExpiresAt: &past}, storeID, domainerrors.ErrQRCodeExpired},
		{"limit reached", QRCode{StoreID: storeID, Status: QRCodeStatusActive, ScanLimit: &five, ScanCount: 5}, storeID, domainerrors.ErrQRCodeScanLimitReached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.qr.ValidateScan(tt.storeID, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestQRCode_ResolveCampaign(t *testing.T) {
	bound, other := uuid.New(), uuid.New()

	tests := []struct {
		name      string
		codeFor   *uuid.UUID
		requested *uuid.UUID
		want      *uuid.UUID
		wantErr   error
	}{
		{name: "store code keeps no campaign", codeFor: nil, requested: nil, want: nil},
		{name: "store code accepts requested campaign", codeFor: nil, requested: &other, want: &other},
		{name: "bound code supplies its campaign", codeFor: &bound, requested: nil, want: &bound},
		{name: "bound code accepts its own campaign", codeFor: &bound, requested: &bound, want: &bound},
		{name: "bound code refuses another campaign", codeFor: &bound, requested: &other, wantErr: domainerrors.ErrQRCodeCampaignMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := &QRCode{CampaignID: tt.codeFor}
			got, err := code.ResolveCampaign(tt.requested)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
