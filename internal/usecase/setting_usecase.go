package usecase

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// UpsertSettingInput writes one setting. At most one of MerchantID and StoreID selects the scope;
// neither means global.
type UpsertSettingInput struct {
	Key         string
	Value       string
	Type        entity.SettingType
	Description string
	MerchantID  *uuid.UUID
	StoreID     *uuid.UUID
}

// ListSettingsInput filters setting lists.
type ListSettingsInput struct {
	Key        *string
	MerchantID *uuid.UUID
	StoreID    *uuid.UUID
}

// SettingUsecase manages scoped key-value settings.
type SettingUsecase interface {
	UpsertSetting(ctx context.Context, principal entity.Principal, input *UpsertSettingInput) (*entity.Setting, error)
	ListSettings(ctx context.Context, principal entity.Principal, input *ListSettingsInput) ([]*entity.Setting, error)

	// GetEffectiveSetting resolves key with precedence store, then merchant, then global.
	GetEffectiveSetting(ctx context.Context, principal entity.Principal, key string, storeID, merchantID *uuid.UUID) (*entity.Setting, error)

	DeleteSetting(ctx context.Context, principal entity.Principal, id uuid.UUID) error
}
