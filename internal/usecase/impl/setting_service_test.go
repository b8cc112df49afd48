package impl

import (
	"context"
	"testing"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingService_EffectiveSettingPrecedence(t *testing.T) {
	env := newTestEnv(t)
	merchant, merchantEntity := env.seedMerchant(t)
	store := env.seedStore(t, merchantEntity.ID)
	plainStore := env.seedStore(t, merchantEntity.ID)
	srv := env.settingService()
	ctx := context.Background()
	admin := adminPrincipal()
	key := entity.SettingKeyPointsPerCheckin

	_, err := srv.UpsertSetting(ctx, admin, &usecase.UpsertSettingInput{Key: key, Value: "5", Type: entity.SettingTypeNumber})
	require.NoError(t, err)
	_, err = srv.UpsertSetting(ctx, merchant, &usecase.UpsertSettingInput{Key: key, Value: "8", Type: entity.SettingTypeNumber, MerchantID: &merchantEntity.ID})
	require.NoError(t, err)
	_, err = srv.UpsertSetting(ctx, merchant, &usecase.UpsertSettingInput{Key: key, Value: "12", Type: entity.SettingTypeNumber, StoreID: &store.ID})
	require.NoError(t, err)

	setting, err := srv.GetEffectiveSetting(ctx, merchant, key, &store.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "12", setting.Value)

	setting, err = srv.GetEffectiveSetting(ctx, merchant, key, &plainStore.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "8", setting.Value)

	setting, err = srv.GetEffectiveSetting(ctx, admin, key, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "5", setting.Value)

	updated, err := srv.UpsertSetting(ctx, merchant, &usecase.UpsertSettingInput{Key: key, Value: "9", Type: entity.SettingTypeNumber, MerchantID: &merchantEntity.ID})
	require.NoError(t, err)
	own, err := srv.ListSettings(ctx, merchant, &usecase.ListSettingsInput{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, updated.ID, own[0].ID)
	assert.Equal(t, "9", own[0].Value)

	_, err = srv.GetEffectiveSetting(ctx, admin, "missing", nil, nil)
	require.ErrorIs(t, err, domainerrors.ErrSettingNotFound)
}

func TestSettingService_UpsertSetting_Rejections(t *testing.T) {
	env := newTestEnv(t)
	merchant, merchantEntity := env.seedMerchant(t)
	_, otherMerchant := env.seedMerchant(t)
	otherStore := env.seedStore(t, otherMerchant.ID)
	srv := env.settingService()

	tests := []struct {
		name      string
		principal entity.Principal
		input     *usecase.UpsertSettingInput
		wantErr   error
	}{
		{
			name:      "merchant writing a global setting",
			principal: merchant,
			input:     &usecase.UpsertSettingInput{Key: "theme", Value: "dark", Type: entity.SettingTypeString},
			wantErr:   domainerrors.ErrForbidden,
		},
		{
			name:      "merchant writing another store",
			principal: merchant,
			input:     &usecase.UpsertSettingInput{Key: "theme", Value: "dark", Type: entity.SettingTypeString, StoreID: &otherStore.ID},
			wantErr:   domainerrors.ErrForbidden,
		},
		{
			name:      "value does not match type",
			principal: merchant,
			input:     &usecase.UpsertSettingInput{Key: "limit", Value: "many", Type: entity.SettingTypeNumber, MerchantID: &merchantEntity.ID},
			wantErr:   domainerrors.ErrValidationFailed,
		},
		{
			name:      "two scopes",
			principal: adminPrincipal(),
			input:     &usecase.UpsertSettingInput{Key: "theme", Value: "dark", Type: entity.SettingTypeString, MerchantID: &merchantEntity.ID, StoreID: &otherStore.ID},
			wantErr:   domainerrors.ErrValidationFailed,
		},
		{
			name:      "customer",
			principal: env.seedCustomer(t),
			input:     &usecase.UpsertSettingInput{Key: "theme", Value: "dark", Type: entity.SettingTypeString},
			wantErr:   domainerrors.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.UpsertSetting(context.Background(), tt.principal, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSettingService_DeleteSetting(t *testing.T) {
	env := newTestEnv(t)
	merchant, merchantEntity := env.seedMerchant(t)
	srv := env.settingService()
	ctx := context.Background()

	setting, err := srv.UpsertSetting(ctx, merchant, &usecase.UpsertSettingInput{Key: "theme", Value: "dark", Type: entity.SettingTypeString, MerchantID: &merchantEntity.ID})
	require.NoError(t, err)

	require.ErrorIs(t, srv.DeleteSetting(ctx, merchant, setting.ID), domainerrors.ErrForbidden)
	require.NoError(t, srv.DeleteSetting(ctx, adminPrincipal(), setting.ID))
	require.ErrorIs(t, srv.DeleteSetting(ctx, adminPrincipal(), setting.ID), domainerrors.ErrSettingNotFound)
}
