package impl

import (
	"context"
	"testing"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/infra/persistence/memory"
	"loyalty/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMerchantService_Stores(t *testing.T) {
	env := newTestEnv(t)
	merchant, merchantEntity := env.seedMerchant(t)
	other, _ := env.seedMerchant(t)
	srv := env.merchantService()
	ctx := context.Background()

	store, err := srv.CreateStore(ctx, merchant, &usecase.CreateStoreInput{Name: "Harbour", Address: "1 Pier Rd"})
	require.NoError(t, err)
	assert.Equal(t, merchantEntity.ID, store.MerchantID)
	assert.Equal(t, entity.StoreStatusActive, store.Status)

	_, err = srv.CreateStore(ctx, merchant, &usecase.CreateStoreInput{Name: " "})
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	_, err = srv.CreateStore(ctx, env.seedCustomer(t), &usecase.CreateStoreInput{Name: "Nope"})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	name := "Stolen"
	_, err = srv.UpdateStore(ctx, other, store.ID, &usecase.UpdateStoreInput{Name: &name})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	inactive := entity.StoreStatusInactive
	updated, err := srv.UpdateStore(ctx, merchant, store.ID, &usecase.UpdateStoreInput{Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, entity.StoreStatusInactive, updated.Status)

	own, err := srv.ListStores(ctx, merchant, &usecase.ListStoresInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), own.Total)

	visible, err := srv.ListStores(ctx, env.seedCustomer(t), &usecase.ListStoresInput{})
	require.NoError(t, err)
	assert.Zero(t, visible.Total, "customers only see active stores")
}

func TestMerchantService_DeleteMerchant_Cascades(t *testing.T) {
	env := newTestEnv(t)
	merchant, merchantEntity := env.seedMerchant(t)
	store := env.seedStore(t, merchantEntity.ID)
	campaign := env.seedCampaign(t, merchantEntity.ID, entity.CampaignStatusActive, entity.CampaignRules{})
	env.seedQRCode(t, store.ID, &campaign.ID, nil)
	checkins := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	_, err := checkins.PerformCheckin(ctx, env.seedCustomer(t), &usecase.PerformCheckinInput{StoreID: store.ID, CampaignID: &campaign.ID})
	require.NoError(t, err)

	srv := env.merchantService()
	err = srv.DeleteMerchant(ctx, merchant, merchantEntity.ID)
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	require.NoError(t, srv.DeleteMerchant(ctx, adminPrincipal(), merchantEntity.ID))

	_, err = srv.GetMerchant(ctx, adminPrincipal(), merchantEntity.ID)
	require.ErrorIs(t, err, domainerrors.ErrMerchantNotFound)
	_, err = memory.NewStoreRepository(env.store).FindByID(ctx, store.ID)
	require.ErrorIs(t, err, domainerrors.ErrStoreNotFound)
	_, err = memory.NewCampaignRepository(env.store).FindByID(ctx, campaign.ID)
	require.ErrorIs(t, err, domainerrors.ErrCampaignNotFound)

	remaining, err := memory.NewCheckinRepository(env.store).Count(ctx, repository.CheckinFilter{StoreID: &store.ID})
	require.NoError(t, err)
	assert.Zero(t, remaining)

	err = srv.DeleteMerchant(ctx, adminPrincipal(), merchantEntity.ID)
	require.ErrorIs(t, err, domainerrors.ErrMerchantNotFound)
}

func TestMerchantService_ListMerchants(t *testing.T) {
	env := newTestEnv(t)
	merchant, _ := env.seedMerchant(t)
	env.seedMerchant(t)
	srv := env.merchantService()

	_, err := srv.ListMerchants(context.Background(), merchant, 1, 10)
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	list, err := srv.ListMerchants(context.Background(), adminPrincipal(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	assert.Len(t, list.Merchants, 1)
}

func TestMerchantService_UpdateMerchant(t *testing.T) {
	env := newTestEnv(t)
	owner, merchant := env.seedMerchant(t)
	other, _ := env.seedMerchant(t)
	srv := env.merchantService()
	ctx := context.Background()

	name, phone := "Bean House Roasters", "02-1234-5678"
	updated, err := srv.UpdateMerchant(ctx, owner, merchant.ID, &usecase.UpdateMerchantInput{BusinessName: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, name, updated.BusinessName)
	assert.Equal(t, phone, updated.Phone)

	stored, err := memory.NewMerchantRepository(env.store).FindByID(ctx, merchant.ID)
	require.NoError(t, err)
	assert.Equal(t, name, stored.BusinessName)

	blank := "  "
	inactive := entity.MerchantStatusInactive
	unknown := entity.MerchantStatus("closed")
	tests := []struct {
		name      string
		principal entity.Principal
		input     usecase.UpdateMerchantInput
		wantErr   error
	}{
		{name: "other merchant", principal: other, input: usecase.UpdateMerchantInput{Phone: &phone}, wantErr: domainerrors.ErrForbidden},
		{name: "customer", principal: env.seedCustomer(t), input: usecase.UpdateMerchantInput{Phone: &phone}, wantErr: domainerrors.ErrForbidden},
		{name: "owner changing status", principal: owner, input: usecase.UpdateMerchantInput{Status: &inactive}, wantErr: domainerrors.ErrForbidden},
		{name: "blank business name", principal: owner, input: usecase.UpdateMerchantInput{BusinessName: &blank}, wantErr: domainerrors.ErrValidationFailed},
		{name: "unknown status", principal: adminPrincipal(), input: usecase.UpdateMerchantInput{Status: &unknown}, wantErr: domainerrors.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.UpdateMerchant(ctx, tt.principal, merchant.ID, &tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	updated, err = srv.UpdateMerchant(ctx, adminPrincipal(), merchant.ID, &usecase.UpdateMerchantInput{Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, entity.MerchantStatusInactive, updated.Status)
	assert.Equal(t, name, updated.BusinessName)
}
