package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loyalty/config"
	"loyalty/internal/domain/constants"
	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/service"
	"loyalty/internal/infra/cache"
	"loyalty/internal/infra/persistence/memory"
	"loyalty/internal/usecase/impl"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushFixture struct {
	handler    *PushHandler
	cache      service.CampaignListCache
	merchantID uuid.UUID
}

func newPushFixture(t *testing.T) *pushFixture {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.New()
	owner := &entity.User{Username: "owner", Email: "owner@example.com", Role: entity.RoleMerchant, Status: entity.UserStatusActive}
	require.NoError(t, memory.NewUserRepository(store).Create(ctx, owner))
	merchant := &entity.Merchant{UserID: owner.ID, BusinessName: "Tea House", Status: entity.MerchantStatusActive}
	require.NoError(t, memory.NewMerchantRepository(store).Create(ctx, merchant))

	now := time.Now()
	campaign, err := entity.NewCampaign(entity.NewCampaignInput{
		MerchantID: merchant.ID,
		CreatedBy:  owner.ID,
		Name:       "Loyalty week",
		Type:       entity.CampaignTypePoints,
		StartDate:  now,
		EndDate:    now.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, memory.NewCampaignRepository(store).Create(ctx, campaign))

	campaignCache := cache.NewMemoryCache(time.Minute, time.Now)
	campaignUC := impl.NewCampaignService(impl.CampaignServiceParams{
		TxManager:    memory.NewTransactionManager(store),
		CampaignRepo: memory.NewCampaignRepository(store),
		QRCodeRepo:   memory.NewQRCodeRepository(store),
		Cache:        campaignCache,
		Logger:       logger,
	})

	return &pushFixture{
		handler: NewPushHandler(PushHandlerParams{
			Config:     &config.Config{},
			Logger:     logger,
			CampaignUC: campaignUC,
		}),
		cache:      campaignCache,
		merchantID: merchant.ID,
	}
}

func (f *pushFixture) push(t *testing.T, msg PubSubMessage) int {
	t.Helper()

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/push", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, f.handler.HandlePush(c))

	return rec.Code
}

func checkinMessage(t *testing.T, event service.CheckinEvent, eventType string) PubSubMessage {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var msg PubSubMessage
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.MessageID = event.CheckinID
	msg.Message.Attributes = map[string]string{"event_type": eventType, "request_id": "req-1"}

	return msg
}

func TestHandlePush_WarmsMerchantCampaigns(t *testing.T) {
	f := newPushFixture(t)

	status := f.push(t, checkinMessage(t, service.CheckinEvent{
		CheckinID:  uuid.NewString(),
		MerchantID: f.merchantID.String(),
	}, constants.CheckinRecordedEvent))

	assert.Equal(t, http.StatusOK, status)
	cached, ok, err := f.cache.GetMerchantCampaigns(context.Background(), f.merchantID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, cached, 1)
}

func TestHandlePush_Acknowledgement(t *testing.T) {
	tests := []struct {
		name   string
		msg    func(t *testing.T, merchantID uuid.UUID) PubSubMessage
		status int
	}{
		{
			name: "other event type is skipped",
			msg: func(t *testing.T, merchantID uuid.UUID) PubSubMessage {
				return checkinMessage(t, service.CheckinEvent{MerchantID: merchantID.String()}, "campaign.updated")
			},
			status: http.StatusOK,
		},
		{
			name: "invalid merchant id is dropped",
			msg: func(t *testing.T, _ uuid.UUID) PubSubMessage {
				return checkinMessage(t, service.CheckinEvent{MerchantID: "not-a-uuid"}, constants.CheckinRecordedEvent)
			},
			status: http.StatusOK,
		},
		{
			name: "undecodable data is rejected",
			msg: func(_ *testing.T, _ uuid.UUID) PubSubMessage {
				var msg PubSubMessage
				msg.Message.Data = "%%%"

				return msg
			},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPushFixture(t)

			assert.Equal(t, tt.status, f.push(t, tt.msg(t, f.merchantID)))

			_, ok, err := f.cache.GetMerchantCampaigns(context.Background(), f.merchantID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestNewPushHandler_VerifiesOnlyGooglePushOutsideDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		provider string
		verify   bool
	}{
		{name: "local provider", env: "production", provider: constants.PubSubProviderLocal},
		{name: "google in develop", env: constants.EnvDevelop, provider: constants.PubSubProviderGoogle},
		{name: "google in production", env: "production", provider: constants.PubSubProviderGoogle, verify: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{PubSub: &config.PubSubConfig{Provider: tt.provider}}
			cfg.Env.Env = tt.env

			h := NewPushHandler(PushHandlerParams{Config: cfg, Logger: slog.Default()})

			assert.Equal(t, tt.verify, h.verify != nil)
		})
	}
}
