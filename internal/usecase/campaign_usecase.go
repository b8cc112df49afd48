package usecase

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCampaignInput defines the data required to create a campaign.
// MerchantID is required for admins; merchants always create for their own merchant.
type CreateCampaignInput struct {
	MerchantID     *uuid.UUID
	StoreID        *uuid.UUID
	Name           string
	Description    string
	Type           entity.CampaignType
	StartDate      time.Time
	EndDate        time.Time
	Timezone       string
	Rules          entity.CampaignRules
	Rewards        entity.CampaignRewards
	TargetAudience *entity.TargetAudience
	Budget         *decimal.Decimal
}

// ListCampaignsInput filters campaign lists.
type ListCampaignsInput struct {
	MerchantID *uuid.UUID
	StoreID    *uuid.UUID
	Status     *entity.CampaignStatus
	Type       *entity.CampaignType
	Page       int
	PageSize   int
}

// CampaignList is one page of campaigns.
type CampaignList struct {
	Campaigns []*entity.Campaign
	Total     int64
}

// CampaignDetail is a campaign with the QR codes bound to it.
type CampaignDetail struct {
	Campaign *entity.Campaign
	QRCodes  []*entity.QRCode
}

// CampaignUsecase defines the campaign lifecycle operations.
type CampaignUsecase interface {
	CreateCampaign(ctx context.Context, principal entity.Principal, input *CreateCampaignInput) (*entity.Campaign, error)
	GetCampaign(ctx context.Context, principal entity.Principal, id uuid.UUID) (*CampaignDetail, error)
	ListCampaigns(ctx context.Context, principal entity.Principal, input *ListCampaignsInput) (*CampaignList, error)
	UpdateCampaign(ctx context.Context, principal entity.Principal, id uuid.UUID, patch entity.CampaignPatch) (*entity.Campaign, error)
	DeleteCampaign(ctx context.Context, principal entity.Principal, id uuid.UUID) error
	TransitionCampaignStatus(ctx context.Context, principal entity.Principal, id uuid.UUID, target entity.CampaignStatus) (*entity.Campaign, error)

	// GetCampaignAnalytics recomputes the campaign's metrics and overwrites the stored snapshot.
	GetCampaignAnalytics(ctx context.Context, principal entity.Principal, id uuid.UUID) (*entity.CampaignMetrics, error)

	// WarmMerchantCampaigns reloads the merchant's cached campaign list. It backs the event worker.
	WarmMerchantCampaigns(ctx context.Context, merchantID uuid.UUID) error
}
