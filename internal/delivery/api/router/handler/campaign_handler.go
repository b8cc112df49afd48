package handler

import (
	"log/slog"
	"time"

	"loyalty/internal/delivery/api/response"
	"loyalty/internal/domain/entity"
	"loyalty/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// CampaignHandlerParams holds dependencies for CampaignHandler, injected by Fx.
type CampaignHandlerParams struct {
	fx.In

	CampaignUC usecase.CampaignUsecase
	Logger     *slog.Logger
}

// CampaignHandler serves the campaign lifecycle.
type CampaignHandler struct {
	campaignUC usecase.CampaignUsecase
	logger     *slog.Logger
}

// NewCampaignHandler is the constructor for CampaignHandler
func NewCampaignHandler(params CampaignHandlerParams) *CampaignHandler {
	return &CampaignHandler{
		campaignUC: params.CampaignUC,
		logger:     params.Logger,
	}
}

// CreateCampaignRequest is the body of POST /api/v1/campaigns.
// MerchantID is only read for admins; merchants always create under their own account.
type CreateCampaignRequest struct {
	MerchantID     string                  `json:"merchant_id" validate:"omitempty,uuid"`
	StoreID        string                  `json:"store_id" validate:"omitempty,uuid"`
	Name           string                  `json:"name" validate:"required,max=200"`
	Description    string                  `json:"description" validate:"max=2000"`
	Type           string                  `json:"type" validate:"required,oneof=points discount gift trial other"`
	StartDate      time.Time               `json:"start_date" validate:"required"`
	EndDate        time.Time               `json:"end_date" validate:"required"`
	Timezone       string                  `json:"timezone" validate:"omitempty,timezone"`
	Rules          entity.CampaignRules    `json:"rules"`
	Rewards        entity.CampaignRewards  `json:"rewards"`
	TargetAudience *entity.TargetAudience  `json:"target_audience"`
	Budget         *decimal.Decimal        `json:"budget"`
}

// UpdateCampaignRequest is the body of PATCH /api/v1/campaigns/:id. Absent fields are left unchanged.
type UpdateCampaignRequest struct {
	Name           *string                 `json:"name" validate:"omitempty,max=200"`
	Description    *string                 `json:"description" validate:"omitempty,max=2000"`
	Type           *string                 `json:"type" validate:"omitempty,oneof=points discount gift trial other"`
	StartDate      *time.Time              `json:"start_date"`
	EndDate        *time.Time              `json:"end_date"`
	Rules          *entity.CampaignRules   `json:"rules"`
	Rewards        *entity.CampaignRewards `json:"rewards"`
	TargetAudience *entity.TargetAudience  `json:"target_audience"`
	Budget         *decimal.Decimal        `json:"budget"`
}

func (r *UpdateCampaignRequest) patch() entity.CampaignPatch {
	patch := entity.CampaignPatch{
		Name:           r.Name,
		Description:    r.Description,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		Rules:          r.Rules,
		Rewards:        r.Rewards,
		TargetAudience: r.TargetAudience,
		Budget:         r.Budget,
	}
	if r.Type != nil {
		patch.Type = optionalEnum[entity.CampaignType](*r.Type)
	}

	return patch
}

// TransitionCampaignRequest is the body of POST /api/v1/campaigns/:id/status.
type TransitionCampaignRequest struct {
	Status string `json:"status" validate:"required,oneof=draft active paused completed cancelled"`
}

type listCampaignsQuery struct {
	PageQuery
	MerchantID string `query:"merchant_id" validate:"omitempty,uuid"`
	StoreID    string `query:"store_id" validate:"omitempty,uuid"`
	Status     string `query:"status" validate:"omitempty,oneof=draft active paused completed cancelled"`
	Type       string `query:"type" validate:"omitempty,oneof=points discount gift trial other"`
}

// Create creates a draft campaign.
func (h *CampaignHandler) Create(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req CreateCampaignRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	campaign, err := h.campaignUC.CreateCampaign(c.Request().Context(), principal, &usecase.CreateCampaignInput{
		MerchantID:     optionalID(req.MerchantID),
		StoreID:        optionalID(req.StoreID),
		Name:           req.Name,
		Description:    req.Description,
		Type:           entity.CampaignType(req.Type),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Timezone:       req.Timezone,
		Rules:          req.Rules,
		Rewards:        req.Rewards,
		TargetAudience: req.TargetAudience,
		Budget:         req.Budget,
	})
	if err != nil {
		return err
	}

	return response.Created(c, campaign)
}

// CampaignDetailResponse is a campaign with its QR codes.
type CampaignDetailResponse struct {
	*entity.Campaign
	QRCodes []*entity.QRCode `json:"qr_codes"`
}

// Get returns a campaign with its metrics and QR codes.
func (h *CampaignHandler) Get(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.campaignUC.GetCampaign(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}

	return response.OK(c, CampaignDetailResponse{Campaign: detail.Campaign, QRCodes: detail.QRCodes})
}

// List returns the campaigns visible to the caller.
func (h *CampaignHandler) List(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query listCampaignsQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	list, err := h.campaignUC.ListCampaigns(c.Request().Context(), principal, &usecase.ListCampaignsInput{
		MerchantID: optionalID(query.MerchantID),
		StoreID:    optionalID(query.StoreID),
		Status:     optionalEnum[entity.CampaignStatus](query.Status),
		Type:       optionalEnum[entity.CampaignType](query.Type),
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		return err
	}

	return renderPage(c, list.Campaigns, query.PageQuery, list.Total)
}

// Update patches a campaign.
func (h *CampaignHandler) Update(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateCampaignRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	campaign, err := h.campaignUC.UpdateCampaign(c.Request().Context(), principal, id, req.patch())
	if err != nil {
		return err
	}

	return response.OK(c, campaign)
}

// Delete removes a draft campaign.
func (h *CampaignHandler) Delete(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.campaignUC.DeleteCampaign(c.Request().Context(), principal, id); err != nil {
		return err
	}

	return response.NoContent(c)
}

// Transition moves a campaign to another status.
func (h *CampaignHandler) Transition(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req TransitionCampaignRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	campaign, err := h.campaignUC.TransitionCampaignStatus(c.Request().Context(), principal, id, entity.CampaignStatus(req.Status))
	if err != nil {
		return err
	}
	h.logger.InfoContext(c.Request().Context(), "Campaign status changed",
		slog.String("campaign_id", id.String()),
		slog.String("status", req.Status),
	)

	return response.OK(c, campaign)
}

// Analytics returns the campaign's metrics.
func (h *CampaignHandler) Analytics(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	metrics, err := h.campaignUC.GetCampaignAnalytics(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}

	return response.OK(c, metrics)
}
