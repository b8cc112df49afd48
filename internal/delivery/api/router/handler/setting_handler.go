package handler

import (
	"log/slog"

	"loyalty/internal/delivery/api/response"
	"loyalty/internal/domain/entity"
	"loyalty/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// SettingHandlerParams holds dependencies for SettingHandler, injected by Fx.
type SettingHandlerParams struct {
	fx.In

	SettingUC usecase.SettingUsecase
	Logger    *slog.Logger
}

// SettingHandler serves scoped configuration values.
type SettingHandler struct {
	settingUC usecase.SettingUsecase
	logger    *slog.Logger
}

// NewSettingHandler is the constructor for SettingHandler
func NewSettingHandler(params SettingHandlerParams) *SettingHandler {
	return &SettingHandler{
		settingUC: params.SettingUC,
		logger:    params.Logger,
	}
}

// UpsertSettingRequest is the body of PUT /api/v1/settings.
type UpsertSettingRequest struct {
	Key         string `json:"key" validate:"required,max=100"`
	Value       string `json:"value" validate:"max=10000"`
	Type        string `json:"type" validate:"required,oneof=string number boolean json"`
	Description string `json:"description" validate:"max=500"`
	MerchantID  string `json:"merchant_id" validate:"omitempty,uuid"`
	StoreID     string `json:"store_id" validate:"omitempty,uuid,excluded_with=MerchantID"`
}

type listSettingsQuery struct {
	Key        string `query:"key" validate:"omitempty,max=100"`
	MerchantID string `query:"merchant_id" validate:"omitempty,uuid"`
	StoreID    string `query:"store_id" validate:"omitempty,uuid"`
}

type effectiveSettingQuery struct {
	Key        string `query:"key" validate:"required,max=100"`
	MerchantID string `query:"merchant_id" validate:"omitempty,uuid"`
	StoreID    string `query:"store_id" validate:"omitempty,uuid"`
}

// Upsert creates or replaces a setting in its scope.
func (h *SettingHandler) Upsert(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req UpsertSettingRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	setting, err := h.settingUC.UpsertSetting(c.Request().Context(), principal, &usecase.UpsertSettingInput{
		Key:         req.Key,
		Value:       req.Value,
		Type:        entity.SettingType(req.Type),
		Description: req.Description,
		MerchantID:  optionalID(req.MerchantID),
		StoreID:     optionalID(req.StoreID),
	})
	if err != nil {
		return err
	}

	return response.OK(c, setting)
}

// List returns settings matching the filters.
func (h *SettingHandler) List(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query listSettingsQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	settings, err := h.settingUC.ListSettings(c.Request().Context(), principal, &usecase.ListSettingsInput{
		Key:        optionalString(query.Key),
		MerchantID: optionalID(query.MerchantID),
		StoreID:    optionalID(query.StoreID),
	})
	if err != nil {
		return err
	}

	return response.OK(c, settings)
}

// Effective resolves a key through the store, merchant and global scopes.
func (h *SettingHandler) Effective(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query effectiveSettingQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	setting, err := h.settingUC.GetEffectiveSetting(c.Request().Context(), principal, query.Key,
		optionalID(query.StoreID), optionalID(query.MerchantID))
	if err != nil {
		return err
	}

	return response.OK(c, setting)
}

// Delete removes a setting.
func (h *SettingHandler) Delete(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.settingUC.DeleteSetting(c.Request().Context(), principal, id); err != nil {
		return err
	}

	return response.NoContent(c)
}
