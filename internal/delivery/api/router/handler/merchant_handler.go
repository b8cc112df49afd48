package handler

import (
	"log/slog"

	"loyalty/internal/delivery/api/response"
	"loyalty/internal/domain/entity"
	"loyalty/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// MerchantHandlerParams holds dependencies for MerchantHandler, injected by Fx.
type MerchantHandlerParams struct {
	fx.In

	MerchantUC usecase.MerchantUsecase
	Logger     *slog.Logger
}

// MerchantHandler serves merchants and their stores.
type MerchantHandler struct {
	merchantUC usecase.MerchantUsecase
	logger     *slog.Logger
}

// NewMerchantHandler is the constructor for MerchantHandler
func NewMerchantHandler(params MerchantHandlerParams) *MerchantHandler {
	return &MerchantHandler{
		merchantUC: params.MerchantUC,
		logger:     params.Logger,
	}
}

// CreateStoreRequest is the body of POST /api/v1/stores.
type CreateStoreRequest struct {
	MerchantID string `json:"merchant_id" validate:"omitempty,uuid"`
	Name       string `json:"name" validate:"required,max=100"`
	Address    string `json:"address" validate:"max=255"`
	Phone      string `json:"phone" validate:"max=30"`
}

// UpdateStoreRequest is the body of PATCH /api/v1/stores/:id.
type UpdateStoreRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=100"`
	Address *string `json:"address" validate:"omitempty,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Status  *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateMerchantRequest is the body of PATCH /api/v1/merchants/:id.
type UpdateMerchantRequest struct {
	BusinessName  *string `json:"business_name" validate:"omitempty,min=1,max=100"`
	ContactPerson *string `json:"contact_person" validate:"omitempty,max=100"`
	Phone         *string `json:"phone" validate:"omitempty,max=30"`
	Status        *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type listStoresQuery struct {
	PageQuery
	MerchantID string `query:"merchant_id" validate:"omitempty,uuid"`
	Status     string `query:"status" validate:"omitempty,oneof=active inactive"`
}

// GetMerchant returns one merchant.
func (h *MerchantHandler) GetMerchant(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	merchant, err := h.merchantUC.GetMerchant(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}

	return response.OK(c, merchant)
}

// ListMerchants is the admin merchant list.
func (h *MerchantHandler) ListMerchants(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query PageQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	list, err := h.merchantUC.ListMerchants(c.Request().Context(), principal, query.Page, query.PageSize)
	if err != nil {
		return err
	}

	return renderPage(c, list.Merchants, query, list.Total)
}

// UpdateMerchant patches a merchant profile.
func (h *MerchantHandler) UpdateMerchant(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateMerchantRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	input := &usecase.UpdateMerchantInput{
		BusinessName:  req.BusinessName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
	}
	if req.Status != nil {
		input.Status = optionalEnum[entity.MerchantStatus](*req.Status)
	}

	merchant, err := h.merchantUC.UpdateMerchant(c.Request().Context(), principal, id, input)
	if err != nil {
		return err
	}

	return response.OK(c, merchant)
}

// DeleteMerchant removes a merchant with everything it owns.
func (h *MerchantHandler) DeleteMerchant(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.merchantUC.DeleteMerchant(c.Request().Context(), principal, id); err != nil {
		return err
	}
	h.logger.WarnContext(c.Request().Context(), "Merchant deleted",
		slog.String("merchant_id", id.String()),
		slog.String("admin_id", principal.UserID.String()),
	)

	return response.NoContent(c)
}

// CreateStore opens a store.
func (h *MerchantHandler) CreateStore(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req CreateStoreRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	store, err := h.merchantUC.CreateStore(c.Request().Context(), principal, &usecase.CreateStoreInput{
		MerchantID: optionalID(req.MerchantID),
		Name:       req.Name,
		Address:    req.Address,
		Phone:      req.Phone,
	})
	if err != nil {
		return err
	}

	return response.Created(c, store)
}

// UpdateStore patches a store.
func (h *MerchantHandler) UpdateStore(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateStoreRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	input := &usecase.UpdateStoreInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	}
	if req.Status != nil {
		input.Status = optionalEnum[entity.StoreStatus](*req.Status)
	}

	store, err := h.merchantUC.UpdateStore(c.Request().Context(), principal, id, input)
	if err != nil {
		return err
	}

	return response.OK(c, store)
}

// ListStores returns the stores visible to the caller.
func (h *MerchantHandler) ListStores(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query listStoresQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	list, err := h.merchantUC.ListStores(c.Request().Context(), principal, &usecase.ListStoresInput{
		MerchantID: optionalID(query.MerchantID),
		Status:     optionalEnum[entity.StoreStatus](query.Status),
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		return err
	}

	return renderPage(c, list.Stores, query.PageQuery, list.Total)
}
