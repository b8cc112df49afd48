package handler

import (
	"log/slog"
	"time"

	"loyalty/internal/delivery/api/response"
	"loyalty/internal/domain/entity"
	"loyalty/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// QRCodeHandlerParams holds dependencies for QRCodeHandler, injected by Fx.
type QRCodeHandlerParams struct {
	fx.In

	QRCodeUC usecase.QRCodeUsecase
	Logger   *slog.Logger
}

// QRCodeHandler serves QR code issuance and lookup.
type QRCodeHandler struct {
	qrCodeUC usecase.QRCodeUsecase
	logger   *slog.Logger
}

// NewQRCodeHandler is the constructor for QRCodeHandler
func NewQRCodeHandler(params QRCodeHandlerParams) *QRCodeHandler {
	return &QRCodeHandler{
		qrCodeUC: params.QRCodeUC,
		logger:   params.Logger,
	}
}

// CreateQRCodeRequest is the body of POST /api/v1/qrcodes.
type CreateQRCodeRequest struct {
	StoreID    string         `json:"store_id" validate:"required,uuid"`
	Type       string         `json:"type" validate:"required,oneof=store campaign trial"`
	CampaignID string         `json:"campaign_id" validate:"required_if=Type campaign,omitempty,uuid"`
	ExpiresAt  *time.Time     `json:"expires_at"`
	ScanLimit  *int           `json:"scan_limit" validate:"omitempty,min=1"`
	Metadata   map[string]any `json:"metadata"`
}

type listQRCodesQuery struct {
	StoreID string `query:"store_id" validate:"required,uuid"`
}

type resolveQRCodeQuery struct {
	Content string `query:"content" validate:"required,max=512"`
}

// Create issues a QR code.
func (h *QRCodeHandler) Create(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req CreateQRCodeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	code, err := h.qrCodeUC.CreateQRCode(c.Request().Context(), principal, &usecase.CreateQRCodeInput{
		StoreID:    *optionalID(req.StoreID),
		Type:       entity.QRCodeType(req.Type),
		CampaignID: optionalID(req.CampaignID),
		ExpiresAt:  req.ExpiresAt,
		ScanLimit:  req.ScanLimit,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return err
	}

	return response.Created(c, code)
}

// List returns the QR codes of a store.
func (h *QRCodeHandler) List(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query listQRCodesQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	codes, err := h.qrCodeUC.ListQRCodes(c.Request().Context(), principal, *optionalID(query.StoreID))
	if err != nil {
		return err
	}

	return response.OK(c, codes)
}

// Image renders a QR code as PNG.
func (h *QRCodeHandler) Image(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	image, err := h.qrCodeUC.GetQRCodeImage(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}

	return response.PNG(c, image)
}

// Resolve looks up a scanned payload.
func (h *QRCodeHandler) Resolve(c echo.Context) error {
	var query resolveQRCodeQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	code, err := h.qrCodeUC.ResolveQRCode(c.Request().Context(), query.Content)
	if err != nil {
		return err
	}

	return response.OK(c, code)
}

// Deactivate stops a QR code from accepting scans.
func (h *QRCodeHandler) Deactivate(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	code, err := h.qrCodeUC.DeactivateQRCode(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}

	return response.OK(c, code)
}
