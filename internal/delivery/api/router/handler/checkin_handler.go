package handler

import (
	"log/slog"

	"loyalty/internal/delivery/api/response"
	"loyalty/internal/domain/entity"
	"loyalty/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/paulmach/orb"
	"go.uber.org/fx"
)

// CheckinHandlerParams holds dependencies for CheckinHandler, injected by Fx.
type CheckinHandlerParams struct {
	fx.In

	CheckinUC usecase.CheckinUsecase
	Logger    *slog.Logger
}

// CheckinHandler serves check-ins.
type CheckinHandler struct {
	checkinUC usecase.CheckinUsecase
	logger    *slog.Logger
}

// NewCheckinHandler is the constructor for CheckinHandler
func NewCheckinHandler(params CheckinHandlerParams) *CheckinHandler {
	return &CheckinHandler{
		checkinUC: params.CheckinUC,
		logger:    params.Logger,
	}
}

// LocationRequest is a WGS84 coordinate.
type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

func (l *LocationRequest) point() *orb.Point {
	if l == nil {
		return nil
	}

	return &orb.Point{*l.Longitude, *l.Latitude}
}

// PerformCheckinRequest is the body of POST /api/v1/checkins.
type PerformCheckinRequest struct {
	StoreID    string           `json:"store_id" validate:"required,uuid"`
	CampaignID string           `json:"campaign_id" validate:"omitempty,uuid"`
	QRCodeID   string           `json:"qr_code_id" validate:"omitempty,uuid"`
	QRContent  string           `json:"qr_content" validate:"max=512"`
	Location   *LocationRequest `json:"location"`
}

// CorrectCheckinRequest is the body of PATCH /api/v1/checkins/:id.
type CorrectCheckinRequest struct {
	Status       string `json:"status" validate:"omitempty,oneof=valid invalid pending"`
	PointsEarned *int   `json:"points_earned" validate:"omitempty,min=0"`
}

type listCheckinsQuery struct {
	PageQuery
	UserID     string `query:"user_id" validate:"omitempty,uuid"`
	StoreID    string `query:"store_id" validate:"omitempty,uuid"`
	CampaignID string `query:"campaign_id" validate:"omitempty,uuid"`
	Status     string `query:"status" validate:"omitempty,oneof=valid invalid pending"`
	From       string `query:"from"`
	To         string `query:"to"`
}

// Perform records a check-in for the caller.
func (h *CheckinHandler) Perform(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req PerformCheckinRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	checkin, err := h.checkinUC.PerformCheckin(c.Request().Context(), principal, &usecase.PerformCheckinInput{
		StoreID:    *optionalID(req.StoreID),
		CampaignID: optionalID(req.CampaignID),
		QRCodeID:   optionalID(req.QRCodeID),
		QRContent:  req.QRContent,
		Location:   req.Location.point(),
	})
	if err != nil {
		return err
	}

	return response.Created(c, checkin)
}

// Get returns one check-in.
func (h *CheckinHandler) Get(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	checkin, err := h.checkinUC.GetCheckin(c.Request().Context(), principal, id)
	if err != nil {
		return err
	}

	return response.OK(c, checkin)
}

// List returns the caller's history, or any check-ins for admins.
func (h *CheckinHandler) List(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query listCheckinsQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}
	from, err := optionalTime(query.From)
	if err != nil {
		return err
	}
	to, err := optionalTime(query.To)
	if err != nil {
		return err
	}

	list, err := h.checkinUC.ListCheckins(c.Request().Context(), principal, &usecase.ListCheckinsInput{
		UserID:     optionalID(query.UserID),
		StoreID:    optionalID(query.StoreID),
		CampaignID: optionalID(query.CampaignID),
		Status:     optionalEnum[entity.CheckinStatus](query.Status),
		From:       from,
		To:         to,
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		return err
	}

	return renderPage(c, list.Checkins, query.PageQuery, list.Total)
}

// Correct applies an admin status or points correction.
func (h *CheckinHandler) Correct(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req CorrectCheckinRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	checkin, err := h.checkinUC.CorrectCheckin(c.Request().Context(), principal, id, &usecase.CorrectCheckinInput{
		Status:       optionalEnum[entity.CheckinStatus](req.Status),
		PointsEarned: req.PointsEarned,
	})
	if err != nil {
		return err
	}
	h.logger.InfoContext(c.Request().Context(), "Check-in corrected",
		slog.String("checkin_id", id.String()),
		slog.String("admin_id", principal.UserID.String()),
	)

	return response.OK(c, checkin)
}
