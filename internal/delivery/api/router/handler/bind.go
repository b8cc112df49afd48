// Package handler holds the echo handlers of the API. Handlers decode and validate input,
// pass the authenticated principal to a use case and render the result.
package handler

import (
	"encoding/json"
	"io"
	"time"

	"loyalty/internal/delivery/api/response"
	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// bindJSON decodes the body strictly, rejecting unknown fields and trailing data, then validates it.
func bindJSON(c echo.Context, dst any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domainerrors.ErrValidationFailed.WithDetails("request body is required")
		}

		return domainerrors.ErrValidationFailed.WithDetails("malformed request body: " + err.Error())
	}
	if decoder.More() {
		return domainerrors.ErrValidationFailed.WithDetails("request body must hold a single JSON object")
	}

	return c.Validate(dst)
}

// bindQuery binds query parameters into a struct with query tags and validates it.
func bindQuery(c echo.Context, dst any) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, dst); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("malformed query parameters")
	}

	return c.Validate(dst)
}

func principalFrom(c echo.Context) (entity.Principal, error) {
	principal, ok := deliverycontext.GetPrincipal(c)
	if !ok {
		return entity.Principal{}, domainerrors.ErrUnauthenticated
	}

	return principal, nil
}

func pathID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails(name + " must be a UUID")
	}

	return id, nil
}

// optionalID parses a validated, possibly empty UUID string.
func optionalID(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}

	return &id
}

func optionalString(raw string) *string {
	if raw == "" {
		return nil
	}

	return &raw
}

func optionalTime(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("time must be RFC 3339: " + raw)
	}

	return &t, nil
}

// optionalEnum converts a validated, possibly empty string to a pointer of a string enum.
func optionalEnum[T ~string](raw string) *T {
	if raw == "" {
		return nil
	}
	value := T(raw)

	return &value
}

// PageQuery carries the 1-based page parameters shared by list endpoints.
type PageQuery struct {
	Page     int `query:"page" validate:"omitempty,min=1"`
	PageSize int `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// renderPage echoes the effective page parameters, after defaults and caps, with the total.
func renderPage(c echo.Context, data any, query PageQuery, total int64) error {
	page := repository.NewPagination(query.Page, query.PageSize)

	return response.Page(c, data, page.Offset/page.Limit+1, page.Limit, total)
}
