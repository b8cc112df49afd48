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

// UserHandlerParams holds dependencies for UserHandler, injected by Fx.
type UserHandlerParams struct {
	fx.In

	UserUC usecase.UserUsecase
	Logger *slog.Logger
}

// UserHandler serves registration, login and account administration.
type UserHandler struct {
	userUC usecase.UserUsecase
	logger *slog.Logger
}

// NewUserHandler is the constructor for UserHandler
func NewUserHandler(params UserHandlerParams) *UserHandler {
	return &UserHandler{
		userUC: params.UserUC,
		logger: params.Logger,
	}
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username      string `json:"username" validate:"required,min=3,max=50"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8,max=72"`
	Role          string `json:"role" validate:"required,oneof=user merchant"`
	BusinessName  string `json:"business_name" validate:"required_if=Role merchant,max=100"`
	ContactPerson string `json:"contact_person" validate:"max=100"`
	Phone         string `json:"phone" validate:"max=30"`
}

// LoginRequest is the body of POST /auth/login. Username may also hold an email address.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SetUserStatusRequest is the body of POST /api/v1/admin/users/:id/status.
type SetUserStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// UpdateProfileRequest is the body of PATCH /api/v1/me.
type UpdateProfileRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
}

// ChangePasswordRequest is the body of POST /api/v1/me/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// ResetPasswordRequest is the body of POST /api/v1/admin/users/:id/password.
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type listUsersQuery struct {
	PageQuery
	Role   string `query:"role" validate:"omitempty,oneof=admin merchant user"`
	Status string `query:"status" validate:"omitempty,oneof=active inactive"`
}

// AccountResponse is an account with its merchant profile, if any.
type AccountResponse struct {
	User     *entity.User     `json:"user"`
	Merchant *entity.Merchant `json:"merchant,omitempty"`
}

// LoginResponse carries the issued access token.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *entity.User `json:"user"`
}

// Register creates a customer or merchant account.
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	output, err := h.userUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		Role:          entity.Role(req.Role),
		BusinessName:  req.BusinessName,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
	})
	if err != nil {
		return err
	}

	return response.Created(c, AccountResponse{User: output.User, Merchant: output.Merchant})
}

// Login exchanges credentials for an access token.
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	output, err := h.userUC.Login(c.Request().Context(), &usecase.LoginInput{
		Identifier: req.Username,
		Password:   req.Password,
	})
	if err != nil {
		return err
	}

	return response.OK(c, LoginResponse{
		AccessToken: output.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   output.ExpiresAt,
		User:        output.User,
	})
}

// Me returns the caller's account.
func (h *UserHandler) Me(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	profile, err := h.userUC.GetProfile(c.Request().Context(), principal)
	if err != nil {
		return err
	}

	return response.OK(c, AccountResponse{User: profile.User, Merchant: profile.Merchant})
}

// ListUsers is the admin user list.
func (h *UserHandler) ListUsers(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query listUsersQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	users, err := h.userUC.ListUsers(c.Request().Context(), principal, &usecase.ListUsersInput{
		Role:     optionalEnum[entity.Role](query.Role),
		Status:   optionalEnum[entity.UserStatus](query.Status),
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return err
	}

	return renderPage(c, users.Users, query.PageQuery, users.Total)
}

// SetUserStatus activates or deactivates an account.
func (h *UserHandler) SetUserStatus(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req SetUserStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	user, err := h.userUC.SetUserStatus(c.Request().Context(), principal, userID, entity.UserStatus(req.Status))
	if err != nil {
		return err
	}
	h.logger.InfoContext(c.Request().Context(), "User status changed",
		slog.String("user_id", userID.String()),
		slog.String("status", req.Status),
	)

	return response.OK(c, user)
}

// UpdateMe patches the caller's own account.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req UpdateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	profile, err := h.userUC.UpdateProfile(c.Request().Context(), principal, &usecase.UpdateProfileInput{Email: req.Email})
	if err != nil {
		return err
	}

	return response.OK(c, AccountResponse{User: profile.User, Merchant: profile.Merchant})
}

// ChangePassword replaces the caller's password.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	err = h.userUC.ChangePassword(c.Request().Context(), principal, &usecase.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return err
	}

	return response.NoContent(c)
}

// ResetPassword sets a new password on another account.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req ResetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	if err := h.userUC.ResetPassword(c.Request().Context(), principal, userID, req.NewPassword); err != nil {
		return err
	}
	h.logger.WarnContext(c.Request().Context(), "Password reset by admin",
		slog.String("user_id", userID.String()),
		slog.String("admin_id", principal.UserID.String()),
	)

	return response.NoContent(c)
}
