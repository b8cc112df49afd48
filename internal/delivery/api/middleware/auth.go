package middleware

import (
	"slices"
	"strings"

	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const bearerPrefix = "Bearer "

// AuthMiddleware is the auth gate: it resolves the bearer token into a principal once per request
// and reloads the account so deactivation applies before the token expires.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	userRepo repository.UserRepository
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, userRepo: userRepo}
}

// Authenticate rejects requests without a valid access token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return domainerrors.ErrUnauthenticated.WithDetails("authorization header is missing")
		}

		tokenString, found := strings.CutPrefix(authHeader, bearerPrefix)
		if !found || tokenString == "" {
			return domainerrors.ErrUnauthenticated.WithDetails("authorization must be a bearer token")
		}

		principal, err := m.tokenSvc.ResolvePrincipal(tokenString)
		if err != nil {
			return err
		}

		user, err := m.userRepo.FindByID(c.Request().Context(), principal.UserID)
		if errors.Is(err, domainerrors.ErrUserNotFound) {
			return domainerrors.ErrUnauthenticated.WithDetails("account no longer exists")
		}
		if err != nil {
			return errors.Wrap(err, "failed to load account")
		}
		if !user.IsActive() {
			return domainerrors.ErrUserInactive
		}
		deliverycontext.SetPrincipal(c, *principal)

		return next(c)
	}
}

// RequireRole must run after Authenticate. It admits principals holding any of roles.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := deliverycontext.GetPrincipal(c)
			if !ok {
				return domainerrors.ErrUnauthenticated
			}
			if !slices.Contains(roles, principal.Role) {
				return domainerrors.ErrForbidden.WithDetails("role " + string(principal.Role) + " is not allowed")
			}

			return next(c)
		}
	}
}
