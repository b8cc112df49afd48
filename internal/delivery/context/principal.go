package context

import (
	"loyalty/internal/domain/entity"

	"github.com/labstack/echo/v4"
)

// KeyPrincipal is the echo.Context key of the authenticated principal.
const KeyPrincipal ContextKey = "principal"

// SetPrincipal stores the principal resolved by the auth gate.
func SetPrincipal(c echo.Context, principal entity.Principal) {
	c.Set(string(KeyPrincipal), principal)
}

// GetPrincipal returns the principal of an authenticated request.
// The second result is false on routes outside the auth gate.
func GetPrincipal(c echo.Context) (entity.Principal, bool) {
	principal, ok := c.Get(string(KeyPrincipal)).(entity.Principal)

	return principal, ok
}
