package service

import (
	"time"

	"loyalty/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims for access tokens.
type Claims struct {
	Role       string `json:"role"`
	MerchantID string `json:"merchant_id,omitempty"`
	StoreID    string `json:"store_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and resolves bearer tokens.
type TokenService interface {
	// IssueToken signs an access token for the principal and returns it with its expiry.
	IssueToken(principal entity.Principal) (token string, expiresAt time.Time, err error)

	// ResolvePrincipal validates a token and returns the principal it was issued for.
	// Invalid or expired tokens return ErrUnauthenticated.
	ResolvePrincipal(tokenString string) (*entity.Principal, error)
}
