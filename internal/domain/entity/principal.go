package entity

import "github.com/google/uuid"

// Principal is the authenticated identity a business operation runs under.
// It is resolved once per request and passed explicitly to every use case.
type Principal struct {
	UserID     uuid.UUID
	Role       Role
	MerchantID *uuid.UUID // Set for merchants.
	StoreID    *uuid.UUID // Optional store the principal is bound to.
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanManageMerchant reports whether the principal may mutate data owned by merchantID.
func (p Principal) CanManageMerchant(merchantID uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}

	return p.Role == RoleMerchant && p.MerchantID != nil && *p.MerchantID == merchantID
}
