// Package entity contains the core business objects of the project.
package entity

// Role is the authorization class of an account.
type Role string

const (
	// RoleAdmin manages every merchant, store and campaign. Admin accounts are provisioned, never registered.
	RoleAdmin Role = "admin"
	// RoleMerchant owns one merchant profile and its stores.
	RoleMerchant Role = "merchant"
	// RoleUser is a customer who checks in at stores.
	RoleUser Role = "user"
)

func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMerchant, RoleUser:
		return true
	default:
		return false
	}
}

// SelfRegistrable reports whether an account of this role may be created through sign-up.
func (r Role) SelfRegistrable() bool {
	return r == RoleUser || r == RoleMerchant
}

// RequiresMerchantProfile reports whether accounts of this role are backed by a merchant row.
func (r Role) RequiresMerchantProfile() bool {
	return r == RoleMerchant
}
