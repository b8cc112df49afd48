package entity

import (
	"time"

	"github.com/google/uuid"
)

// MerchantStatus is the state of a merchant profile.
type MerchantStatus string

const (
	MerchantStatusActive   MerchantStatus = "active"
	MerchantStatusInactive MerchantStatus = "inactive"
)

func (s MerchantStatus) IsValid() bool {
	return s == MerchantStatusActive || s == MerchantStatusInactive
}

// Merchant is the business profile owned by exactly one user with the merchant role.
type Merchant struct {
	ID            uuid.UUID      `json:"id"`
	UserID        uuid.UUID      `json:"user_id"` // Owner account (1:1).
	BusinessName  string         `json:"business_name"`
	ContactPerson string         `json:"contact_person"`
	Phone         string         `json:"phone"`
	Status        MerchantStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
