package entity

import (
	"time"

	"github.com/google/uuid"
)

// StoreStatus is the operating state of a store. Only active stores accept check-ins.
type StoreStatus string

const (
	StoreStatusActive   StoreStatus = "active"
	StoreStatusInactive StoreStatus = "inactive"
)

// IsValid checks if the status is a known value.
func (s StoreStatus) IsValid() bool {
	return s == StoreStatusActive || s == StoreStatusInactive
}

// Store is a physical location run by a merchant.
type Store struct {
	ID         uuid.UUID   `json:"id"`
	MerchantID uuid.UUID   `json:"merchant_id"`
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	Phone      string      `json:"phone"`
	Status     StoreStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// IsActive reports whether the store accepts check-ins.
func (s *Store) IsActive() bool {
	return s.Status == StoreStatusActive
}
