// Package model holds the GORM persistence models. They mirror the database schema and never leave the persistence layer.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table.
type UserModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Username     string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	Email        string     `gorm:"type:varchar(255);not null"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Role         string     `gorm:"type:varchar(20);not null;index"`
	Status       string     `gorm:"type:varchar(20);not null;default:active"`
	TrialID      *uuid.UUID `gorm:"type:uuid"`
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// MerchantModel mirrors the 'merchants' table. UserID references users.id (1:1).
type MerchantModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User          UserModel `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	BusinessName  string    `gorm:"type:varchar(100);not null"`
	ContactPerson string    `gorm:"type:varchar(100)"`
	Phone         string    `gorm:"type:varchar(30)"`
	Status        string    `gorm:"type:varchar(20);not null;default:active"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (MerchantModel) TableName() string {
	return "merchants"
}

// StoreModel mirrors the 'stores' table.
type StoreModel struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MerchantID uuid.UUID     `gorm:"type:uuid;not null;index"`
	Merchant   MerchantModel `gorm:"foreignKey:MerchantID;constraint:OnDelete:RESTRICT"`
	Name       string        `gorm:"type:varchar(100);not null"`
	Address    string        `gorm:"type:text"`
	Phone      string        `gorm:"type:varchar(30)"`
	Status     string        `gorm:"type:varchar(20);not null;default:active;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (StoreModel) TableName() string {
	return "stores"
}
