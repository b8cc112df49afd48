package model

import (
	"time"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CampaignModel mirrors the 'campaigns' table. Rules, rewards, audience and metrics are stored as JSONB.
type CampaignModel struct {
	ID             uuid.UUID                                  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MerchantID     uuid.UUID                                  `gorm:"type:uuid;not null;index:idx_campaigns_merchant_status"`
	StoreID        *uuid.UUID                                 `gorm:"type:uuid;index"`
	CreatedBy      uuid.UUID                                  `gorm:"type:uuid;not null"`
	Name           string                                     `gorm:"type:varchar(100);not null"`
	Description    string                                     `gorm:"type:text"`
	Type           string                                     `gorm:"type:varchar(20);not null"`
	StartDate      time.Time                                  `gorm:"not null"`
	EndDate        time.Time                                  `gorm:"not null"`
	Timezone       string                                     `gorm:"type:varchar(64)"`
	Status         string                                     `gorm:"type:varchar(20);not null;default:draft;index:idx_campaigns_merchant_status"`
	Rules          datatypes.JSONType[entity.CampaignRules]   `gorm:"type:jsonb;not null"`
	Rewards        datatypes.JSONType[entity.CampaignRewards] `gorm:"type:jsonb;not null"`
	TargetAudience datatypes.JSON                             `gorm:"type:jsonb"`
	Budget         decimal.NullDecimal                        `gorm:"type:numeric(12,2)"`
	Spent          decimal.Decimal                            `gorm:"type:numeric(12,2);not null;default:0"`
	Metrics        datatypes.JSON                             `gorm:"type:jsonb"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName explicitly sets the table name for GORM.
func (CampaignModel) TableName() string {
	return "campaigns"
}

// QRCodeModel mirrors the 'qr_codes' table.
type QRCodeModel struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	StoreID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	CreatedBy  uuid.UUID      `gorm:"type:uuid;not null"`
	Type       string         `gorm:"type:varchar(20);not null"`
	Content    string         `gorm:"type:varchar(255);uniqueIndex;not null"`
	Status     string         `gorm:"type:varchar(20);not null;default:active"`
	ExpiresAt  *time.Time
	ScanLimit  *int
	ScanCount  int            `gorm:"not null;default:0"`
	CampaignID *uuid.UUID     `gorm:"type:uuid;index"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (QRCodeModel) TableName() string {
	return "qr_codes"
}
