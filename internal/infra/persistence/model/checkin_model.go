package model

import (
	"time"

	"github.com/google/uuid"
)

// CheckinModel mirrors the 'checkins' table. CheckinDate is the calendar day the daily uniqueness rule keys on;
// the partial unique index over it is created by the migration.
type CheckinModel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_checkins_user_store"`
	StoreID      uuid.UUID  `gorm:"type:uuid;not null;index:idx_checkins_user_store;index"`
	CampaignID   *uuid.UUID `gorm:"type:uuid;index"`
	QRCodeID     *uuid.UUID `gorm:"type:uuid"`
	CheckinTime  time.Time  `gorm:"not null;index"`
	CheckinDate  time.Time  `gorm:"type:date;not null"`
	PointsEarned int        `gorm:"not null;default:0"`
	Status       string     `gorm:"type:varchar(20);not null;default:valid"`
	Location     *string    `gorm:"type:text"` // WKT point
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (CheckinModel) TableName() string {
	return "checkins"
}

// SettingModel mirrors the 'settings' table. At most one of StoreID and MerchantID is set.
type SettingModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Key         string     `gorm:"type:varchar(100);not null;index"`
	Value       string     `gorm:"type:text;not null"`
	Type        string     `gorm:"type:varchar(20);not null"`
	Description string     `gorm:"type:text"`
	StoreID     *uuid.UUID `gorm:"type:uuid;index"`
	MerchantID  *uuid.UUID `gorm:"type:uuid;index"`
	UpdatedBy   uuid.UUID  `gorm:"type:uuid"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName explicitly sets the table name for GORM.
func (SettingModel) TableName() string {
	return "settings"
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&UserModel{},
		&MerchantModel{},
		&StoreModel{},
		&CampaignModel{},
		&QRCodeModel{},
		&CheckinModel{},
		&SettingModel{},
	}
}
