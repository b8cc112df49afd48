package entity

import (
	"encoding/json"
	"strconv"
	"time"

	domainerrors "loyalty/internal/domain/errors"

	"github.com/google/uuid"
)

// SettingKeyPointsPerCheckin is the fallback points amount for points campaigns without an explicit rule.
const SettingKeyPointsPerCheckin = "points_per_checkin"

// SettingType is the type a setting value must parse as.
type SettingType string

const (
	SettingTypeString  SettingType = "string"
	SettingTypeNumber  SettingType = "number"
	SettingTypeBoolean SettingType = "boolean"
	SettingTypeJSON    SettingType = "json"
)

// IsValid checks if the type is a known value.
func (t SettingType) IsValid() bool {
	switch t {
	case SettingTypeString, SettingTypeNumber, SettingTypeBoolean, SettingTypeJSON:
		return true
	default:
		return false
	}
}

// Setting is a key-value entry scoped globally, to a merchant, or to a store.
type Setting struct {
	ID          uuid.UUID   `json:"id"`
	Key         string      `json:"key"`
	Value       string      `json:"value"`
	Type        SettingType `json:"type"`
	Description string      `json:"description,omitempty"`
	StoreID     *uuid.UUID  `json:"store_id,omitempty"`
	MerchantID  *uuid.UUID  `json:"merchant_id,omitempty"`
	UpdatedBy   uuid.UUID   `json:"updated_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Validate checks the key and that the value parses as the declared type.
func (s *Setting) Validate() error {
	if s.Key == "" {
		return domainerrors.ErrValidationFailed.WithDetails("setting key is required")
	}
	if !s.Type.IsValid() {
		return domainerrors.ErrValidationFailed.WithDetails("unknown setting type " + string(s.Type))
	}

	switch s.Type {
	case SettingTypeNumber:
		if _, err := strconv.ParseFloat(s.Value, 64); err != nil {
			return domainerrors.ErrValidationFailed.WithDetails("value of " + s.Key + " is not a number")
		}
	case SettingTypeBoolean:
		if _, err := strconv.ParseBool(s.Value); err != nil {
			return domainerrors.ErrValidationFailed.WithDetails("value of " + s.Key + " is not a boolean")
		}
	case SettingTypeJSON:
		if !json.Valid([]byte(s.Value)) {
			return domainerrors.ErrValidationFailed.WithDetails("value of " + s.Key + " is not valid JSON")
		}
	}

	return nil
}

// IntValue parses a number setting as an integer, truncating any fraction.
func (s *Setting) IntValue() (int, bool) {
	if s == nil || s.Type != SettingTypeNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(s.Value, 64)
	if err != nil {
		return 0, false
	}

	return int(f), true
}

// EffectiveSetting picks the most specific entry for key: store, then merchant, then global.
func EffectiveSetting(settings []*Setting, key string, storeID, merchantID *uuid.UUID) *Setting {
	var storeLevel, merchantLevel, global *Setting
	for _, s := range settings {
		if s.Key != key {
			continue
		}
		switch {
		case s.StoreID != nil:
			if storeID != nil && *s.StoreID == *storeID {
				storeLevel = s
			}
		case s.MerchantID != nil:
			if merchantID != nil && *s.MerchantID == *merchantID {
				merchantLevel = s
			}
		default:
			global = s
		}
	}

	switch {
	case storeLevel != nil:
		return storeLevel
	case merchantLevel != nil:
		return merchantLevel
	default:
		return global
	}
}
