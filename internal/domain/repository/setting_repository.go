package repository

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// SettingFilter narrows setting lists. Nil fields match everything.
type SettingFilter struct {
	Key        *string
	MerchantID *uuid.UUID
	StoreID    *uuid.UUID
}

// SettingRepository defines persistence operations for settings.
type SettingRepository interface {
	List(ctx context.Context, filter SettingFilter) ([]*entity.Setting, error)

	// Upsert creates or replaces the entry with the same key and scope.
	Upsert(ctx context.Context, setting *entity.Setting) error

	Delete(ctx context.Context, id uuid.UUID) error
}
