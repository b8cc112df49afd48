package impl

import (
	"context"
	"slices"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// requireRole fails with ErrForbidden unless the principal has one of roles.
func requireRole(principal entity.Principal, roles ...entity.Role) error {
	if slices.Contains(roles, principal.Role) {
		return nil
	}

	return domainerrors.ErrForbidden.WithDetails("role " + principal.Role.String() + " is not allowed")
}

// requireMerchantAccess fails with ErrForbidden unless the principal is an admin or the merchant's owner.
func requireMerchantAccess(principal entity.Principal, merchantID uuid.UUID) error {
	if principal.CanManageMerchant(merchantID) {
		return nil
	}

	return domainerrors.ErrForbidden.WithDetails("merchant is not managed by caller")
}

// targetMerchantID resolves the merchant a write applies to.
// Merchants always act on their own merchant; admins must name one.
func targetMerchantID(principal entity.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	switch {
	case principal.IsAdmin():
		if requested == nil || *requested == uuid.Nil {
			return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails("merchant_id is required")
		}

		return *requested, nil
	case principal.Role == entity.RoleMerchant && principal.MerchantID != nil:
		if requested != nil && *requested != *principal.MerchantID {
			return uuid.Nil, domainerrors.ErrForbidden.WithDetails("merchant is not managed by caller")
		}

		return *principal.MerchantID, nil
	default:
		return uuid.Nil, domainerrors.ErrForbidden.WithDetails("caller has no merchant profile")
	}
}

// pageOf applies a page to an already filtered and ordered slice.
func pageOf[T any](items []T, page repository.Pagination) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}

	return items
}

// managedStore loads a store and checks that the principal may manage its merchant.
func managedStore(ctx context.Context, storeRepo repository.StoreRepository, principal entity.Principal, storeID uuid.UUID) (*entity.Store, error) {
	store, err := storeRepo.FindByID(ctx, storeID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find store")
	}
	if err := requireMerchantAccess(principal, store.MerchantID); err != nil {
		return nil, err
	}

	return store, nil
}

// ensureActiveUser fails with ErrUserInactive for deactivated accounts and ErrUnauthenticated for removed ones.
func ensureActiveUser(ctx context.Context, userRepo repository.UserRepository, userID uuid.UUID) error {
	user, err := userRepo.FindByID(ctx, userID)
	if errors.Is(err, domainerrors.ErrUserNotFound) {
		return domainerrors.ErrUnauthenticated.WithDetails("account no longer exists")
	}
	if err != nil {
		return errors.Wrap(err, "failed to find user")
	}
	if !user.IsActive() {
		return domainerrors.ErrUserInactive
	}

	return nil
}
