// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/domain/service"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const minPasswordLength = 8

// userService implements the UserUsecase interface.
type userService struct {
	txManager    repository.TransactionManager
	userRepo     repository.UserRepository
	merchantRepo repository.MerchantRepository
	hasher       service.PasswordHasher
	tokenService service.TokenService
	logger       *slog.Logger
	now          func() time.Time
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	UserRepo     repository.UserRepository
	MerchantRepo repository.MerchantRepository
	Hasher       service.PasswordHasher
	TokenService service.TokenService
	Logger       *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		txManager:    params.TxManager,
		userRepo:     params.UserRepo,
		merchantRepo: params.MerchantRepo,
		hasher:       params.Hasher,
		tokenService: params.TokenService,
		logger:       params.Logger,
		now:          time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a user or merchant account. A merchant account gets its merchant profile in the same transaction.
func (srv *userService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Starting registration", slog.Any("role", input.Role), slog.String("username", input.Username))

	hashedPassword, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed
	}

	user := &entity.User{
		Username:     strings.TrimSpace(input.Username),
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hashedPassword,
		Role:         input.Role,
		Status:       entity.UserStatusActive,
	}

	var merchant *entity.Merchant
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.UserRepo().Create(ctx, user); err != nil {
			return errors.Wrap(err, "failed to create user")
		}
		if !input.Role.RequiresMerchantProfile() {
			return nil
		}

		merchant = &entity.Merchant{
			UserID:        user.ID,
			BusinessName:  strings.TrimSpace(input.BusinessName),
			ContactPerson: input.ContactPerson,
			Phone:         input.Phone,
			Status:        entity.MerchantStatusActive,
		}
		if err := repoFactory.MerchantRepo().Create(ctx, merchant); err != nil {
			return errors.Wrap(err, "failed to create merchant profile")
		}

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Registration failed", slog.String("username", input.Username), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("role", user.Role), slog.Any("userID", user.ID))

	return &usecase.RegisterOutput{User: user, Merchant: merchant}, nil
}

func validateRegistration(input *usecase.RegisterInput) error {
	switch {
	case strings.TrimSpace(input.Username) == "":
		return domainerrors.ErrValidationFailed.WithDetails("username is required")
	case !strings.Contains(input.Email, "@"):
		return domainerrors.ErrValidationFailed.WithDetails("email is invalid")
	case len(input.Password) < minPasswordLength:
		return domainerrors.ErrValidationFailed.WithDetails("password is too short")
	}

	if !input.Role.SelfRegistrable() {
		return domainerrors.ErrValidationFailed.WithDetails("role must be user or merchant")
	}
	if input.Role.RequiresMerchantProfile() && strings.TrimSpace(input.BusinessName) == "" {
		return domainerrors.ErrValidationFailed.WithDetails("business_name is required for merchants")
	}

	return nil
}

// Login authenticates by username or email and issues an access token.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	user, err := srv.findByIdentifier(ctx, strings.TrimSpace(input.Identifier))
	if errors.Is(err, domainerrors.ErrUserNotFound) {
		srv.log(ctx).Warn("Login attempt for unknown account", slog.String("identifier", input.Identifier))

		return nil, domainerrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Invalid password", slog.Any("userID", user.ID))

		return nil, domainerrors.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, domainerrors.ErrUserInactive
	}

	srv.upgradePasswordHash(ctx, user, input.Password)

	principal := entity.Principal{UserID: user.ID, Role: user.Role}
	if user.Role.RequiresMerchantProfile() {
		merchant, err := srv.merchantRepo.FindByUserID(ctx, user.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to find merchant profile")
		}
		principal.MerchantID = &merchant.ID
	}

	now := srv.now()
	if err := srv.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, errors.Wrap(err, "failed to update last login")
	}
	user.LastLogin = &now

	token, expiresAt, err := srv.tokenService.IssueToken(principal)
	if err != nil {
		srv.log(ctx).Error("Failed to issue access token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to issue access token")
	}

	srv.log(ctx).Info("User logged in", slog.Any("userID", user.ID), slog.Any("role", user.Role))

	return &usecase.LoginOutput{AccessToken: token, ExpiresAt: expiresAt, User: user}, nil
}

// upgradePasswordHash re-hashes the password after a successful check when the stored hash is weaker
// than the configured cost. Failures only cost the upgrade, never the login.
func (srv *userService) upgradePasswordHash(ctx context.Context, user *entity.User, password string) {
	if !srv.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := srv.hasher.Hash(password)
	if err == nil {
		err = srv.userRepo.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		srv.log(ctx).Warn("Failed to upgrade password hash", slog.Any("userID", user.ID), slog.Any("error", err))

		return
	}
	user.PasswordHash = hash
}

func (srv *userService) findByIdentifier(ctx context.Context, identifier string) (*entity.User, error) {
	if strings.Contains(identifier, "@") {
		return srv.userRepo.FindByEmail(ctx, identifier)
	}

	return srv.userRepo.FindByUsername(ctx, identifier)
}

// GetProfile returns the caller's account and, for merchants, the merchant profile.
func (srv *userService) GetProfile(ctx context.Context, principal entity.Principal) (*usecase.ProfileOutput, error) {
	user, err := srv.userRepo.FindByID(ctx, principal.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	output := &usecase.ProfileOutput{User: user}
	if user.Role.RequiresMerchantProfile() {
		merchant, err := srv.merchantRepo.FindByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, domainerrors.ErrMerchantNotFound) {
			return nil, errors.Wrap(err, "failed to find merchant profile")
		}
		output.Merchant = merchant
	}

	return output, nil
}

func (srv *userService) ListUsers(ctx context.Context, principal entity.Principal, input *usecase.ListUsersInput) (*usecase.UserList, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}

	users, total, err := srv.userRepo.List(ctx, repository.UserFilter{Role: input.Role, Status: input.Status}, repository.NewPagination(input.Page, input.PageSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list users")
	}

	return &usecase.UserList{Users: users, Total: total}, nil
}

// SetUserStatus enables or disables an account. Admins cannot disable themselves.
func (srv *userService) SetUserStatus(ctx context.Context, principal entity.Principal, userID uuid.UUID, status entity.UserStatus) (*entity.User, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown user status " + string(status))
	}
	if userID == principal.UserID && status != entity.UserStatusActive {
		return nil, domainerrors.ErrValidationFailed.WithDetails("cannot deactivate own account")
	}

	var updated *entity.User
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		if err := userRepo.UpdateStatus(ctx, userID, status); err != nil {
			return errors.Wrap(err, "failed to update user status")
		}

		user, err := userRepo.FindByID(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "failed to reload user")
		}
		updated = user

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("User status changed", slog.Any("userID", userID), slog.Any("status", status), slog.Any("adminID", principal.UserID))

	return updated, nil
}

// UpdateProfile changes the caller's own email.
func (srv *userService) UpdateProfile(ctx context.Context, principal entity.Principal, input *usecase.UpdateProfileInput) (*usecase.ProfileOutput, error) {
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if !strings.Contains(email, "@") {
			return nil, domainerrors.ErrValidationFailed.WithDetails("email is invalid")
		}
		if err := srv.userRepo.UpdateEmail(ctx, principal.UserID, email); err != nil {
			srv.log(ctx).Warn("Failed to update email", slog.Any("userID", principal.UserID), slog.Any("error", err))

			return nil, errors.Wrap(err, "failed to update email")
		}
		srv.log(ctx).Info("Profile updated", slog.Any("userID", principal.UserID))
	}

	return srv.GetProfile(ctx, principal)
}

// ChangePassword replaces the caller's password after checking the current one.
func (srv *userService) ChangePassword(ctx context.Context, principal entity.Principal, input *usecase.ChangePasswordInput) error {
	if len(input.NewPassword) < minPasswordLength {
		return domainerrors.ErrValidationFailed.WithDetails("password is too short")
	}

	user, err := srv.userRepo.FindByID(ctx, principal.UserID)
	if err != nil {
		return errors.Wrap(err, "failed to find user")
	}
	if !srv.hasher.Check(input.CurrentPassword, user.PasswordHash) {
		srv.log(ctx).Warn("Password change with wrong current password", slog.Any("userID", user.ID))

		return domainerrors.ErrInvalidCredentials.WithDetails("current password is incorrect")
	}

	if err := srv.setPassword(ctx, user.ID, input.NewPassword); err != nil {
		return err
	}
	srv.log(ctx).Info("Password changed", slog.Any("userID", user.ID))

	return nil
}

func (srv *userService) ResetPassword(ctx context.Context, principal entity.Principal, userID uuid.UUID, newPassword string) error {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return err
	}
	if len(newPassword) < minPasswordLength {
		return domainerrors.ErrValidationFailed.WithDetails("password is too short")
	}

	if err := srv.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	srv.log(ctx).Info("Password reset", slog.Any("userID", userID), slog.Any("adminID", principal.UserID))

	return nil
}

func (srv *userService) setPassword(ctx context.Context, userID uuid.UUID, password string) error {
	hash, err := srv.hasher.Hash(password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.Any("userID", userID), slog.Any("error", err))

		return domainerrors.ErrPasswordHashFailed
	}

	return errors.Wrap(srv.userRepo.UpdatePasswordHash(ctx, userID, hash), "failed to update password")
}
