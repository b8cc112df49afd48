package postgres

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// userRepository implements the repository.UserRepository interface.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository is the constructor for userRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{
		db: db,
	}
}

// FindByID retrieves a single user by its unique ID.
func (repo *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by id", "id = ?", id)
}

func (repo *userRepository) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by username", "username = ?", username)
}

// FindByEmail matches case-insensitively, backed by the lower(email) unique index.
func (repo *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return repo.findOne(ctx, "failed to find user by email", "lower(email) = lower(?)", email)
}

func (repo *userRepository) findOne(ctx context.Context, details string, query string, args ...any) (*entity.User, error) {
	var userM model.UserModel
	if err := repo.db.WithContext(ctx).Where(query, args...).First(&userM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrUserNotFound
		}

		return nil, translateError(err, details)
	}

	return toUserDomain(&userM), nil
}

func (repo *userRepository) List(ctx context.Context, filter repository.UserFilter, page repository.Pagination) ([]*entity.User, int64, error) {
	var (
		userModels []*model.UserModel
		total      int64
	)

	query := repo.filtered(ctx, filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count users")
	}
	if err := paginate(query, page).Order("created_at ASC, id ASC").Find(&userModels).Error; err != nil {
		return nil, 0, translateError(err, "failed to list users")
	}

	users := make([]*entity.User, 0, len(userModels))
	for _, userM := range userModels {
		users = append(users, toUserDomain(userM))
	}

	return users, total, nil
}

// Create persists a new user. Username and email collisions surface as ErrUserAlreadyExists.
func (repo *userRepository) Create(ctx context.Context, user *entity.User) error {
	ensureID(&user.ID)
	userM := fromUserDomain(user)

	if err := repo.db.WithContext(ctx).Create(userM).Error; err != nil {
		if isUniqueViolation(err) {
			if violatedConstraint(err) == uniqueUserEmailIndex {
				return domainerrors.ErrUserAlreadyExists.WithDetails("email already exists")
			}

			return domainerrors.ErrUserAlreadyExists.WithDetails("username already exists")
		}

		return translateError(err, "failed to create user")
	}

	user.CreatedAt = userM.CreatedAt
	user.UpdatedAt = userM.UpdatedAt

	return nil
}

func (repo *userRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.UserStatus) error {
	return repo.updateColumns(ctx, id, map[string]any{"status": string(status)}, "failed to update user status")
}

func (repo *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return repo.updateColumns(ctx, id, map[string]any{"last_login": at}, "failed to update last login")
}

func (repo *userRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return repo.updateColumns(ctx, id, map[string]any{"password_hash": hash}, "failed to update password hash")
}

func (repo *userRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	err := repo.updateColumns(ctx, id, map[string]any{"email": email}, "failed to update email")
	if isUniqueViolation(err) {
		return domainerrors.ErrUserAlreadyExists.WithDetails("email already exists")
	}

	return err
}

func (repo *userRepository) updateColumns(ctx context.Context, id uuid.UUID, columns map[string]any, details string) error {
	result := repo.db.WithContext(ctx).Model(&model.UserModel{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return translateError(result.Error, details)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}

	return nil
}

func (repo *userRepository) Count(ctx context.Context, filter repository.UserFilter) (int64, error) {
	var count int64
	if err := repo.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, translateError(err, "failed to count users")
	}

	return count, nil
}

func (repo *userRepository) filtered(ctx context.Context, filter repository.UserFilter) *gorm.DB {
	query := repo.db.WithContext(ctx).Model(&model.UserModel{})
	if filter.Role != nil {
		query = query.Where("role = ?", string(*filter.Role))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	// A new session so Count and Find can both build on the conditions.
	return query.Session(&gorm.Session{})
}

// toUserDomain converts a GORM UserModel to a domain User entity.
func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	return &entity.User{
		ID:           data.ID,
		Username:     data.Username,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Role:         entity.Role(data.Role),
		Status:       entity.UserStatus(data.Status),
		TrialID:      data.TrialID,
		LastLogin:    data.LastLogin,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

// fromUserDomain converts a domain User entity to a GORM UserModel for persistence.
func fromUserDomain(data *entity.User) *model.UserModel {
	if data == nil {
		return nil
	}

	status := data.Status
	if status == "" {
		status = entity.UserStatusActive
	}

	return &model.UserModel{
		ID:           data.ID,
		Username:     data.Username,
		Email:        data.Email,
		PasswordHash: data.PasswordHash,
		Role:         string(data.Role),
		Status:       string(status),
		TrialID:      data.TrialID,
		LastLogin:    data.LastLogin,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}
