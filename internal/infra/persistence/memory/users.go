package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
)

type userRepository struct {
	sess *session
}

func copyUser(u *entity.User) *entity.User {
	c := *u

	return &c
}

func (repo *userRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	var found *entity.User
	err := repo.sess.do(func(ds *dataset) error {
		user, ok := ds.users[id]
		if !ok {
			return domainerrors.ErrUserNotFound
		}
		found = copyUser(user)

		return nil
	})

	return found, err
}

func (repo *userRepository) findBy(match func(*entity.User) bool) (*entity.User, error) {
	var found *entity.User
	err := repo.sess.do(func(ds *dataset) error {
		for _, user := range ds.users {
			if match(user) {
				found = copyUser(user)

				return nil
			}
		}

		return domainerrors.ErrUserNotFound
	})

	return found, err
}

func (repo *userRepository) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return repo.findBy(func(u *entity.User) bool { return u.Username == username })
}

func (repo *userRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return repo.findBy(func(u *entity.User) bool { return strings.EqualFold(u.Email, email) })
}

func matchUser(user *entity.User, filter repository.UserFilter) bool {
	if filter.Role != nil && user.Role != *filter.Role {
		return false
	}
	if filter.Status != nil && user.Status != *filter.Status {
		return false
	}

	return true
}

func (repo *userRepository) List(_ context.Context, filter repository.UserFilter, page repository.Pagination) ([]*entity.User, int64, error) {
	var (
		users []*entity.User
		total int64
	)
	err := repo.sess.do(func(ds *dataset) error {
		for _, user := range ds.users {
			if matchUser(user, filter) {
				users = append(users, copyUser(user))
			}
		}
		total = int64(len(users))
		slices.SortFunc(users, func(a, b *entity.User) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
		})
		users = paginate(users, page)

		return nil
	})

	return users, total, err
}

func (repo *userRepository) Create(_ context.Context, user *entity.User) error {
	return repo.sess.do(func(ds *dataset) error {
		for _, existing := range ds.users {
			if existing.Username == user.Username || strings.EqualFold(existing.Email, user.Email) {
				return domainerrors.ErrUserAlreadyExists
			}
		}

		if user.ID == uuid.Nil {
			user.ID = newID()
		}
		now := repo.sess.now()
		user.CreatedAt, user.UpdatedAt = now, now
		ds.users[user.ID] = copyUser(user)

		return nil
	})
}

func (repo *userRepository) update(id uuid.UUID, mutate func(*entity.User)) error {
	return repo.sess.do(func(ds *dataset) error {
		user, ok := ds.users[id]
		if !ok {
			return domainerrors.ErrUserNotFound
		}
		updated := copyUser(user)
		mutate(updated)
		updated.UpdatedAt = repo.sess.now()
		ds.users[id] = updated

		return nil
	})
}

func (repo *userRepository) UpdateStatus(_ context.Context, id uuid.UUID, status entity.UserStatus) error {
	return repo.update(id, func(u *entity.User) { u.Status = status })
}

func (repo *userRepository) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	return repo.update(id, func(u *entity.User) { u.LastLogin = &at })
}

func (repo *userRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	return repo.update(id, func(u *entity.User) { u.PasswordHash = hash })
}

func (repo *userRepository) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	return repo.sess.do(func(ds *dataset) error {
		for _, existing := range ds.users {
			if existing.ID != id && strings.EqualFold(existing.Email, email) {
				return domainerrors.ErrUserAlreadyExists.WithDetails("email already exists")
			}
		}

		user, ok := ds.users[id]
		if !ok {
			return domainerrors.ErrUserNotFound
		}
		updated := copyUser(user)
		updated.Email = email
		updated.UpdatedAt = repo.sess.now()
		ds.users[id] = updated

		return nil
	})
}

func (repo *userRepository) Count(_ context.Context, filter repository.UserFilter) (int64, error) {
	var count int64
	err := repo.sess.do(func(ds *dataset) error {
		for _, user := range ds.users {
			if matchUser(user, filter) {
				count++
			}
		}

		return nil
	})

	return count, err
}
