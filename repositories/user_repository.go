package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/Dosada05/competition-ledger/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserEmailConflict = errors.New("user email conflict")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

type kvUserRepository struct {
	records[models.User, *models.User]
}

func (r *kvUserRepository) Create(ctx context.Context, user *models.User) error {
	existing, err := r.GetByEmail(ctx, user.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if existing != nil {
		return ErrUserEmailConflict
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.sess.now().UTC()
	}
	return r.create(ctx, user, func(id int64) { user.ID = id })
}

// GetByEmail сравнивает email без учёта регистра.
func (r *kvUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}
