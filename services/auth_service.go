package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
	"github.com/Dosada05/competition-ledger/utils"
)

const minPasswordLength = 6

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, input LoginInput) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	store       *repositories.Store
	adminEmails map[string]struct{}
	logger      *slog.Logger
}

// NewAuthService: пользователи с email из adminEmails получают роль admin при регистрации.
func NewAuthService(store *repositories.Store, adminEmails []string, logger *slog.Logger) AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = utils.NormalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &authService{store: store, adminEmails: admins, logger: logger}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := utils.NormalizeEmail(input.Email)
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if !utils.IsValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	role := models.RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = models.RoleAdmin
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         role,
	}

	err = s.store.Update(ctx, func(sess *repositories.Session) error {
		return sess.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "ошибка создания пользователя")
	}
	s.logger.InfoContext(ctx, "User registered", slog.Int64("user_id", user.ID), slog.String("role", string(user.Role)))
	return sanitizeUser(user), nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	var user *models.User
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		user, err = sess.Users().GetByEmail(ctx, utils.NormalizeEmail(input.Email))
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	match, err := utils.CheckPasswordHash(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

func (s *authService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user *models.User
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		user, err = sess.Users().GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get user %d", userID)
	}
	return sanitizeUser(user), nil
}
