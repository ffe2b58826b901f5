package services

import (
	"context"
	"strings"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
	"github.com/Dosada05/competition-ledger/utils"
)

type ContactService interface {
	Submit(ctx context.Context, input ContactInput) (*models.ContactMessage, error)
	List(ctx context.Context, actor Actor) ([]models.ContactMessage, error)
	Delete(ctx context.Context, actor Actor, id int64) error
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type contactService struct {
	store *repositories.Store
}

func NewContactService(store *repositories.Store) ContactService {
	return &contactService{store: store}
}

func (s *contactService) Submit(ctx context.Context, input ContactInput) (*models.ContactMessage, error) {
	msg := &models.ContactMessage{
		Name:    strings.TrimSpace(input.Name),
		Email:   utils.NormalizeEmail(input.Email),
		Subject: strings.TrimSpace(input.Subject),
		Message: strings.TrimSpace(input.Message),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return nil, ErrContactFieldMissing
	}
	if !utils.IsValidEmail(msg.Email) {
		return nil, ErrInvalidEmail
	}

	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		return sess.ContactMessages().Create(ctx, msg)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to save contact message")
	}
	return msg, nil
}

func (s *contactService) List(ctx context.Context, actor Actor) ([]models.ContactMessage, error) {
	if !actor.IsAdmin {
		return nil, ErrForbiddenOperation
	}
	var msgs []models.ContactMessage
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		msgs, err = sess.ContactMessages().List(ctx)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list contact messages")
	}
	return msgs, nil
}

func (s *contactService) Delete(ctx context.Context, actor Actor, id int64) error {
	if !actor.IsAdmin {
		return ErrForbiddenOperation
	}
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		return sess.ContactMessages().Delete(ctx, id)
	})
	return handleRepositoryError(err, "failed to delete contact message %d", id)
}
