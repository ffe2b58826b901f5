package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/competition-ledger/models"
)

var ErrCardNotFound = errors.New("saved card not found")

type CardRepository interface {
	Create(ctx context.Context, card *models.SavedCard) error
	GetByID(ctx context.Context, id int64) (*models.SavedCard, error)
	ListByUser(ctx context.Context, userID int64) ([]models.SavedCard, error)
	// FindForUser returns the user's default card, or the first saved one.
	FindForUser(ctx context.Context, userID int64) (*models.SavedCard, error)
	Update(ctx context.Context, card *models.SavedCard) error
	Delete(ctx context.Context, id int64) error
}

type kvCardRepository struct {
	records[models.SavedCard, *models.SavedCard]
}

func (r *kvCardRepository) Create(ctx context.Context, card *models.SavedCard) error {
	if card.CreatedAt.IsZero() {
		card.CreatedAt = r.sess.now().UTC()
	}
	return r.create(ctx, card, func(id int64) { card.ID = id })
}

func (r *kvCardRepository) ListByUser(ctx context.Context, userID int64) ([]models.SavedCard, error) {
	cards, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.SavedCard, 0)
	for _, c := range cards {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *kvCardRepository) FindForUser(ctx context.Context, userID int64) (*models.SavedCard, error) {
	cards, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, ErrCardNotFound
	}
	for i := range cards {
		if cards[i].IsDefault {
			return &cards[i], nil
		}
	}
	return &cards[0], nil
}
