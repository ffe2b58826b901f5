package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/competition-ledger/models"
)

var ErrContactMessageNotFound = errors.New("contact message not found")

type ContactRepository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context) ([]models.ContactMessage, error)
	Delete(ctx context.Context, id int64) error
}

type kvContactRepository struct {
	records[models.ContactMessage, *models.ContactMessage]
}

func (r *kvContactRepository) Create(ctx context.Context, msg *models.ContactMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.sess.now().UTC()
	}
	return r.create(ctx, msg, func(id int64) { msg.ID = id })
}
