package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/competition-ledger/models"
)

var ErrCompetitionNotFound = errors.New("competition not found")

type CompetitionRepository interface {
	// Create присваивает ID (метка времени создания), если он не задан.
	Create(ctx context.Context, competition *models.Competition) error
	GetByID(ctx context.Context, id int64) (*models.Competition, error)
	List(ctx context.Context) ([]models.Competition, error)
	Update(ctx context.Context, competition *models.Competition) error
	Delete(ctx context.Context, id int64) error
}

type kvCompetitionRepository struct {
	records[models.Competition, *models.Competition]
}

func (r *kvCompetitionRepository) Create(ctx context.Context, competition *models.Competition) error {
	if competition.CreatedAt.IsZero() {
		competition.CreatedAt = r.sess.now().UTC()
	}
	return r.create(ctx, competition, func(id int64) { competition.ID = id })
}
