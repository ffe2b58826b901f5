package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/competition-ledger/models"
)

var ErrTeamNotFound = errors.New("team not found")

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int64) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	ListByMember(ctx context.Context, userID int64) ([]models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id int64) error
}

type kvTeamRepository struct {
	records[models.Team, *models.Team]
}

func (r *kvTeamRepository) Create(ctx context.Context, team *models.Team) error {
	if team.CreatedAt.IsZero() {
		team.CreatedAt = r.sess.now().UTC()
	}
	return r.create(ctx, team, func(id int64) { team.ID = id })
}

func (r *kvTeamRepository) ListByMember(ctx context.Context, userID int64) ([]models.Team, error) {
	teams, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Team, 0)
	for _, t := range teams {
		if t.OwnerID == userID || t.HasMember(userID) {
			out = append(out, t)
		}
	}
	return out, nil
}
