package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
)

const defaultTeamMaxMembers = 10

type TeamService interface {
	CreateTeam(ctx context.Context, actor Actor, input CreateTeamInput) (*models.Team, error)
	GetTeam(ctx context.Context, id int64) (*models.Team, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListUserTeams(ctx context.Context, userID int64) ([]models.Team, error)
	JoinTeam(ctx context.Context, actor Actor, teamID int64) (*models.Team, error)
	LeaveTeam(ctx context.Context, actor Actor, teamID int64) (*models.Team, error)
	DeleteTeam(ctx context.Context, actor Actor, teamID int64) error
}

type CreateTeamInput struct {
	Name       string `json:"name"`
	MaxMembers int    `json:"maxMembers"`
}

type teamService struct {
	store  *repositories.Store
	logger *slog.Logger
}

func NewTeamService(store *repositories.Store, logger *slog.Logger) TeamService {
	return &teamService{store: store, logger: logger}
}

// CreateTeam создаёт команду; владелец становится первым участником.
func (s *teamService) CreateTeam(ctx context.Context, actor Actor, input CreateTeamInput) (*models.Team, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	maxMembers := input.MaxMembers
	if maxMembers <= 0 {
		maxMembers = defaultTeamMaxMembers
	}

	var team *models.Team
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		owner, err := sess.Users().GetByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		team = &models.Team{
			Name:       name,
			OwnerID:    owner.ID,
			Members:    []models.TeamMember{{ID: owner.ID, Name: owner.Name}},
			MaxMembers: maxMembers,
		}
		return sess.Teams().Create(ctx, team)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to create team")
	}
	s.logger.InfoContext(ctx, "Team created", slog.Int64("team_id", team.ID), slog.Int64("owner_id", team.OwnerID))
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, id int64) (*models.Team, error) {
	var team *models.Team
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		team, err = sess.Teams().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get team %d", id)
	}
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	var teams []models.Team
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		teams, err = sess.Teams().List(ctx)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list teams")
	}
	return teams, nil
}

func (s *teamService) ListUserTeams(ctx context.Context, userID int64) ([]models.Team, error) {
	var teams []models.Team
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		teams, err = sess.Teams().ListByMember(ctx, userID)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list teams of user %d", userID)
	}
	return teams, nil
}

func (s *teamService) JoinTeam(ctx context.Context, actor Actor, teamID int64) (*models.Team, error) {
	var team *models.Team
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		var err error
		team, err = sess.Teams().GetByID(ctx, teamID)
		if err != nil {
			return err
		}
		user, err := sess.Users().GetByID(ctx, actor.UserID)
		if err != nil {
			return err
		}
		if team.HasMember(user.ID) {
			return ErrUserAlreadyInTeam
		}
		if team.MaxMembers > 0 && len(team.Members) >= team.MaxMembers {
			return ErrTeamFull
		}
		team.Members = append(team.Members, models.TeamMember{ID: user.ID, Name: user.Name})
		return sess.Teams().Update(ctx, team)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to join team %d", teamID)
	}
	return team, nil
}

func (s *teamService) LeaveTeam(ctx context.Context, actor Actor, teamID int64) (*models.Team, error) {
	var team *models.Team
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		var err error
		team, err = sess.Teams().GetByID(ctx, teamID)
		if err != nil {
			return err
		}
		if team.OwnerID == actor.UserID {
			return ErrCannotRemoveOwner
		}
		if !team.HasMember(actor.UserID) {
			return ErrUserNotInTeam
		}
		members := make([]models.TeamMember, 0, len(team.Members))
		for _, m := range team.Members {
			if m.ID != actor.UserID {
				members = append(members, m)
			}
		}
		team.Members = members
		return sess.Teams().Update(ctx, team)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to leave team %d", teamID)
	}
	return team, nil
}

// DeleteTeam удаляет команду. Ссылки на неё в соревнованиях остаются: реестр платежей
// должен сохранять историю.
func (s *teamService) DeleteTeam(ctx context.Context, actor Actor, teamID int64) error {
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		team, err := sess.Teams().GetByID(ctx, teamID)
		if err != nil {
			return err
		}
		if !actor.canManageTeam(team) {
			return ErrUserMustBeOwner
		}
		return sess.Teams().Delete(ctx, teamID)
	})
	if err != nil {
		return handleRepositoryError(err, "failed to delete team %d", teamID)
	}
	s.logger.InfoContext(ctx, "Team deleted", slog.Int64("team_id", teamID))
	return nil
}
