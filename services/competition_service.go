package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
)

type CompetitionService interface {
	CreateCompetition(ctx context.Context, actor Actor, input CreateCompetitionInput) (*models.Competition, error)
	GetCompetition(ctx context.Context, id int64) (*models.Competition, error)
	ListCompetitions(ctx context.Context, filter CompetitionFilter) ([]models.Competition, error)
	UpdateCompetition(ctx context.Context, actor Actor, id int64, input UpdateCompetitionInput) (*models.Competition, error)
	DeleteCompetition(ctx context.Context, actor Actor, id int64) error
	AutoUpdateStatusesByDates(ctx context.Context) (int, error)
}

type CreateCompetitionInput struct {
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Type            models.CompetitionType `json:"type"`
	StartDate       time.Time              `json:"startDate"`
	EndDate         time.Time              `json:"endDate"`
	Location        *models.Location       `json:"location"`
	MaxTeams        int                    `json:"maxTeams"`
	MaxParticipants int                    `json:"maxParticipants"`
	MaxTeamSize     int                    `json:"maxTeamSize"`
	EntryFee        int64                  `json:"entryFee"`
	PrizePool       int64                  `json:"prizePool"`
}

// UpdateCompetitionInput: частичное обновление, nil поля не меняются.
type UpdateCompetitionInput struct {
	Name            *string                   `json:"name"`
	Description     *string                   `json:"description"`
	Status          *models.CompetitionStatus `json:"status"`
	StartDate       *time.Time                `json:"startDate"`
	EndDate         *time.Time                `json:"endDate"`
	Location        *models.Location          `json:"location"`
	MaxTeams        *int                      `json:"maxTeams"`
	MaxParticipants *int                      `json:"maxParticipants"`
	MaxTeamSize     *int                      `json:"maxTeamSize"`
	EntryFee        *int64                    `json:"entryFee"`
	PrizePool       *int64                    `json:"prizePool"`
}

type CompetitionFilter struct {
	Type   models.CompetitionType
	Status models.CompetitionStatus
	Search string
	Limit  int
	Offset int
}

type competitionService struct {
	store    *repositories.Store
	notifier LedgerNotifier
	logger   *slog.Logger
}

func NewCompetitionService(store *repositories.Store, notifier LedgerNotifier, logger *slog.Logger) CompetitionService {
	return &competitionService{store: store, notifier: notifierOrNoop(notifier), logger: logger}
}

func (s *competitionService) CreateCompetition(ctx context.Context, actor Actor, input CreateCompetitionInput) (*models.Competition, error) {
	comp := &models.Competition{
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		Type:            input.Type,
		Status:          models.StatusUpcoming,
		OrganizerID:     actor.UserID,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Location:        input.Location,
		MaxTeams:        input.MaxTeams,
		MaxParticipants: input.MaxParticipants,
		MaxTeamSize:     input.MaxTeamSize,
		EntryFee:        input.EntryFee,
		PrizePool:       input.PrizePool,
	}
	comp.Normalize()
	if err := validateCompetition(comp); err != nil {
		return nil, err
	}

	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		return sess.Competitions().Create(ctx, comp)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to create competition")
	}
	s.logger.InfoContext(ctx, "Competition created", slog.Int64("competition_id", comp.ID), slog.Int64("organizer_id", actor.UserID))
	return comp, nil
}

func (s *competitionService) GetCompetition(ctx context.Context, id int64) (*models.Competition, error) {
	var comp *models.Competition
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		comp, err = sess.Competitions().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get competition %d", id)
	}
	return comp, nil
}

func (s *competitionService) ListCompetitions(ctx context.Context, filter CompetitionFilter) ([]models.Competition, error) {
	var all []models.Competition
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		all, err = sess.Competitions().List(ctx)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list competitions")
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Competition, 0, len(all))
	for _, c := range all {
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		out = append(out, c)
	}
	// ближайшие соревнования первыми
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []models.Competition{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *competitionService) UpdateCompetition(ctx context.Context, actor Actor, id int64, input UpdateCompetitionInput) (*models.Competition, error) {
	var comp *models.Competition
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		var err error
		comp, err = sess.Competitions().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !actor.IsAdmin && comp.OrganizerID != actor.UserID {
			return ErrForbiddenOperation
		}

		if input.Name != nil {
			comp.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			comp.Description = *input.Description
		}
		if input.Status != nil {
			if !input.Status.IsValid() {
				return ErrCompetitionInvalidStatus
			}
			if !isValidStatusTransition(comp.Status, *input.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrCompetitionInvalidStatusTransition, comp.Status, *input.Status)
			}
			comp.Status = *input.Status
		}
		if input.StartDate != nil {
			comp.StartDate = *input.StartDate
		}
		if input.EndDate != nil {
			comp.EndDate = *input.EndDate
		}
		if input.Location != nil {
			comp.Location = input.Location
		}
		if input.MaxTeams != nil {
			comp.MaxTeams = *input.MaxTeams
		}
		if input.MaxParticipants != nil {
			comp.MaxParticipants = *input.MaxParticipants
		}
		if input.MaxTeamSize != nil {
			comp.MaxTeamSize = *input.MaxTeamSize
		}
		if input.EntryFee != nil {
			comp.EntryFee = *input.EntryFee
		}
		if input.PrizePool != nil {
			comp.PrizePool = *input.PrizePool
		}

		if err := validateCompetition(comp); err != nil {
			return err
		}
		// вместимость нельзя опустить ниже числа уже зарегистрированных
		if len(comp.Entrants()) > comp.Capacity() {
			return ErrCompetitionInvalidCapacity
		}
		return sess.Competitions().Update(ctx, comp)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to update competition %d", id)
	}
	notifyLedger(s.notifier, comp)
	return comp, nil
}

func (s *competitionService) DeleteCompetition(ctx context.Context, actor Actor, id int64) error {
	if !actor.IsAdmin {
		return ErrForbiddenOperation
	}
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		return sess.Competitions().Delete(ctx, id)
	})
	if err != nil {
		return handleRepositoryError(err, "failed to delete competition %d", id)
	}
	s.logger.InfoContext(ctx, "Competition deleted", slog.Int64("competition_id", id))
	return nil
}

// AutoUpdateStatusesByDates переводит соревнования upcoming -> ongoing -> completed по датам.
// Отменённые и уже завершённые не трогает. Возвращает число изменённых записей.
func (s *competitionService) AutoUpdateStatusesByDates(ctx context.Context) (int, error) {
	now := s.store.Now()
	var changed []*models.Competition
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		all, err := sess.Competitions().List(ctx)
		if err != nil {
			return err
		}
		for i := range all {
			c := &all[i]
			next := statusByDates(c, now)
			if next == c.Status {
				continue
			}
			c.Status = next
			if err := sess.Competitions().Update(ctx, c); err != nil {
				return err
			}
			changed = append(changed, c)
		}
		return nil
	})
	if err != nil {
		return 0, handleRepositoryError(err, "failed to update competition statuses")
	}
	for _, c := range changed {
		s.logger.InfoContext(ctx, "Competition status changed by schedule", slog.Int64("competition_id", c.ID), slog.String("status", string(c.Status)))
		notifyLedger(s.notifier, c)
	}
	return len(changed), nil
}

func statusByDates(c *models.Competition, now time.Time) models.CompetitionStatus {
	switch c.Status {
	case models.StatusUpcoming:
		if !c.EndDate.IsZero() && !now.Before(c.EndDate) {
			return models.StatusCompleted
		}
		if !c.StartDate.IsZero() && !now.Before(c.StartDate) {
			return models.StatusOngoing
		}
	case models.StatusOngoing:
		if !c.EndDate.IsZero() && !now.Before(c.EndDate) {
			return models.StatusCompleted
		}
	}
	return c.Status
}

func validateCompetition(c *models.Competition) error {
	if c.Name == "" {
		return ErrCompetitionNameRequired
	}
	switch c.Type {
	case models.CompetitionTypeTeam:
		if c.MaxTeams <= 0 || c.MaxTeamSize < 0 {
			return ErrCompetitionInvalidCapacity
		}
	case models.CompetitionTypeIndividual:
		if c.MaxParticipants <= 0 {
			return ErrCompetitionInvalidCapacity
		}
	default:
		return ErrCompetitionInvalidType
	}
	if c.EntryFee < 0 || c.PrizePool < 0 {
		return ErrCompetitionInvalidAmounts
	}
	return validateCompetitionDates(c.StartDate, c.EndDate)
}
