package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/competition-ledger/live"
	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
)

// LedgerNotifier получает уведомления об изменениях реестра. live.Hub реализует его.
type LedgerNotifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

type noopNotifier struct{}

func (noopNotifier) BroadcastToRoom(string, interface{}) {}

func notifierOrNoop(n LedgerNotifier) LedgerNotifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

func notifyLedger(n LedgerNotifier, c *models.Competition) {
	view := newLedgerView(c)
	n.BroadcastToRoom(live.CompetitionRoom(c.ID), live.Message{
		Type:    live.MessageLedgerUpdated,
		Payload: view,
		RoomID:  live.CompetitionRoom(c.ID),
	})
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
func handleRepositoryError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repositories.ErrCompetitionNotFound):
		return ErrCompetitionNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrCardNotFound):
		return ErrCardNotFound
	case errors.Is(err, repositories.ErrContactMessageNotFound):
		return ErrContactMessageNotFound
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrUserEmailConflict
	case errors.Is(err, repositories.ErrInvalidRecord):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func isValidStatusTransition(current, next models.CompetitionStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.CompetitionStatus][]models.CompetitionStatus{
		models.StatusUpcoming:  {models.StatusOngoing, models.StatusCancelled},
		models.StatusOngoing:   {models.StatusCompleted, models.StatusCancelled},
		models.StatusCompleted: {},
		models.StatusCancelled: {},
	}
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func validateCompetitionDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start date (%s) must be before end date (%s)", ErrCompetitionInvalidDateRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func sanitizeUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	u.PasswordHash = "" // хеш пароля не покидает сервис
	return u
}

// Actor: текущий пользователь запроса (из JWT).
type Actor struct {
	UserID  int64
	IsAdmin bool
}

func (a Actor) canManageTeam(team *models.Team) bool {
	return a.IsAdmin || team.OwnerID == a.UserID
}
