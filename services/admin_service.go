package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/repositories"
)

type AdminService interface {
	GetStats(ctx context.Context) (models.DashboardStats, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, actor Actor, userID int64) error
}

type adminService struct {
	store  *repositories.Store
	logger *slog.Logger
}

func NewAdminService(store *repositories.Store, logger *slog.Logger) AdminService {
	return &adminService{store: store, logger: logger}
}

func (s *adminService) GetStats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		users, err := sess.Users().List(ctx)
		if err != nil {
			return err
		}
		teams, err := sess.Teams().List(ctx)
		if err != nil {
			return err
		}
		competitions, err := sess.Competitions().List(ctx)
		if err != nil {
			return err
		}
		messages, err := sess.ContactMessages().List(ctx)
		if err != nil {
			return err
		}

		stats.UsersTotal = len(users)
		stats.TeamsTotal = len(teams)
		stats.CompetitionsTotal = len(competitions)
		stats.ContactMessages = len(messages)
		for _, c := range competitions {
			if c.Status == models.StatusUpcoming || c.Status == models.StatusOngoing {
				stats.ActiveCompetitions++
			}
			for _, rec := range c.PaymentLog {
				switch rec.Status {
				case models.PaymentStatusPaid:
					stats.RevenuePaid += rec.Amount
				case models.PaymentStatusRefunded:
					stats.RevenueRefunded += rec.Amount
				}
			}
		}
		stats.RevenueNet = stats.RevenuePaid - stats.RevenueRefunded
		return nil
	})
	if err != nil {
		return models.DashboardStats{}, handleRepositoryError(err, "failed to collect dashboard stats")
	}
	return stats, nil
}

func (s *adminService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		users, err = sess.Users().List(ctx)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list users")
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// DeleteUser удаляет пользователя вместе с его сохранёнными картами.
func (s *adminService) DeleteUser(ctx context.Context, actor Actor, userID int64) error {
	if actor.UserID == userID {
		return ErrForbiddenOperation
	}
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		if err := sess.Users().Delete(ctx, userID); err != nil {
			return err
		}
		cards, err := sess.Cards().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		for _, c := range cards {
			if err := sess.Cards().Delete(ctx, c.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return handleRepositoryError(err, "failed to delete user %d", userID)
	}
	s.logger.InfoContext(ctx, "User deleted by admin", slog.Int64("user_id", userID), slog.Int64("admin_id", actor.UserID))
	return nil
}
