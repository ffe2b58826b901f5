package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/payments"
	"github.com/Dosada05/competition-ledger/repositories"
)

type LedgerService interface {
	RegisterTeam(ctx context.Context, actor Actor, competitionID, teamID int64) (*LedgerView, error)
	RegisterParticipant(ctx context.Context, actor Actor, competitionID, userID int64) (*LedgerView, error)
	Deregister(ctx context.Context, actor Actor, competitionID, entrantID int64) (*LedgerView, error)
	Refund(ctx context.Context, actor Actor, competitionID, entrantID int64) (*models.PaymentRecord, error)
	DistributePrizePool(ctx context.Context, actor Actor, competitionID int64) ([]models.PrizeShare, error)
	GetLedger(ctx context.Context, competitionID int64) (*LedgerView, error)
}

type ledgerService struct {
	store    *repositories.Store
	provider payments.PaymentProvider
	notifier LedgerNotifier
	logger   *slog.Logger
}

func NewLedgerService(
	store *repositories.Store,
	provider payments.PaymentProvider,
	notifier LedgerNotifier,
	logger *slog.Logger,
) LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ledgerService{
		store:    store,
		provider: provider,
		notifier: notifierOrNoop(notifier),
		logger:   logger,
	}
}

func (s *ledgerService) RegisterTeam(ctx context.Context, actor Actor, competitionID, teamID int64) (*LedgerView, error) {
	var comp *models.Competition
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		var err error
		comp, err = sess.Competitions().GetByID(ctx, competitionID)
		if err != nil {
			return err
		}
		if comp.Type != models.CompetitionTypeTeam {
			return ErrWrongCompetitionType
		}
		team, err := sess.Teams().GetByID(ctx, teamID)
		if err != nil {
			return err
		}
		if !actor.canManageTeam(team) {
			return ErrUserMustBeOwner
		}
		if err := checkOpenForFreeEntry(comp); err != nil {
			return err
		}
		return registerEntrant(ctx, sess, comp, teamID)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to register team %d for competition %d", teamID, competitionID)
	}

	s.logger.InfoContext(ctx, "Team registered", slog.Int64("competition_id", competitionID), slog.Int64("team_id", teamID))
	notifyLedger(s.notifier, comp)
	return newLedgerView(comp), nil
}

func (s *ledgerService) RegisterParticipant(ctx context.Context, actor Actor, competitionID, userID int64) (*LedgerView, error) {
	if !actor.IsAdmin && actor.UserID != userID {
		return nil, ErrForbiddenOperation
	}

	var comp *models.Competition
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		var err error
		comp, err = sess.Competitions().GetByID(ctx, competitionID)
		if err != nil {
			return err
		}
		if comp.Type != models.CompetitionTypeIndividual {
			return ErrWrongCompetitionType
		}
		if err := checkOpenForFreeEntry(comp); err != nil {
			return err
		}
		return registerEntrant(ctx, sess, comp, userID)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to register user %d for competition %d", userID, competitionID)
	}

	s.logger.InfoContext(ctx, "Participant registered", slog.Int64("competition_id", competitionID), slog.Int64("user_id", userID))
	notifyLedger(s.notifier, comp)
	return newLedgerView(comp), nil
}

func (s *ledgerService) Deregister(ctx context.Context, actor Actor, competitionID, entrantID int64) (*LedgerView, error) {
	if !actor.IsAdmin {
		return nil, ErrForbiddenOperation
	}

	var comp *models.Competition
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		var err error
		comp, err = sess.Competitions().GetByID(ctx, competitionID)
		if err != nil {
			return err
		}
		return deregisterEntrant(ctx, sess, comp, entrantID)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to deregister %d from competition %d", entrantID, competitionID)
	}

	s.logger.InfoContext(ctx, "Entrant deregistered", slog.Int64("competition_id", competitionID), slog.Int64("entrant_id", entrantID))
	notifyLedger(s.notifier, comp)
	return newLedgerView(comp), nil
}

// Refund сначала фиксирует возврат в реестре, затем вызывает провайдера.
// Если провайдер отказал, запись о возврате откатывается и реестр остаётся прежним.
// Сбой записи в реестр до провайдера не доходит, поэтому повтор не вернёт деньги дважды.
func (s *ledgerService) Refund(ctx context.Context, actor Actor, competitionID, entrantID int64) (*models.PaymentRecord, error) {
	if !actor.IsAdmin {
		return nil, ErrForbiddenOperation
	}

	var (
		comp   *models.Competition
		record models.PaymentRecord
	)
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		var err error
		comp, err = sess.Competitions().GetByID(ctx, competitionID)
		if err != nil {
			return err
		}
		record, err = applyRefund(comp, entrantID, s.store.Now().UTC())
		if err != nil {
			return err
		}
		return sess.Competitions().Update(ctx, comp)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to refund %d in competition %d", entrantID, competitionID)
	}

	if record.TransactionID != "" && record.Amount > 0 {
		// возврат уже записан: отмена запроса не должна обрывать вызов провайдера
		if err := s.provider.Refund(context.WithoutCancel(ctx), record.TransactionID, record.Amount); err != nil {
			s.revertRefund(ctx, competitionID, entrantID, record)
			return nil, fmt.Errorf("provider %s refund for %d in competition %d: %w", s.provider.Name(), entrantID, competitionID, err)
		}
	}

	s.logger.InfoContext(ctx, "Entry fee refunded",
		slog.Int64("competition_id", competitionID),
		slog.Int64("entrant_id", entrantID),
		slog.Int64("amount", record.Amount),
	)
	notifyLedger(s.notifier, comp)
	return &record, nil
}

// revertRefund undoes a recorded refund the provider did not perform.
func (s *ledgerService) revertRefund(ctx context.Context, competitionID, entrantID int64, record models.PaymentRecord) {
	ctx = context.WithoutCancel(ctx)
	var comp *models.Competition
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		var err error
		comp, err = sess.Competitions().GetByID(ctx, competitionID)
		if err != nil {
			return err
		}
		if !undoRefund(comp, entrantID, record) {
			return ErrRefundChanged
		}
		return sess.Competitions().Update(ctx, comp)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to revert refund rejected by provider",
			slog.Int64("competition_id", competitionID),
			slog.Int64("entrant_id", entrantID),
			slog.String("transaction_id", record.TransactionID),
			slog.Any("error", err),
		)
		return
	}
	s.logger.WarnContext(ctx, "Refund rejected by provider, entrant marked as paid again",
		slog.Int64("competition_id", competitionID),
		slog.Int64("entrant_id", entrantID),
		slog.String("transaction_id", record.TransactionID),
	)
	notifyLedger(s.notifier, comp)
}

func (s *ledgerService) DistributePrizePool(ctx context.Context, actor Actor, competitionID int64) ([]models.PrizeShare, error) {
	if !actor.IsAdmin {
		return nil, ErrForbiddenOperation
	}

	var comp *models.Competition
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		var err error
		comp, err = sess.Competitions().GetByID(ctx, competitionID)
		if err != nil {
			return err
		}
		if err := applyPrizeDistribution(comp); err != nil {
			return err
		}
		return sess.Competitions().Update(ctx, comp)
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to distribute prize pool of competition %d", competitionID)
	}

	s.logger.InfoContext(ctx, "Prize pool distributed",
		slog.Int64("competition_id", competitionID),
		slog.Int("winners", len(comp.PrizeDistribution)),
	)
	notifyLedger(s.notifier, comp)
	return comp.PrizeDistribution, nil
}

func (s *ledgerService) GetLedger(ctx context.Context, competitionID int64) (*LedgerView, error) {
	var comp *models.Competition
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		comp, err = sess.Competitions().GetByID(ctx, competitionID)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to get ledger of competition %d", competitionID)
	}
	return newLedgerView(comp), nil
}

func checkOpenForRegistration(c *models.Competition) error {
	switch c.Status {
	case models.StatusCompleted, models.StatusCancelled:
		return ErrRegistrationClosed
	}
	return nil
}

// checkOpenForFreeEntry: при ненулевом взносе регистрация идёт только через оплату.
func checkOpenForFreeEntry(c *models.Competition) error {
	if err := checkOpenForRegistration(c); err != nil {
		return err
	}
	if c.EntryFee > 0 {
		return ErrPaymentRequired
	}
	return nil
}

// entrantSize returns how many participants the entrant brings: team members for team
// competitions, one for individual ones. Missing teams and users are reported as not found.
func entrantSize(ctx context.Context, sess *repositories.Session, c *models.Competition, entrantID int64) (*models.Team, int, error) {
	if c.Type == models.CompetitionTypeIndividual {
		if _, err := sess.Users().GetByID(ctx, entrantID); err != nil {
			return nil, 0, err
		}
		return nil, 1, nil
	}
	team, err := sess.Teams().GetByID(ctx, entrantID)
	if err != nil {
		return nil, 0, err
	}
	return team, len(team.Members), nil
}

// registerEntrant applies the registration and stages the competition and team writes.
func registerEntrant(ctx context.Context, sess *repositories.Session, c *models.Competition, entrantID int64) error {
	team, size, err := entrantSize(ctx, sess, c, entrantID)
	if err != nil {
		return err
	}
	if err := applyRegistration(c, entrantID, size); err != nil {
		return err
	}
	if team != nil {
		team.CompetitionCount++
		if err := sess.Teams().Update(ctx, team); err != nil {
			return err
		}
	}
	return sess.Competitions().Update(ctx, c)
}

// deregisterEntrant tolerates entrants whose team or user record was deleted.
func deregisterEntrant(ctx context.Context, sess *repositories.Session, c *models.Competition, entrantID int64) error {
	team, size, err := entrantSize(ctx, sess, c, entrantID)
	switch {
	case errors.Is(err, repositories.ErrTeamNotFound), errors.Is(err, repositories.ErrUserNotFound):
		team, size = nil, 0
	case err != nil:
		return err
	}
	if err := applyDeregistration(c, entrantID, size); err != nil {
		return err
	}
	if team != nil && team.CompetitionCount > 0 {
		team.CompetitionCount--
		if err := sess.Teams().Update(ctx, team); err != nil {
			return err
		}
	}
	return sess.Competitions().Update(ctx, c)
}
