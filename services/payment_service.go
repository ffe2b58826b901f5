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

// PaymentInput: оплата взноса за команду (или за себя в индивидуальном соревновании).
// Карта берётся из Card либо, если Card не задана, из сохранённых карт пользователя.
type PaymentInput struct {
	EntrantID int64      `json:"entrant_id"`
	Card      *CardInput `json:"card,omitempty"`
	SaveCard  bool       `json:"save_card"`
}

type PaymentService interface {
	InitiatePayment(ctx context.Context, actor Actor, competitionID int64, in PaymentInput) (*payments.Task, error)
	GetPayment(ctx context.Context, actor Actor, paymentID string) (payments.TaskSnapshot, error)
	CancelPayment(ctx context.Context, actor Actor, paymentID string) (payments.TaskSnapshot, error)
}

type paymentService struct {
	store    *repositories.Store
	provider payments.PaymentProvider
	tracker  *payments.Tracker
	notifier LedgerNotifier
	logger   *slog.Logger
}

func NewPaymentService(
	store *repositories.Store,
	provider payments.PaymentProvider,
	tracker *payments.Tracker,
	notifier LedgerNotifier,
	logger *slog.Logger,
) PaymentService {
	return &paymentService{
		store:    store,
		provider: provider,
		tracker:  tracker,
		notifier: notifierOrNoop(notifier),
		logger:   logger,
	}
}

// InitiatePayment проверяет запрос синхронно, а списание и запись в реестр выполняет
// в отдельной задаче. Отменённая задача реестр не меняет.
func (s *paymentService) InitiatePayment(ctx context.Context, actor Actor, competitionID int64, in PaymentInput) (*payments.Task, error) {
	var manual *validatedCard
	if in.Card != nil {
		card, err := validateCard(*in.Card, s.store.Now())
		if err != nil {
			return nil, err
		}
		manual = &card
	}

	var (
		details payments.CardDetails
		amount  int64
	)
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		comp, err := sess.Competitions().GetByID(ctx, competitionID)
		if err != nil {
			return err
		}
		if _, err := checkPayable(ctx, sess, actor, comp, in.EntrantID); err != nil {
			return err
		}
		amount = comp.EntryFee

		if manual != nil {
			details = manual.details()
			return nil
		}
		saved, err := sess.Cards().FindForUser(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, repositories.ErrCardNotFound) {
				return ErrNoSavedCard
			}
			return err
		}
		details = payments.CardDetails{Holder: saved.Holder, Brand: saved.Brand, Last4: saved.Last4}
		return nil
	})
	if err != nil {
		return nil, handleRepositoryError(err, "payment precheck for %d in competition %d failed", in.EntrantID, competitionID)
	}

	task := s.tracker.Start(actor.UserID, func(taskCtx context.Context) error {
		return s.process(taskCtx, actor, competitionID, in, manual, details, amount)
	})
	s.logger.InfoContext(ctx, "Payment started",
		slog.String("payment_id", task.ID),
		slog.Int64("competition_id", competitionID),
		slog.Int64("entrant_id", in.EntrantID),
		slog.Int64("amount", amount),
	)
	return task, nil
}

func (s *paymentService) process(
	ctx context.Context,
	actor Actor,
	competitionID int64,
	in PaymentInput,
	manual *validatedCard,
	details payments.CardDetails,
	amount int64,
) error {
	charge, err := s.provider.Charge(ctx, payments.ChargeRequest{
		Amount:      amount,
		Description: fmt.Sprintf("entry fee, competition %d, entrant %d", competitionID, in.EntrantID),
		Card:        details,
	})
	if err != nil {
		if errors.Is(err, payments.ErrCardDeclined) {
			return ErrPaymentDeclined
		}
		return err
	}

	var comp *models.Competition
	err = s.store.Update(ctx, func(sess *repositories.Session) error {
		// отмена после списания: запись не делаем, деньги возвращаются ниже
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		comp, err = sess.Competitions().GetByID(ctx, competitionID)
		if err != nil {
			return err
		}
		// взнос изменили, пока шло списание: записывать старую сумму нельзя
		if comp.EntryFee != amount {
			return fmt.Errorf("%w: charged %d, fee is now %d", ErrEntryFeeChanged, amount, comp.EntryFee)
		}
		registered, err := checkPayable(ctx, sess, actor, comp, in.EntrantID)
		if err != nil {
			return err
		}
		if !registered {
			if err := registerEntrant(ctx, sess, comp, in.EntrantID); err != nil {
				return err
			}
		}
		if err := applyPayment(comp, in.EntrantID, amount, charge.TransactionID, charge.ProcessedAt); err != nil {
			return err
		}
		if err := sess.Competitions().Update(ctx, comp); err != nil {
			return err
		}
		if manual != nil && in.SaveCard {
			if _, err := saveCard(ctx, sess, manual.toSaved(actor.UserID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.refundCharge(ctx, competitionID, in.EntrantID, charge.TransactionID, amount)
		return handleRepositoryError(err, "failed to record payment for %d in competition %d", in.EntrantID, competitionID)
	}

	s.logger.InfoContext(ctx, "Payment recorded",
		slog.Int64("competition_id", competitionID),
		slog.Int64("entrant_id", in.EntrantID),
		slog.String("transaction_id", charge.TransactionID),
	)
	notifyLedger(s.notifier, comp)
	return nil
}

// refundCharge returns money that was charged but could not be recorded.
func (s *paymentService) refundCharge(ctx context.Context, competitionID, entrantID int64, transactionID string, amount int64) {
	if err := s.provider.Refund(context.WithoutCancel(ctx), transactionID, amount); err != nil {
		s.logger.ErrorContext(ctx, "Failed to refund unrecorded charge",
			slog.Int64("competition_id", competitionID),
			slog.Int64("entrant_id", entrantID),
			slog.String("transaction_id", transactionID),
			slog.Any("error", err),
		)
		return
	}
	s.logger.WarnContext(ctx, "Charge refunded, payment was not recorded",
		slog.Int64("competition_id", competitionID),
		slog.Int64("entrant_id", entrantID),
		slog.String("transaction_id", transactionID),
	)
}

// ownedTask возвращает задачу, если её запустил actor (админ видит все).
// Для чужой задачи ответ тот же, что и для несуществующей.
func (s *paymentService) ownedTask(actor Actor, paymentID string) (*payments.Task, error) {
	task, err := s.tracker.Get(paymentID)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	if !actor.IsAdmin && task.OwnerID != actor.UserID {
		return nil, ErrPaymentNotFound
	}
	return task, nil
}

func (s *paymentService) GetPayment(ctx context.Context, actor Actor, paymentID string) (payments.TaskSnapshot, error) {
	task, err := s.ownedTask(actor, paymentID)
	if err != nil {
		return payments.TaskSnapshot{}, err
	}
	return task.Snapshot(), nil
}

// CancelPayment отменяет задачу и ждёт её завершения.
func (s *paymentService) CancelPayment(ctx context.Context, actor Actor, paymentID string) (payments.TaskSnapshot, error) {
	task, err := s.ownedTask(actor, paymentID)
	if err != nil {
		return payments.TaskSnapshot{}, err
	}
	task.Cancel()
	if err := task.Wait(ctx); err != nil && ctx.Err() != nil {
		return payments.TaskSnapshot{}, ctx.Err()
	}
	return task.Snapshot(), nil
}

// checkPayable validates a payment for the entrant and reports whether the entrant is
// already registered (a refunded or fee-free registration that only needs the payment).
func checkPayable(ctx context.Context, sess *repositories.Session, actor Actor, c *models.Competition, entrantID int64) (bool, error) {
	if c.EntryFee <= 0 {
		return false, ErrPaymentNotRequired
	}
	if err := checkOpenForRegistration(c); err != nil {
		return false, err
	}

	switch c.Type {
	case models.CompetitionTypeIndividual:
		if !actor.IsAdmin && actor.UserID != entrantID {
			return false, ErrForbiddenOperation
		}
	default:
		team, err := sess.Teams().GetByID(ctx, entrantID)
		if err != nil {
			return false, err
		}
		if !actor.canManageTeam(team) {
			return false, ErrUserMustBeOwner
		}
	}

	if c.IsRegistered(entrantID) {
		if c.IsPaid(entrantID) {
			return true, ErrDuplicateRegistration
		}
		return true, nil
	}

	// пробная регистрация на копии, чтобы не списывать деньги за заведомо отклонённую заявку
	probe := *c
	probe.Teams = append([]int64(nil), c.Teams...)
	probe.Participants = append([]int64(nil), c.Participants...)
	_, size, err := entrantSize(ctx, sess, c, entrantID)
	if err != nil {
		return false, err
	}
	return false, applyRegistration(&probe, entrantID, size)
}
