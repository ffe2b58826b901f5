package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/competition-ledger/models"
	"github.com/Dosada05/competition-ledger/payments"
	"github.com/Dosada05/competition-ledger/repositories"
	"github.com/Dosada05/competition-ledger/utils"
)

// CardInput: данные карты, введённые вручную. Номер и CVV используются только для
// проверки и никогда не сохраняются.
type CardInput struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"` // MM/YY
	CVV    string `json:"cvv"`
	Holder string `json:"holder"`
}

// validatedCard is what remains of a CardInput after validation.
type validatedCard struct {
	Holder   string
	Brand    string
	Last4    string
	ExpMonth int
	ExpYear  int
}

func (c validatedCard) details() payments.CardDetails {
	return payments.CardDetails{Holder: c.Holder, Brand: c.Brand, Last4: c.Last4}
}

// validateCard checks a 16 digit number, an MM/YY expiry that has not passed
// (a card is valid through its expiry month) and a 3-4 digit CVV.
func validateCard(in CardInput, now time.Time) (validatedCard, error) {
	number := utils.OnlyDigits(in.Number)
	if len(number) != 16 || !isDigits(number) {
		return validatedCard{}, fmt.Errorf("%w: card number must have 16 digits", ErrPaymentValidationFailed)
	}

	month, year, err := parseExpiry(in.Expiry)
	if err != nil {
		return validatedCard{}, err
	}
	nowYear, nowMonth := now.Year(), int(now.Month())
	if year < nowYear || (year == nowYear && month < nowMonth) {
		return validatedCard{}, fmt.Errorf("%w: card has expired", ErrPaymentValidationFailed)
	}

	if l := len(in.CVV); l < 3 || l > 4 || !isDigits(in.CVV) {
		return validatedCard{}, fmt.Errorf("%w: cvv must have 3 or 4 digits", ErrPaymentValidationFailed)
	}

	holder := strings.TrimSpace(in.Holder)
	if holder == "" {
		return validatedCard{}, fmt.Errorf("%w: card holder is required", ErrPaymentValidationFailed)
	}

	return validatedCard{
		Holder:   holder,
		Brand:    cardBrand(number),
		Last4:    number[12:],
		ExpMonth: month,
		ExpYear:  year,
	}, nil
}

func parseExpiry(expiry string) (month, year int, err error) {
	parts := strings.Split(strings.TrimSpace(expiry), "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 || !isDigits(parts[0]) || !isDigits(parts[1]) {
		return 0, 0, fmt.Errorf("%w: expiry must be MM/YY", ErrPaymentValidationFailed)
	}
	month, _ = strconv.Atoi(parts[0])
	yy, _ := strconv.Atoi(parts[1])
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: expiry month must be 01-12", ErrPaymentValidationFailed)
	}
	return month, 2000 + yy, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func cardBrand(number string) string {
	prefix2, _ := strconv.Atoi(number[:2])
	prefix4, _ := strconv.Atoi(number[:4])
	switch {
	case number[0] == '4':
		return "visa"
	case prefix2 >= 51 && prefix2 <= 55, prefix4 >= 2221 && prefix4 <= 2720:
		return "mastercard"
	case prefix4 >= 2200 && prefix4 <= 2204:
		return "mir"
	case number[0] == '6':
		return "discover"
	}
	return "card"
}

func (c validatedCard) toSaved(userID int64) *models.SavedCard {
	return &models.SavedCard{
		UserID:   userID,
		Holder:   c.Holder,
		Brand:    c.Brand,
		Last4:    c.Last4,
		ExpMonth: c.ExpMonth,
		ExpYear:  c.ExpYear,
	}
}

// saveCard stores the masked card unless the user already has the same one.
// The first card of a user becomes the default.
func saveCard(ctx context.Context, sess *repositories.Session, card *models.SavedCard) (*models.SavedCard, error) {
	existing, err := sess.Cards().ListByUser(ctx, card.UserID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		e := existing[i]
		if e.Last4 == card.Last4 && e.ExpMonth == card.ExpMonth && e.ExpYear == card.ExpYear && e.Brand == card.Brand {
			return &e, nil
		}
	}
	card.IsDefault = len(existing) == 0
	if err := sess.Cards().Create(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

type CardService interface {
	ListCards(ctx context.Context, userID int64) ([]models.SavedCard, error)
	SaveCard(ctx context.Context, userID int64, in CardInput) (*models.SavedCard, error)
	SetDefault(ctx context.Context, userID, cardID int64) (*models.SavedCard, error)
	DeleteCard(ctx context.Context, userID, cardID int64) error
}

type cardService struct {
	store *repositories.Store
}

func NewCardService(store *repositories.Store) CardService {
	return &cardService{store: store}
}

func (s *cardService) ListCards(ctx context.Context, userID int64) ([]models.SavedCard, error) {
	var cards []models.SavedCard
	err := s.store.View(ctx, func(sess *repositories.Session) error {
		var err error
		cards, err = sess.Cards().ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to list cards of user %d", userID)
	}
	return cards, nil
}

func (s *cardService) SaveCard(ctx context.Context, userID int64, in CardInput) (*models.SavedCard, error) {
	card, err := validateCard(in, s.store.Now())
	if err != nil {
		return nil, err
	}

	var saved *models.SavedCard
	err = s.store.Update(ctx, func(sess *repositories.Session) error {
		if _, err := sess.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		saved, err = saveCard(ctx, sess, card.toSaved(userID))
		return err
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to save card for user %d", userID)
	}
	return saved, nil
}

func (s *cardService) SetDefault(ctx context.Context, userID, cardID int64) (*models.SavedCard, error) {
	var result *models.SavedCard
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		cards, err := sess.Cards().ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		found := false
		for i := range cards {
			if cards[i].ID == cardID {
				found = true
			}
		}
		if !found {
			return ErrCardNotFound
		}
		for i := range cards {
			c := cards[i]
			c.IsDefault = c.ID == cardID
			if err := sess.Cards().Update(ctx, &c); err != nil {
				return err
			}
			if c.IsDefault {
				result = &c
			}
		}
		return nil
	})
	if err != nil {
		return nil, handleRepositoryError(err, "failed to set default card %d", cardID)
	}
	return result, nil
}

func (s *cardService) DeleteCard(ctx context.Context, userID, cardID int64) error {
	err := s.store.Update(ctx, func(sess *repositories.Session) error {
		card, err := sess.Cards().GetByID(ctx, cardID)
		if err != nil {
			return err
		}
		// чужая карта выглядит как отсутствующая
		if card.UserID != userID {
			return ErrCardNotFound
		}
		return sess.Cards().Delete(ctx, cardID)
	})
	return handleRepositoryError(err, "failed to delete card %d", cardID)
}
