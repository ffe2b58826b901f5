package services

import (
	"time"

	"github.com/Dosada05/competition-ledger/models"
)

// The functions in this file are the ledger state transitions. They mutate only the
// competition passed in; callers persist it together with any team changes in one Update.

// applyRegistration checks, in order: duplicate, capacity, team size; then appends the entrant.
// size is the member count for teams and 1 for individual entrants.
// A zero capacity or zero max team size means "no limit", as in records written without them.
func applyRegistration(c *models.Competition, entrantID int64, size int) error {
	c.Normalize()

	if c.IsRegistered(entrantID) {
		return ErrDuplicateRegistration
	}
	if capacity := c.Capacity(); capacity > 0 && len(c.Entrants()) >= capacity {
		return ErrCapacityExceeded
	}
	if c.Type == models.CompetitionTypeTeam && c.MaxTeamSize > 0 && size > c.MaxTeamSize {
		return ErrTeamTooLarge
	}

	if c.Type == models.CompetitionTypeIndividual {
		c.Participants = append(c.Participants, entrantID)
	} else {
		c.Teams = append(c.Teams, entrantID)
	}
	c.ParticipantCount += size
	return nil
}

// applyDeregistration removes the entrant. Payment state is left as is.
func applyDeregistration(c *models.Competition, entrantID int64, size int) error {
	c.Normalize()

	if !c.IsRegistered(entrantID) {
		return ErrNotRegistered
	}
	if c.Type == models.CompetitionTypeIndividual {
		c.Participants = models.RemoveID(c.Participants, entrantID)
	} else {
		c.Teams = models.RemoveID(c.Teams, entrantID)
	}
	c.ParticipantCount -= size
	if c.ParticipantCount < 0 {
		c.ParticipantCount = 0
	}
	return nil
}

func applyPayment(c *models.Competition, entrantID, amount int64, transactionID string, now time.Time) error {
	c.Normalize()

	if c.IsPaid(entrantID) {
		return ErrAlreadyPaid
	}
	c.PaidTeams = append(c.PaidTeams, entrantID)
	// paying again after a refund clears the refunded mark
	c.RefundedTeams = models.RemoveID(c.RefundedTeams, entrantID)
	c.PaymentLog = append(c.PaymentLog, models.PaymentRecord{
		TeamID:        entrantID,
		Amount:        amount,
		Status:        models.PaymentStatusPaid,
		Date:          now,
		TransactionID: transactionID,
	})
	return nil
}

// lastPayment returns the latest "paid" record of the entrant.
func lastPayment(c *models.Competition, entrantID int64) (models.PaymentRecord, bool) {
	for i := len(c.PaymentLog) - 1; i >= 0; i-- {
		rec := c.PaymentLog[i]
		if rec.TeamID == entrantID && rec.Status == models.PaymentStatusPaid {
			return rec, true
		}
	}
	return models.PaymentRecord{}, false
}

// applyRefund moves the entrant from paidTeams to refundedTeams and logs the refund.
// Registration is kept.
func applyRefund(c *models.Competition, entrantID int64, now time.Time) (models.PaymentRecord, error) {
	c.Normalize()

	if !c.IsPaid(entrantID) {
		return models.PaymentRecord{}, ErrNotPaid
	}
	amount := c.EntryFee
	txID := ""
	if paid, ok := lastPayment(c, entrantID); ok {
		amount = paid.Amount
		txID = paid.TransactionID
	}

	c.PaidTeams = models.RemoveID(c.PaidTeams, entrantID)
	if !c.IsRefunded(entrantID) {
		c.RefundedTeams = append(c.RefundedTeams, entrantID)
	}
	rec := models.PaymentRecord{
		TeamID:        entrantID,
		Amount:        amount,
		Status:        models.PaymentStatusRefunded,
		Date:          now,
		TransactionID: txID,
	}
	c.PaymentLog = append(c.PaymentLog, rec)
	return rec, nil
}

// undoRefund reverses applyRefund for rec. It reports false when the ledger has moved on
// since (the entrant paid again or the refund record is gone).
func undoRefund(c *models.Competition, entrantID int64, rec models.PaymentRecord) bool {
	c.Normalize()

	if c.IsPaid(entrantID) || !c.IsRefunded(entrantID) {
		return false
	}
	idx := -1
	for i := len(c.PaymentLog) - 1; i >= 0; i-- {
		got := c.PaymentLog[i]
		if got.TeamID == rec.TeamID && got.Status == models.PaymentStatusRefunded &&
			got.TransactionID == rec.TransactionID && got.Date.Equal(rec.Date) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	c.PaymentLog = append(c.PaymentLog[:idx:idx], c.PaymentLog[idx+1:]...)
	c.RefundedTeams = models.RemoveID(c.RefundedTeams, entrantID)
	c.PaidTeams = append(c.PaidTeams, entrantID)
	return true
}

// applyPrizeDistribution splits the prize pool equally over the paid teams, truncating
// each share; the remainder is not distributed. A previous distribution is overwritten.
func applyPrizeDistribution(c *models.Competition) error {
	c.Normalize()

	if c.Status != models.StatusCompleted || c.PrizePool <= 0 {
		return ErrPrizeDistributionNotAllowed
	}
	if len(c.PaidTeams) == 0 {
		return ErrNoPaidTeams
	}

	share := c.PrizePool / int64(len(c.PaidTeams))
	distribution := make([]models.PrizeShare, 0, len(c.PaidTeams))
	for _, id := range c.PaidTeams {
		distribution = append(distribution, models.PrizeShare{TeamID: id, Amount: share})
	}
	c.PrizeDistribution = distribution
	return nil
}

// LedgerView is the read model of one competition's ledger.
type LedgerView struct {
	CompetitionID     int64                    `json:"competition_id"`
	Type              models.CompetitionType   `json:"type"`
	Status            models.CompetitionStatus `json:"status"`
	Capacity          int                      `json:"capacity"`
	Entrants          []int64                  `json:"entrants"`
	ParticipantCount  int                      `json:"participant_count"`
	EntryFee          int64                    `json:"entry_fee"`
	PrizePool         int64                    `json:"prize_pool"`
	PaidTeams         []int64                  `json:"paid_teams"`
	RefundedTeams     []int64                  `json:"refunded_teams"`
	PaymentLog        []models.PaymentRecord   `json:"payment_log"`
	PrizeDistribution []models.PrizeShare      `json:"prize_distribution"`
}

func newLedgerView(c *models.Competition) *LedgerView {
	c.Normalize()
	dist := c.PrizeDistribution
	if dist == nil {
		dist = []models.PrizeShare{}
	}
	return &LedgerView{
		CompetitionID:     c.ID,
		Type:              c.Type,
		Status:            c.Status,
		Capacity:          c.Capacity(),
		Entrants:          c.Entrants(),
		ParticipantCount:  c.ParticipantCount,
		EntryFee:          c.EntryFee,
		PrizePool:         c.PrizePool,
		PaidTeams:         c.PaidTeams,
		RefundedTeams:     c.RefundedTeams,
		PaymentLog:        c.PaymentLog,
		PrizeDistribution: dist,
	}
}
