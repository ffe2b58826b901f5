package models

import (
	"errors"
	"fmt"
	"time"
)

// CompetitionType определяет, кто регистрируется в соревновании: команды или отдельные пользователи.
type CompetitionType string

const (
	CompetitionTypeTeam       CompetitionType = "team"
	CompetitionTypeIndividual CompetitionType = "individual"
)

// CompetitionStatus представляет жизненный цикл соревнования.
type CompetitionStatus string

const (
	StatusUpcoming  CompetitionStatus = "upcoming"
	StatusOngoing   CompetitionStatus = "ongoing"
	StatusCompleted CompetitionStatus = "completed"
	StatusCancelled CompetitionStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Location is what the map widget produced on the client: an address and a [lng, lat] pair.
type Location struct {
	Address     string     `json:"address"`
	Coordinates [2]float64 `json:"coordinates"`
}

// PaymentRecord is one line of the append-only payment log.
type PaymentRecord struct {
	TeamID        int64         `json:"teamId"`
	Amount        int64         `json:"amount"`
	Status        PaymentStatus `json:"status"`
	Date          time.Time     `json:"date"`
	TransactionID string        `json:"transactionId,omitempty"`
}

type PrizeShare struct {
	TeamID int64 `json:"teamId"`
	Amount int64 `json:"amount"`
}

// Competition: соревнование вместе с его реестром регистраций и платежей.
// Для индивидуальных соревнований поля Teams/PaidTeams/RefundedTeams хранят ID пользователей.
type Competition struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	Type            CompetitionType   `json:"type"`
	Status          CompetitionStatus `json:"status"`
	OrganizerID     int64             `json:"organizerId"`
	StartDate       time.Time         `json:"startDate"`
	EndDate         time.Time         `json:"endDate"`
	Location        *Location         `json:"location,omitempty"`
	MaxTeams        int               `json:"maxTeams"`
	MaxParticipants int               `json:"maxParticipants"`
	MaxTeamSize     int               `json:"maxTeamSize"`
	EntryFee        int64             `json:"entryFee"`
	PrizePool       int64             `json:"prizePool"`
	CreatedAt       time.Time         `json:"createdAt"`

	Teams             []int64         `json:"teams"`
	Participants      []int64         `json:"participants"`
	ParticipantCount  int             `json:"participantCount"`
	PaidTeams         []int64         `json:"paidTeams"`
	RefundedTeams     []int64         `json:"refundedTeams"`
	PaymentLog        []PaymentRecord `json:"paymentLog"`
	PrizeDistribution []PrizeShare    `json:"prizeDistribution,omitempty"`
}

func (c *Competition) RecordID() int64 { return c.ID }

// Normalize upgrades records written by older clients: missing lists become empty,
// missing type and status get their defaults.
func (c *Competition) Normalize() {
	if c.Type == "" {
		c.Type = CompetitionTypeTeam
	}
	if c.Status == "" {
		c.Status = StatusUpcoming
	}
	if c.Teams == nil {
		c.Teams = []int64{}
	}
	if c.Participants == nil {
		c.Participants = []int64{}
	}
	if c.PaidTeams == nil {
		c.PaidTeams = []int64{}
	}
	if c.RefundedTeams == nil {
		c.RefundedTeams = []int64{}
	}
	if c.PaymentLog == nil {
		c.PaymentLog = []PaymentRecord{}
	}
}

// Validate rejects records that cannot be upgraded.
func (c *Competition) Validate() error {
	if c.ID <= 0 {
		return errors.New("competition id must be positive")
	}
	switch c.Type {
	case CompetitionTypeTeam, CompetitionTypeIndividual:
	default:
		return fmt.Errorf("competition %d: unknown type %q", c.ID, c.Type)
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("competition %d: unknown status %q", c.ID, c.Status)
	}
	if c.EntryFee < 0 || c.PrizePool < 0 {
		return fmt.Errorf("competition %d: negative amounts", c.ID)
	}
	return nil
}

func (s CompetitionStatus) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Capacity returns the registration limit for the competition type.
func (c *Competition) Capacity() int {
	if c.Type == CompetitionTypeIndividual {
		return c.MaxParticipants
	}
	return c.MaxTeams
}

// Entrants returns registered team ids or user ids depending on the type.
func (c *Competition) Entrants() []int64 {
	if c.Type == CompetitionTypeIndividual {
		return c.Participants
	}
	return c.Teams
}

func (c *Competition) IsRegistered(id int64) bool { return containsID(c.Entrants(), id) }

func (c *Competition) IsPaid(id int64) bool { return containsID(c.PaidTeams, id) }

func (c *Competition) IsRefunded(id int64) bool { return containsID(c.RefundedTeams, id) }

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RemoveID returns ids without the first occurrence of id.
func RemoveID(ids []int64, id int64) []int64 {
	out := make([]int64, 0, len(ids))
	removed := false
	for _, v := range ids {
		if v == id && !removed {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out
}
