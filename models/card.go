package models

import (
	"errors"
	"fmt"
	"time"
)

// SavedCard is the masked card kept in the userCards table. Full numbers and CVV are never stored.
type SavedCard struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Holder    string    `json:"holder"`
	Brand     string    `json:"brand"`
	Last4     string    `json:"last4"`
	ExpMonth  int       `json:"expMonth"`
	ExpYear   int       `json:"expYear"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

func (c *SavedCard) RecordID() int64 { return c.ID }

func (c *SavedCard) Normalize() {}

func (c *SavedCard) Validate() error {
	if c.ID <= 0 {
		return errors.New("card id must be positive")
	}
	if c.UserID <= 0 {
		return fmt.Errorf("card %d: missing user id", c.ID)
	}
	if len(c.Last4) != 4 {
		return fmt.Errorf("card %d: malformed last4", c.ID)
	}
	return nil
}
