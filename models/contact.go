package models

import (
	"errors"
	"time"
)

type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m *ContactMessage) RecordID() int64 { return m.ID }

func (m *ContactMessage) Normalize() {}

func (m *ContactMessage) Validate() error {
	if m.ID <= 0 {
		return errors.New("contact message id must be positive")
	}
	return nil
}
