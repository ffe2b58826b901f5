package models

import (
	"errors"
	"fmt"
	"time"
)

type TeamMember struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Team struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	OwnerID          int64        `json:"ownerId"`
	Members          []TeamMember `json:"members"`
	MaxMembers       int          `json:"maxMembers"`
	CompetitionCount int          `json:"competitionCount"`
	CreatedAt        time.Time    `json:"createdAt"`
}

func (t *Team) RecordID() int64 { return t.ID }

func (t *Team) Normalize() {
	if t.Members == nil {
		t.Members = []TeamMember{}
	}
	if t.CompetitionCount < 0 {
		t.CompetitionCount = 0
	}
}

func (t *Team) Validate() error {
	if t.ID <= 0 {
		return errors.New("team id must be positive")
	}
	if t.Name == "" {
		return fmt.Errorf("team %d: name is empty", t.ID)
	}
	return nil
}

func (t *Team) HasMember(userID int64) bool {
	for _, m := range t.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
