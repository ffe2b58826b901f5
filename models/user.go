package models

import (
	"errors"
	"fmt"
	"time"
)

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (u *User) RecordID() int64 { return u.ID }

func (u *User) Normalize() {
	if u.Role == "" {
		u.Role = RoleUser
	}
}

func (u *User) Validate() error {
	if u.ID <= 0 {
		return errors.New("user id must be positive")
	}
	if u.Email == "" {
		return fmt.Errorf("user %d: email is empty", u.ID)
	}
	return nil
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
