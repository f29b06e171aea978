package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleClient Role = "client"
	RoleExpert Role = "expert"
	RoleAdmin  Role = "admin"
)

type ClientStatus string

const (
	ClientStatusPending  ClientStatus = "pending"
	ClientStatusVerified ClientStatus = "verified"
	ClientStatusRejected ClientStatus = "rejected"
)

type User struct {
	ID           uuid.UUID    `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	Role         Role         `json:"role"`
	ClientStatus ClientStatus `json:"client_status"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsVerifiedClient reports whether the account passed client verification.
// Unverified clients may submit requests but never see proposed experts.
func (u *User) IsVerifiedClient() bool {
	return u.ClientStatus == ClientStatusVerified
}
