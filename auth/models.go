// Package auth handles authentication: registration, login, JWT issuance and validation,
// the request principal carried in the context, and the two access policies used by the
// catalog and recipe endpoints.
package auth

import (
	"strings"
	"time"
)

// User is the account row. Email is the login identifier; username is the public handle.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	HashedPassword string    `json:"-"` // Do not expose hashed password
	IsStaff        bool      `json:"-"`
	CreatedAt      time.Time `json:"-"`
}

// FullName returns "first last" with surrounding blanks removed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
