package domain

import "time"

// UserRole separates regular accounts from administrators.
type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// User is an account that can post jobs and apply to them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash *string
	Role         UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPassword reports whether the account can sign in with credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
