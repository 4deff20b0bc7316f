package domain

import "time"

const (
	RoleReporter = "reporter"
	RoleAdmin    = "admin"
)

// User is an account allowed to read reports.
type User struct {
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
