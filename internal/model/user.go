package model

import "time"

// Role names stored in users.role.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// User represents an application user record as stored in the
// `users` table.  PasswordHash holds the bcrypt digest from the
// `password` column; the plain password is never persisted.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name (>= 3 chars, letters/digits/underscore).
//	PasswordHash – bcrypt hashed password.
//	Role         – admin or cashier.
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
