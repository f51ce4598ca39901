// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account that owns files and sessions. PasswordHash holds a
// bcrypt hash; the clear-text password never leaves the login handler.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
