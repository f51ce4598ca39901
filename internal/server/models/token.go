package models

import "time"

// Token is an opaque bearer session credential. A token authorizes requests
// only while Revoked is false and ExpiresAt is in the future. Rows are never
// deleted on logout; the periodic sweep removes expired ones.
type Token struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
