// Package common defines shared constants and sentinel errors used across
// client and server layers of GophDrive. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Auth errors.
	ErrorInvalidCredentials = errors.New("invalid username or password")
	ErrorUnauthorized       = errors.New("unauthorized")

	// File operation errors.
	ErrorConflict = errors.New("file name already in use")
	ErrorIO       = errors.New("file storage failure")
)
