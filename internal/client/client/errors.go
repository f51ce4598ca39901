package client

import (
	"errors"
	"fmt"
)

// ErrNotLoggedIn is returned by calls that need a session token before one
// was obtained via Login.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError carries the server's error payload: the message and the HTTP
// status it arrived with.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}
