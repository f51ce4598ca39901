package common

import (
	"encoding/base64"
	"fmt"
	"io"
)

// MakeURLSafeToken reads size random bytes from r and returns them encoded
// with URL-safe base64. The random source is a parameter so callers control
// where entropy comes from; production code passes crypto/rand.Reader.
func MakeURLSafeToken(r io.Reader, size int) (string, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}
