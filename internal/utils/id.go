package utils

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewConnectionID returns a unique identifier for a transport session.
func NewConnectionID() string {
	return uuid.NewString()
}

// NewTempID returns a short random identifier, usable as a client-supplied
// temporary message id in tooling and tests.
func NewTempID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()[:12]
	}
	return hex.EncodeToString(buf)
}
