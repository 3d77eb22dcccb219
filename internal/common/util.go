package common

import (
	"fmt"

	"github.com/google/uuid"
)

// NewTicketID returns a fresh ticket identifier (UUIDv7, time ordered).
func NewTicketID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate ticket id: %w", err)
	}
	return id.String(), nil
}

// WipeByteArray zeroes b in place. Nil is allowed.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
