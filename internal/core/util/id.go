package util

import (
	"github.com/google/uuid"
)

// GenerateID generates a unique identifier
func GenerateID() string {
	return uuid.NewString()
}
