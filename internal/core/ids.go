// AngelaMos | 2026
// ids.go

package core

import (
	"github.com/google/uuid"
)

func NewID() string {
	return uuid.New().String()
}

// ValidID reports whether id parses as a UUID. Handlers treat a malformed id
// as not found instead of sending it to PostgreSQL.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
