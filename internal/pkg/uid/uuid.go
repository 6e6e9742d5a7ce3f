package uid

import "github.com/google/uuid"

// UUID generates RFC 9562 version 7 identifiers, time ordered.
type UUID struct{}

// NewUUID builds a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new uuidv7 string. It falls back to v4 if the system
// clock source fails.
func (u *UUID) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
