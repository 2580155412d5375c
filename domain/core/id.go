package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// SessionID identifies one report session
type SessionID ID

func (id SessionID) String() string { return ID(id).String() }

// IsEmpty checks if the session ID is empty
func (id SessionID) IsEmpty() bool { return id == "" }

// NewSessionID returns a fresh time-ordered session id
func NewSessionID() SessionID {
	return SessionID(NewID())
}

// ParseSessionID validates a session id taken from a cookie or URL
func ParseSessionID(s string) (SessionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("session ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid session ID %q: %w", s, err)
	}
	return SessionID(s), nil
}
