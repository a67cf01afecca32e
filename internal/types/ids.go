package types

import (
	"time"

	"github.com/google/uuid"
)

// SessionID identifies a live editing session held by the configurator service.
type SessionID string

// DesignID identifies a persisted design.
type DesignID string

// OwnerID identifies the account that owns designs and API keys.
type OwnerID string

// NewSessionID generates a UUIDv7 session identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewSessionID() SessionID {
	return SessionID(uuid.Must(uuid.NewV7()).String())
}

// NewDesignID generates a UUIDv7 design identifier.
// Time-ordered IDs keep revision inserts clustered.
func NewDesignID() DesignID {
	return DesignID(uuid.Must(uuid.NewV7()).String())
}

// NewOwnerID generates a UUIDv7 owner identifier.
func NewOwnerID() OwnerID {
	return OwnerID(uuid.Must(uuid.NewV7()).String())
}

// ParseSessionID validates and converts a string to SessionID.
func ParseSessionID(s string) (SessionID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return SessionID(s), nil
}

// ParseDesignID validates and converts a string to DesignID.
func ParseDesignID(s string) (DesignID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return DesignID(s), nil
}

// DesignIDTime extracts the creation time embedded in a UUIDv7 design id.
// Returns zero time for invalid UUIDs; caller should check IsZero().
func DesignIDTime(id DesignID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
