// Package types defines core domain type aliases and identifiers for goax.
package types

import (
	"strconv"

	"github.com/google/uuid"
)

// ElementID identifies an element within exactly one snapshot.
// The same numeric value in two snapshots does not denote the same element.
type ElementID int

// String returns the decimal form of the id.
func (id ElementID) String() string {
	return strconv.Itoa(int(id))
}

// Generation stamps a snapshot. Generations increase monotonically within a process.
type Generation uint64

// SessionID is a unique identifier for a collector session.
type SessionID string

// NewSessionID generates a new unique session ID.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// String returns the string representation of a SessionID.
func (id SessionID) String() string {
	return string(id)
}

// IsZero returns true if the SessionID is the zero value.
func (id SessionID) IsZero() bool {
	return id == ""
}

// AppHandle is an opaque, provider-owned reference to a running application.
type AppHandle interface{}

// ElementHandle is an opaque, provider-owned reference to a live accessibility element.
// Handles are only meaningful to the provider that issued them.
type ElementHandle interface{}
