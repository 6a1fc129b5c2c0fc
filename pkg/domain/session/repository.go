package session

import (
	"time"

	"github.com/dshills/goax/pkg/domain/types"
)

// SampleRecord is the index row kept for every sample a session wrote.
// The full sample lives in the JSONL dataset at Line.
type SampleRecord struct {
	SessionID       types.SessionID
	Seq             int
	Command         string
	ActionType      string
	TargetElementID types.ElementID
	TargetRole      string
	TargetLabel     string
	FocusedApp      string
	Line            int
	CreatedAt       time.Time
}

// ListOptions configures session listing.
type ListOptions struct {
	// Status filters by session status ("" = all).
	Status Status
	// Limit is the maximum number of results (0 = no limit).
	Limit int
	// Offset is the number of results to skip.
	Offset int
}

// ListResult is one page of sessions.
type ListResult struct {
	Sessions   []*Session
	TotalCount int
}

// Repository defines the interface for persisting and retrieving sessions.
// Implementations will typically use SQLite for storage.
type Repository interface {
	// Save persists a session, updating it if it already exists.
	Save(s *Session) error

	// Load retrieves a session by its ID.
	// Returns a NotFound error if the session does not exist.
	Load(id types.SessionID) (*Session, error)

	// List returns sessions ordered by StartedAt descending.
	List(opts ListOptions) (*ListResult, error)

	// Delete removes a session and its sample records.
	Delete(id types.SessionID) error

	// SaveSample appends a sample record to a session's index.
	SaveSample(rec *SampleRecord) error

	// ListSamples returns a session's sample records in write order.
	ListSamples(id types.SessionID) ([]*SampleRecord, error)
}
