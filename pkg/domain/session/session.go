// Package session defines the collector Session aggregate and its repository.
package session

import (
	"fmt"
	"time"

	"github.com/dshills/goax/pkg/domain/types"
)

// Status represents the lifecycle state of a collector session.
type Status string

const (
	// StatusRunning indicates samples are still being collected.
	StatusRunning Status = "running"
	// StatusCompleted indicates the user ended the session normally.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the session stopped on an error.
	StatusFailed Status = "failed"
)

// IsTerminal returns true if the session has finished.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Config is the set of options a session was started with.
type Config struct {
	// OutputPath is the JSONL dataset the session appends to.
	OutputPath string
	// AppFilter restricts captures to one frontmost application ("" = any).
	AppFilter string
	// Auto renders commands from templates instead of prompting.
	Auto bool
	// DryRun counts samples without writing them.
	DryRun bool
}

// Session is one run of the collector. It is the root entity of the Session aggregate.
type Session struct {
	ID          types.SessionID
	Config      Config
	Status      Status
	StartedAt   time.Time
	CompletedAt time.Time
	SampleCount int
	// Error holds the failure message when Status is StatusFailed.
	Error string
}

// New creates a running session.
func New(cfg Config) (*Session, error) {
	if cfg.OutputPath == "" && !cfg.DryRun {
		return nil, fmt.Errorf("output path cannot be empty")
	}
	return &Session{
		ID:        types.NewSessionID(),
		Config:    cfg,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}, nil
}

// RecordSample counts one collected sample.
func (s *Session) RecordSample() error {
	if s.Status != StatusRunning {
		return fmt.Errorf("cannot record sample: expected status running, got %s", s.Status)
	}
	s.SampleCount++
	return nil
}

// Complete marks the session as finished.
func (s *Session) Complete() error {
	if s.Status != StatusRunning {
		return fmt.Errorf("cannot complete session: expected status running, got %s", s.Status)
	}
	s.Status = StatusCompleted
	s.CompletedAt = time.Now()
	return nil
}

// Fail marks the session as failed with the given cause.
func (s *Session) Fail(cause error) error {
	if s.Status != StatusRunning {
		return fmt.Errorf("cannot fail session: expected status running, got %s", s.Status)
	}
	s.Status = StatusFailed
	s.CompletedAt = time.Now()
	if cause != nil {
		s.Error = cause.Error()
	}
	return nil
}

// Duration returns how long the session ran, or has been running.
func (s *Session) Duration() time.Duration {
	if s.CompletedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.CompletedAt.Sub(s.StartedAt)
}

// Stats summarizes a session's throughput.
type Stats struct {
	Samples       int
	Elapsed       time.Duration
	RatePerMinute float64
}

// Stats computes throughput at the current instant.
func (s *Session) Stats() Stats {
	elapsed := s.Duration()
	st := Stats{Samples: s.SampleCount, Elapsed: elapsed}
	if elapsed > 0 {
		st.RatePerMinute = float64(s.SampleCount) / elapsed.Minutes()
	}
	return st
}
