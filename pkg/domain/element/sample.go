package element

import (
	"fmt"
	"strings"
	"time"

	"github.com/dshills/goax/pkg/domain/types"
	axerrors "github.com/dshills/goax/pkg/errors"
)

// TrainingSample pairs a command with the element it refers to. The target id
// is only meaningful against the embedded ScreenState.
type TrainingSample struct {
	ScreenState     *Snapshot       `json:"screen_state"`
	Command         string          `json:"command"`
	TargetElementID types.ElementID `json:"target_element_id"`
	ActionType      ActionKind      `json:"action_type,omitempty"`
	SessionID       types.SessionID `json:"session_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewTrainingSample builds a sample and checks that target resolves inside snap.
func NewTrainingSample(snap *Snapshot, command string, target types.ElementID, action ActionKind) (*TrainingSample, error) {
	s := &TrainingSample{
		ScreenState:     snap,
		Command:         strings.TrimSpace(command),
		TargetElementID: target,
		ActionType:      action,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate enforces the sample invariants.
func (s *TrainingSample) Validate() error {
	if s.ScreenState == nil {
		return axerrors.New(axerrors.Invalid, "sample", "missing screen state")
	}
	if s.Command == "" {
		return axerrors.New(axerrors.Invalid, "sample", "command must not be empty")
	}
	if _, ok := s.ScreenState.Element(s.TargetElementID); !ok {
		return axerrors.New(axerrors.NotFound, "sample",
			"target %d does not resolve in its snapshot of %d elements", s.TargetElementID, s.ScreenState.Len())
	}
	return nil
}

// Target returns the element the sample points at.
func (s *TrainingSample) Target() (Element, error) {
	if s.ScreenState == nil {
		return Element{}, fmt.Errorf("sample has no screen state")
	}
	e, ok := s.ScreenState.Element(s.TargetElementID)
	if !ok {
		return Element{}, axerrors.New(axerrors.NotFound, "sample", "target %d not in snapshot", s.TargetElementID)
	}
	return e, nil
}
