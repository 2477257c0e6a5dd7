package controller

import (
	"time"
)

// State enum values.
const (
	IdleState      State = iota // No action of this kind has run.
	InFlightState               // Request outstanding.
	SucceededState              // Last action succeeded.
	FailedState                 // Last action failed.
)

// State is the position of an action in its lifecycle.
type State int

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case IdleState:
		return "Idle"
	case InFlightState:
		return "InFlight"
	case SucceededState:
		return "Succeeded"
	case FailedState:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Kind names a user action.
type Kind string

// Action kinds.
const (
	KindUpload     Kind = "upload"
	KindGenerate   Kind = "generate"
	KindRemove     Kind = "remove"
	KindReorder    Kind = "reorder"
	KindReverse    Kind = "reverse"
	KindNewSession Kind = "new-session"
	KindRefresh    Kind = "refresh"
)

// Kinds lists every action kind.
var Kinds = []Kind{
	KindUpload,
	KindGenerate,
	KindRemove,
	KindReorder,
	KindReverse,
	KindNewSession,
	KindRefresh,
}

// ActionStatus records one action from start to terminal state.
//
//nolint:errname // ActionStatus is not an error type, it contains an error field.
type ActionStatus struct {
	kind     Kind
	target   string
	state    State
	err      error
	started  time.Time
	finished time.Time
}

func newActionStatus(kind Kind, target string) *ActionStatus {
	return &ActionStatus{
		kind:    kind,
		target:  target,
		state:   InFlightState,
		started: time.Now(),
	}
}

// complete moves the status to its terminal state.
func (s *ActionStatus) complete(err error) {
	s.finished = time.Now()
	s.err = err

	if err != nil {
		s.state = FailedState

		return
	}

	s.state = SucceededState
}

// Kind returns the action kind.
func (s *ActionStatus) Kind() string {
	return string(s.kind)
}

// Target returns the image name or other subject of the action.
func (s *ActionStatus) Target() string {
	return s.target
}

// State returns the human-readable state name.
func (s *ActionStatus) State() string {
	return s.state.String()
}

// Error returns the failure message, or an empty string.
func (s *ActionStatus) Error() string {
	if s.err == nil {
		return ""
	}

	return s.err.Error()
}

// Err returns the failure cause.
func (s *ActionStatus) Err() error {
	return s.err
}

// Started returns when the action began.
func (s *ActionStatus) Started() time.Time {
	return s.started
}

// Duration returns the time spent in flight.
func (s *ActionStatus) Duration() time.Duration {
	if s.finished.IsZero() {
		return time.Since(s.started)
	}

	return s.finished.Sub(s.started)
}
