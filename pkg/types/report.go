package types

import "time"

// Report defines the action outcomes collected during a run.
type Report interface {
	Succeeded() []ActionReport // Actions that completed successfully.
	Failed() []ActionReport    // Actions that ended in failure.
	All() []ActionReport       // All finished actions, oldest first.
}

// ActionReport defines a single action's outcome.
type ActionReport interface {
	Kind() string            // Action kind, e.g. "upload".
	State() string           // Human-readable state.
	Error() string           // Error message, if any.
	Target() string          // Image name or other subject, if any.
	Duration() time.Duration // Time spent in flight.
}
