package types

import "context"

// SessionID is the opaque identifier the server issues to scope uploads and ordering.
type SessionID string

// String returns the identifier as a plain string.
func (id SessionID) String() string {
	return string(id)
}

// ShortID returns the first eight characters of the identifier for log output.
//
// Returns:
//   - string: Shortened identifier, or the full value if it is already short.
func (id SessionID) ShortID() string {
	const shortLength = 8

	if len(id) <= shortLength {
		return string(id)
	}

	return string(id[:shortLength])
}

// SessionStore persists a session identifier between process runs.
//
// Load returns an empty SessionID and a nil error when nothing has been stored yet.
type SessionStore interface {
	Load(ctx context.Context) (SessionID, error)  // Read the stored identifier.
	Save(ctx context.Context, id SessionID) error // Persist the identifier.
	Clear(ctx context.Context) error              // Forget the identifier.
	Name() string                                 // Store kind, used in logs.
}
