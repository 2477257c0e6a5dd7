package session

import "errors"

var (
	// ErrSessionUnavailable indicates that no session identifier could be obtained or persisted.
	ErrSessionUnavailable = errors.New("session unavailable")

	errLoadStore  = errors.New("failed to load session store")
	errSaveStore  = errors.New("failed to save session store")
	errClearStore = errors.New("failed to clear session store")
	errRedisURL   = errors.New("invalid redis url")
)
