package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// Issuer obtains session identifiers from the server.
type Issuer interface {
	IssueSession(ctx context.Context, current types.SessionID) (types.SessionID, error)
	NewSession(ctx context.Context, current types.SessionID) (types.SessionID, error)
}

// Manager owns the session identifier of one controller.
//
// The mutex is held across network calls, so concurrent first calls to ID collapse into a
// single issuance request.
type Manager struct {
	issuer Issuer
	store  types.SessionStore

	mu     sync.Mutex
	id     types.SessionID
	loaded bool
	hooks  []func()
}

// NewManager creates a Manager.
//
// Parameters:
//   - issuer: Server side of session issuance.
//   - store: Persistence for the identifier.
//
// Returns:
//   - *Manager: New manager with no cached identifier.
func NewManager(issuer Issuer, store types.SessionStore) *Manager {
	return &Manager{
		issuer: issuer,
		store:  store,
	}
}

// OnReset registers a hook run synchronously by Reset before the new-session request is sent.
func (m *Manager) OnReset(hook func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.hooks = append(m.hooks, hook)
}

// Store returns the backing store.
func (m *Manager) Store() types.SessionStore {
	return m.store
}

// Current returns the cached identifier without consulting the store or the server.
func (m *Manager) Current() types.SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.id
}

// ID returns the session identifier, resolving it on first use.
//
// Parameters:
//   - ctx: Context for store and network calls.
//
// Returns:
//   - types.SessionID: Identifier shared by every call until Reset.
//   - error: ErrSessionUnavailable wrapping the cause on failure.
func (m *Manager) ID(ctx context.Context) (types.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.id != "" {
		return m.id, nil
	}

	if !m.loaded {
		stored, err := m.store.Load(ctx)
		if err != nil {
			logrus.WithError(err).
				WithField("store", m.store.Name()).
				Warn("Could not read stored session, requesting a new one")
		}

		m.loaded = true

		if stored != "" {
			m.id = stored
			logrus.WithFields(logrus.Fields{
				"session": stored.ShortID(),
				"store":   m.store.Name(),
			}).Debug("Using stored session")

			return m.id, nil
		}
	}

	id, err := m.issuer.IssueSession(ctx, "")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	if err := m.store.Save(ctx, id); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	m.id = id
	logrus.WithField("session", id.ShortID()).Info("Session issued")

	return id, nil
}

// Reset abandons the current session. Reset hooks run before the network call; if the
// new-session request fails the identifier stays cleared and the next ID call issues one.
// When the stored identifier cannot be cleared nothing changes and no hook runs.
//
// Parameters:
//   - ctx: Context for store and network calls.
//
// Returns:
//   - types.SessionID: New identifier.
//   - error: ErrSessionUnavailable wrapping the cause on failure.
func (m *Manager) Reset(ctx context.Context) (types.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		return "", fmt.Errorf("%w: failed to clear stored session: %w", ErrSessionUnavailable, err)
	}

	previous := m.id
	m.id = ""
	m.loaded = true

	for _, hook := range m.hooks {
		hook()
	}

	id, err := m.issuer.NewSession(ctx, previous)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	if err := m.store.Save(ctx, id); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionUnavailable, err)
	}

	m.id = id
	logrus.WithFields(logrus.Fields{
		"previous": previous.ShortID(),
		"session":  id.ShortID(),
	}).Info("Started new session")

	return id, nil
}
