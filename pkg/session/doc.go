// Package session resolves and persists the identifier that scopes every call to the image
// service. A Manager caches the identifier for the lifetime of the process, consults a
// types.SessionStore on first use and asks the server for one when nothing is stored.
//
// Key components:
//   - Manager: ID and Reset operations with reset hooks.
//   - MemoryStore: Process-local store.
//   - FileStore: YAML file keyed by profile and server.
//   - RedisStore: Redis key per profile and server with optional expiry.
//
// Usage example:
//
//	store := session.NewFileStore(path, "default", server)
//	manager := session.NewManager(apiClient, store)
//	manager.OnReset(synchronizer.Clear)
//	id, err := manager.ID(ctx)
//
// Every failure to obtain or persist an identifier matches ErrSessionUnavailable.
package session
