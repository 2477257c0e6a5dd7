// Package types defines the core interfaces and value types shared by gifdeck packages.
// It provides abstractions for sessions, the rendered image list, user-facing views,
// notification delivery, and the action handler implemented by the controller.
//
// Key components:
//   - SessionID: Opaque server-issued session identifier.
//   - SessionStore: Interface for persisting the session identifier across runs.
//   - ImageEntry / ImageList: The ordered image list as rendered to the user.
//   - View: Interface for rendering the list, errors, progress and results.
//   - Handler: Interface mapping user events to controller operations.
//   - Notifier: Interface for alert delivery services.
//   - Report: Interface for action outcomes during a run.
//
// Usage example:
//
//	var view types.View = gallery.NewMemoryView()
//	list := types.NewImageList([]string{"a.png", "b.png"})
//	view.Render(list)
//
// The package has no behaviour of its own; implementations live in the session, gallery,
// controller and notifications packages.
package types
