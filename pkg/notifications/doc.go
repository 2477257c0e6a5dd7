// Package notifications forwards gifdeck events to external services through shoutrrr.
//
// The notifier registers itself as a logrus hook. Entries logged at or above the configured
// level are collected into a batch between StartNotification and SendNotification, rendered
// with a text/template together with the action report, and handed to a shoutrrr router on a
// background goroutine. Entries logged outside a batch are sent on their own.
//
// Key components:
//   - Notifier Creation: Reads notification flags (notifier.go).
//   - Shoutrrr Integration: Hook, batching and delivery (shoutrrr.go).
//   - Templates: Built-in message templates (common_templates.go).
//   - JSON Marshaling: Report and entry encoding for json.v1 (json.go).
//
// Usage example:
//
//	notifier := notifications.NewNotifier(cmd)
//	notifier.AddLogHook()
//	notifier.StartNotification()
//	notifier.SendNotification(ctrl.Report())
//	notifier.Close()
package notifications
