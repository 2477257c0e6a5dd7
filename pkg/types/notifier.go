package types

import "github.com/sirupsen/logrus"

// Notifier defines the common interface for alert delivery services.
type Notifier interface {
	StartNotification()             // Begin queuing messages.
	SendNotification(report Report) // Send queued messages with report.
	AddLogHook()                    // Add as logrus hook.
	GetNames() []string             // Service names.
	GetURLs() []string              // Service URLs.
	Close()                         // Stop and flush notifications.
	GetEntries() []*logrus.Entry    // Queued entries of the current batch.
}
