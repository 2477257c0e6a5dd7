// Package logging writes the startup message of long-running gifdeck commands.
package logging

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/gifdeck/pkg/notifications"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// Startup describes what the startup message reports.
type Startup struct {
	Version string
	Server  string
	Store   string
	Session types.SessionID
	Next    time.Time
}

// WriteStartupMessage logs version, service, session store, notifier and schedule details.
// Unless --no-startup-message is set the lines are batched and sent through notifier.
//
// Parameters:
//   - c: Command providing the startup and control API flags.
//   - startup: Values to report.
//   - notifier: Notifier receiving the batch, may be nil.
func WriteStartupMessage(c *cobra.Command, startup Startup, notifier types.Notifier) {
	flags := c.Flags()

	noStartupMessage, _ := flags.GetBool("no-startup-message")
	enableAPI, _ := flags.GetBool("http-api")
	apiHost, _ := flags.GetString("http-api-host")

	apiPort, _ := flags.GetString("http-api-port")
	if apiPort == "" {
		apiPort = "8080"
	}

	if noStartupMessage {
		return
	}

	startupLog := SetupStartupLogger(noStartupMessage, notifier)

	startupLog.Info("gifdeck ", startup.Version, " using image service at ", startup.Server)
	startupLog.WithField("store", startup.Store).Info("Keeping the session id in the " + startup.Store + " store")

	if startup.Session != "" {
		startupLog.WithField("session", startup.Session.ShortID()).Debug("Resuming session")
	}

	var notifierNames []string
	if notifier != nil {
		notifierNames = notifier.GetNames()
	}

	LogNotifierInfo(startupLog, notifierNames)
	LogScheduleInfo(startupLog, startup.Next)

	if enableAPI {
		startupLog.Info(fmt.Sprintf("The control API is enabled at %s:%s.", apiHost, apiPort))
	}

	if notifier != nil {
		notifier.SendNotification(nil)
	}

	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		startupLog.Warn("Trace level enabled: log will include session ids and request bodies")
	}
}

// SetupStartupLogger returns the entry used for startup lines. Suppressed messages go to
// the local log only; otherwise a notification batch is started.
func SetupStartupLogger(noStartupMessage bool, notifier types.Notifier) *logrus.Entry {
	if noStartupMessage {
		return notifications.LocalLog
	}

	if notifier != nil {
		notifier.StartNotification()
	}

	return logrus.NewEntry(logrus.StandardLogger())
}

// LogNotifierInfo logs the configured notification services.
func LogNotifierInfo(log *logrus.Entry, notifierNames []string) {
	if len(notifierNames) > 0 {
		log.Info("Using notifications: " + strings.Join(notifierNames, ", "))
	} else {
		log.Info("Using no notifications")
	}
}

// LogScheduleInfo logs when the first scheduled refresh runs.
func LogScheduleInfo(log *logrus.Entry, next time.Time) {
	if next.IsZero() {
		log.Info("Periodic refreshes are not enabled.")

		return
	}

	until := time.Until(next).Round(time.Second)
	if until < 0 {
		until = 0
	}

	log.Info("Scheduling first refresh: " + next.Format("2006-01-02 15:04:05 -0700 MST"))
	log.Info("Note that the first refresh will be performed in " + until.String())
}
