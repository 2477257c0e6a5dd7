// Package scheduling runs the periodic refresh loop of watch mode.
package scheduling

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/metrics"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// refreshWaitTimeout bounds how long shutdown waits for a running refresh.
const refreshWaitTimeout = 60 * time.Second

// RefreshFunc performs one refresh cycle, including its notifications.
type RefreshFunc func(ctx context.Context) error

// NewLock returns a lock channel holding its single token.
func NewLock() chan bool {
	lock := make(chan bool, 1)
	lock <- true

	return lock
}

// WaitForRunningRefresh blocks until a running refresh returns the lock token, the timeout
// expires or ctx is done.
//
// Parameters:
//   - ctx: Context for early cancellation.
//   - lock: Channel holding the token while no refresh runs.
func WaitForRunningRefresh(ctx context.Context, lock chan bool) {
	if len(lock) != 0 {
		logrus.Debug("No refresh running, lock available.")

		return
	}

	select {
	case v := <-lock:
		lock <- v

		logrus.Debug("Lock acquired, refresh finished.")
	case <-time.After(refreshWaitTimeout):
		logrus.Warn("Timeout waiting for running refresh to finish, proceeding with shutdown.")
	case <-ctx.Done():
		logrus.Warn("Context cancelled while waiting for running refresh.")
	}
}

// RunRefreshesOnSchedule runs refresh on the cron schedule until ctx is done or the process
// receives SIGINT or SIGTERM. A cycle that finds the lock taken is skipped and counted in
// the metrics.
//
// Parameters:
//   - ctx: Context controlling the loop.
//   - lock: Lock shared with the control API, or nil for a private one.
//   - scheduleSpec: Cron spec; empty disables periodic refreshes.
//   - refreshOnStart: Whether to refresh once before the first scheduled run.
//   - writeStartupMessage: Called with the first scheduled run time.
//   - refresh: The refresh cycle.
//   - notifier: Closed on shutdown, may be nil.
//
// Returns:
//   - error: Non-nil if scheduleSpec cannot be parsed.
func RunRefreshesOnSchedule(
	ctx context.Context,
	lock chan bool,
	scheduleSpec string,
	refreshOnStart bool,
	writeStartupMessage func(next time.Time),
	refresh RefreshFunc,
	notifier types.Notifier,
) error {
	if lock == nil {
		lock = NewLock()
	}

	scheduler := cron.New()

	runCycle := func() {
		select {
		case v := <-lock:
			defer func() { lock <- v }()

			if err := refresh(ctx); err != nil {
				logrus.WithError(err).Debug("Refresh cycle failed")
			}
		default:
			metrics.Default().Register(nil)
			logrus.Debug("Skipped refresh, another one is already running.")
		}

		if entries := scheduler.Entries(); len(entries) > 0 {
			logrus.Debug("Scheduled next refresh: " + entries[0].Next.String())
		}
	}

	if scheduleSpec != "" {
		if err := scheduler.AddFunc(scheduleSpec, runCycle); err != nil {
			return fmt.Errorf("failed to schedule refreshes: %w", err)
		}
	}

	var nextRun time.Time
	if entries := scheduler.Entries(); len(entries) > 0 {
		nextRun = entries[0].Schedule.Next(time.Now())
	}

	writeStartupMessage(nextRun)

	if refreshOnStart {
		runCycle()
	}

	scheduler.Start()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	select {
	case <-ctx.Done():
		logrus.Debug("Context canceled, stopping scheduler...")
	case <-interrupt:
		logrus.Debug("Received interrupt signal, stopping scheduler...")
	}

	scheduler.Stop()
	logrus.Debug("Waiting for running refresh to be finished...")

	WaitForRunningRefresh(ctx, lock)

	if notifier != nil {
		notifier.Close()
	}

	logrus.Debug("Scheduler stopped.")

	return nil
}
