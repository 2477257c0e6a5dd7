package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/gifdeck/internal/api"
	"github.com/nicholas-fedor/gifdeck/internal/logging"
	"github.com/nicholas-fedor/gifdeck/internal/meta"
	"github.com/nicholas-fedor/gifdeck/internal/scheduling"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

func newWatchCommand() *cobra.Command {
	var refreshOnStart bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the image list refreshed on a schedule and serve the control API",
		Long: "\nwatch refreshes the image list on the schedule given by --interval or --schedule and prints" +
			"\nit after every refresh. With --http-api a token-guarded control API exposes POST /v1/refresh," +
			"\nGET /v1/images and GET /v1/metrics.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, refreshOnStart)
		},
	}

	cmd.Flags().BoolVar(&refreshOnStart, "refresh-on-start", true, "Refresh once before the first scheduled run")

	return cmd
}

// runWatch starts the control API when enabled and blocks in the scheduler until the
// context ends or the process is interrupted.
func runWatch(cmd *cobra.Command, refreshOnStart bool) error {
	flagsSet := cmd.Flags()

	scheduleSpec, _ := flagsSet.GetString("schedule")
	enableAPI, _ := flagsSet.GetBool("http-api")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	deck.view.SetQuiet(false)

	lock := scheduling.NewLock()

	if enableAPI {
		opts := api.Options{}
		opts.Host, _ = flagsSet.GetString("http-api-host")
		opts.Port, _ = flagsSet.GetString("http-api-port")
		opts.Token, _ = flagsSet.GetString("http-api-token")

		refreshFn := func(ctx context.Context) (int, error) {
			err := deck.refreshCycle(ctx)

			return len(deck.controller.Items()), err
		}

		if err := api.SetupAndStartAPI(ctx, opts, lock, refreshFn, deck.controller.Items); err != nil {
			return err
		}
	}

	writeStartupMessage := func(next time.Time) {
		logging.WriteStartupMessage(cmd, logging.Startup{
			Version: meta.Version,
			Server:  deck.client.Root(),
			Store:   deck.store.Name(),
			Session: deck.sessions.Current(),
			Next:    next,
		}, deck.notifier)
	}

	err := scheduling.RunRefreshesOnSchedule(
		ctx,
		lock,
		scheduleSpec,
		refreshOnStart,
		writeStartupMessage,
		deck.refreshCycle,
		deck.notifier,
	)
	if err != nil {
		return fmt.Errorf("watch stopped: %w", err)
	}

	return nil
}

// refreshCycle refreshes the list inside a notification batch. The report is attached only
// when an action failed, so quiet cycles send nothing.
func (a *app) refreshCycle(ctx context.Context) error {
	a.notifier.StartNotification()

	err := a.controller.Refresh(ctx)

	var report types.Report
	if collected := a.cycle.flush(); len(collected.Failed()) > 0 {
		report = collected
	}

	a.notifier.SendNotification(report)

	return err
}
