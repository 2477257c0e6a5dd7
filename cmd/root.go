package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/gifdeck/internal/flags"
	"github.com/nicholas-fedor/gifdeck/internal/meta"
	"github.com/nicholas-fedor/gifdeck/pkg/client"
	"github.com/nicholas-fedor/gifdeck/pkg/controller"
	"github.com/nicholas-fedor/gifdeck/pkg/gallery"
	"github.com/nicholas-fedor/gifdeck/pkg/metrics"
	"github.com/nicholas-fedor/gifdeck/pkg/notifications"
	"github.com/nicholas-fedor/gifdeck/pkg/session"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// errReported marks failures that the controller already surfaced through the view and log.
var errReported = errors.New("action failed")

// app holds the components built from flags for one invocation.
type app struct {
	config       flags.Config
	client       *client.APIClient
	store        types.SessionStore
	sessions     *session.Manager
	view         *gallery.TerminalView
	synchronizer *gallery.Synchronizer
	controller   *controller.Controller
	notifier     types.Notifier
	cycle        *reportCollector
	out          io.Writer
	closers      []func() error
}

// deck is the app of the running command, set by preRun.
var deck *app

// reportCollector gathers finished actions between two notification batches.
type reportCollector struct {
	mu       sync.Mutex
	statuses []*controller.ActionStatus
}

func (r *reportCollector) observe(status *controller.ActionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.statuses = append(r.statuses, status)
}

// flush returns the gathered actions as a report and starts a new batch.
func (r *reportCollector) flush() types.Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := controller.NewReport(r.statuses)
	r.statuses = nil

	return report
}

// NewRootCommand creates the root command with every flag and subcommand registered.
//
// Returns:
//   - *cobra.Command: Root command ready for Execute.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "gifdeck",
		Short: "Uploads images to a GIF service session and builds GIFs from them",
		Long: "\ngifdeck keeps a session with an image-to-GIF service: it uploads images, keeps their order," +
			"\nremoves entries, and asks the service to assemble the GIF.",
		PersistentPreRunE:  preRun,
		PersistentPostRunE: postRun,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}

	flags.SetDefaults()
	flags.RegisterClientFlags(root)
	flags.RegisterSystemFlags(root)
	flags.RegisterNotificationFlags(root)

	root.AddCommand(
		newSessionCommand(),
		newNewSessionCommand(),
		newUploadCommand(),
		newListCommand(),
		newRemoveCommand(),
		newReorderCommand(),
		newMoveCommand(),
		newReverseCommand(),
		newGenerateCommand(),
		newFetchCommand(),
		newWatchCommand(),
	)

	return root
}

// Execute loads .env, runs the root command and exits non-zero on failure.
func Execute() {
	if err := loadDotEnv(".env"); err != nil {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	err := NewRootCommand().Execute()
	if err == nil {
		return
	}

	if deck != nil {
		deck.close()
	}

	if !errors.Is(err, errReported) {
		logrus.WithError(err).Error("Command failed")
	}

	os.Exit(1)
}

// loadDotEnv loads path into the environment, ignoring a missing file. Variables already
// set take precedence.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	return nil
}

// preRun processes flag aliases, sets up logging and notifications and builds the app.
func preRun(cmd *cobra.Command, _ []string) error {
	flagsSet := cmd.Flags()

	if err := flags.ProcessFlagAliases(flagsSet); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if err := flags.SetupLogging(flagsSet); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	if err := flags.GetSecretsFromFiles(cmd.Root()); err != nil {
		return fmt.Errorf("failed to read secrets: %w", err)
	}

	config, err := flags.ReadConfig(flagsSet)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	notifier, err := notifications.NewNotifier(cmd)
	if err != nil {
		return fmt.Errorf("failed to set up notifications: %w", err)
	}

	notifier.AddLogHook()

	deck, err = newApp(cmd.Context(), config, notifier, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		notifier.Close()

		return err
	}

	return nil
}

// postRun flushes notifications and releases the session store.
func postRun(_ *cobra.Command, _ []string) error {
	if deck == nil {
		return nil
	}

	deck.close()

	return nil
}

// newApp wires the components of one invocation.
//
// Parameters:
//   - ctx: Context for store setup.
//   - config: Client settings.
//   - notifier: Notifier receiving reports.
//   - out: Destination of the printed list and downloads to stdout.
//   - status: Destination of progress, errors and results.
//
// Returns:
//   - *app: Wired app.
//   - error: Non-nil if the session store cannot be set up.
func newApp(
	ctx context.Context,
	config flags.Config,
	notifier types.Notifier,
	out, status io.Writer,
) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	wired := &app{
		config:   config,
		notifier: notifier,
		cycle:    &reportCollector{},
		out:      out,
	}

	store, closer, err := newSessionStore(ctx, config)
	if err != nil {
		return nil, err
	}

	if closer != nil {
		wired.closers = append(wired.closers, closer)
	}

	wired.store = store
	wired.client = client.New(client.Options{
		BaseURL:      config.Server,
		Prefix:       config.Prefix,
		Timeout:      config.Timeout,
		StreamBodies: config.StreamUploads,
		UserAgent:    meta.UserAgent,
	})
	wired.sessions = session.NewManager(wired.client, store)
	wired.view = gallery.NewTerminalView(out, wired.client.ImageURL, true)
	wired.view.SetStatusOutput(status)
	wired.synchronizer = gallery.NewSynchronizer(wired.client, wired.sessions, wired.view)
	wired.controller = controller.New(wired.client, wired.sessions, wired.synchronizer, controller.Options{
		ImagesOnly: config.ImagesOnly,
		Observers:  []controller.Observer{wired.cycle.observe, wired.recordMetric},
	})

	logrus.WithFields(logrus.Fields{
		"server": wired.client.Root(),
		"store":  store.Name(),
	}).Debug("Configured gifdeck")

	return wired, nil
}

// newSessionStore builds the store selected by --session-store. The returned closer, when
// not nil, releases connections held by the store.
func newSessionStore(ctx context.Context, config flags.Config) (types.SessionStore, func() error, error) {
	switch config.Store {
	case flags.StoreMemory:
		return session.NewMemoryStore(), nil, nil
	case flags.StoreRedis:
		redisClient, err := session.NewRedisClient(ctx, config.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to set up redis session store: %w", err)
		}

		return session.NewRedisStore(redisClient, config.Profile, config.Server, config.RedisTTL),
			redisClient.Close,
			nil
	default:
		path := config.SessionFile
		if path == "" {
			defaultPath, err := session.DefaultFilePath()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to locate session file: %w", err)
			}

			path = defaultPath
		}

		return session.NewFileStore(path, config.Profile, config.Server), nil, nil
	}
}

// recordMetric feeds finished actions into the metrics collectors.
func (a *app) recordMetric(status *controller.ActionStatus) {
	metrics.Default().Register(metrics.NewMetric(status, len(a.synchronizer.Items())))
}

// runAction runs fn inside a notification batch carrying the report of its actions.
// Failures already surfaced by the controller are returned as errReported.
func (a *app) runAction(ctx context.Context, fn func(ctx context.Context) error) error {
	a.notifier.StartNotification()

	err := fn(ctx)

	a.notifier.SendNotification(a.cycle.flush())

	if err != nil {
		return fmt.Errorf("%w: %w", errReported, err)
	}

	return nil
}

// close flushes notifications and releases store connections.
func (a *app) close() {
	a.notifier.Close()

	for _, closer := range a.closers {
		if err := closer(); err != nil {
			logrus.WithError(err).Debug("Failed to release session store")
		}
	}

	a.closers = nil
}
