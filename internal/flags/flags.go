package flags

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultServer is the image service address used when none is configured.
const DefaultServer = "http://localhost:5000"

// defaultIntervalSeconds defines the default refresh interval of watch mode.
const defaultIntervalSeconds = 30

// defaultTimeout bounds a single request to the image service.
const defaultTimeout = 30 * time.Second

// defaultRedisTTL is how long a session id stays in redis without being touched.
const defaultRedisTTL = 24 * time.Hour

// Session store kinds accepted by --session-store.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// errInvalidLogFormat indicates an invalid log format was specified.
var errInvalidLogFormat = errors.New("invalid log format specified")

// errInvalidLogLevel indicates an invalid log level was specified.
var errInvalidLogLevel = errors.New("invalid log level specified")

// errInvalidStore indicates an unknown --session-store value.
var errInvalidStore = errors.New("invalid session store specified")

// errOpenFileFailed indicates a failure to open a file for reading secrets.
var errOpenFileFailed = errors.New("failed to open secret file")

// errCloseFileFailed indicates a failure to close a file after reading secrets.
var errCloseFileFailed = errors.New("failed to close secret file")

// errReplaceSliceFailed indicates a failure to replace a slice value in a flag.
var errReplaceSliceFailed = errors.New("failed to replace slice value in flag")

// errReadFileFailed indicates a failure to read a file's contents.
var errReadFileFailed = errors.New("failed to read secret file")

// errSetFlagFailed indicates a failure to set or read a flag's value.
var errSetFlagFailed = errors.New("failed to set flag value")

// errInvalidFlagName indicates an invalid flag name was provided.
var errInvalidFlagName = errors.New("invalid flag name provided")

// errNotSliceValue indicates a flag does not support slice values.
var errNotSliceValue = errors.New("flag does not support slice values")

// errScheduleConflict indicates both --schedule and --interval were given.
var errScheduleConflict = errors.New("only schedule or interval can be defined, not both")

// errUnknownPorcelain indicates an unsupported --porcelain version.
var errUnknownPorcelain = errors.New("unknown porcelain version")

// Config holds the client settings shared by every command.
type Config struct {
	Server        string
	Prefix        string
	Timeout       time.Duration
	Store         string
	SessionFile   string
	RedisURL      string
	RedisTTL      time.Duration
	Profile       string
	ImagesOnly    bool
	StreamUploads bool
}

// RegisterClientFlags adds the image service and session store flags to the root command.
func RegisterClientFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.StringP(
		"server",
		"s",
		envString("GIFDECK_SERVER"),
		"Base URL of the image service")

	flags.String(
		"api-prefix",
		envString("GIFDECK_API_PREFIX"),
		"Path prefix in front of every service endpoint")

	flags.DurationP(
		"timeout",
		"t",
		envDuration("GIFDECK_TIMEOUT"),
		"Timeout of a single request to the image service")

	flags.String(
		"session-store",
		envString("GIFDECK_SESSION_STORE"),
		"Where the session id is kept between runs. Possible values: file, memory, redis")

	flags.String(
		"session-file",
		envString("GIFDECK_SESSION_FILE"),
		"Path of the session file (default: user config dir)")

	flags.String(
		"redis-url",
		envString("GIFDECK_REDIS_URL"),
		"Redis URL used by the redis session store")

	flags.Duration(
		"redis-ttl",
		envDuration("GIFDECK_REDIS_TTL"),
		"Expiry of session ids kept in redis")

	flags.StringP(
		"profile",
		"p",
		envString("GIFDECK_PROFILE"),
		"Name of the session profile")

	flags.Bool(
		"images-only",
		envBool("GIFDECK_IMAGES_ONLY"),
		"Skip files that are not images before uploading")

	flags.Bool(
		"stream-uploads",
		envBool("GIFDECK_STREAM_UPLOADS"),
		"Stream request bodies instead of buffering them (progress becomes non-computable)")
}

// RegisterSystemFlags adds logging, scheduling and control API flags to the root command.
func RegisterSystemFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.IntP(
		"interval",
		"i",
		envInt("GIFDECK_INTERVAL"),
		"Refresh interval of watch mode (in seconds)")

	flags.String(
		"schedule",
		envString("GIFDECK_SCHEDULE"),
		"The cron expression which defines when watch mode refreshes")

	flags.Bool(
		"no-startup-message",
		envBool("GIFDECK_NO_STARTUP_MESSAGE"),
		"Prevents gifdeck from logging a startup message")

	flags.StringP(
		"log-format",
		"l",
		viper.GetString("GIFDECK_LOG_FORMAT"),
		"Sets what logging format to use for console output. Possible values: Auto, LogFmt, Pretty, JSON",
	)

	flags.BoolP(
		"debug",
		"d",
		envBool("GIFDECK_DEBUG"),
		"Enable debug mode with verbose logging")

	flags.Bool(
		"trace",
		envBool("GIFDECK_TRACE"),
		"Enable trace mode with very verbose logging")

	flags.String(
		"log-level",
		envString("GIFDECK_LOG_LEVEL"),
		"The maximum log level that will be written to STDERR. Possible values: panic, fatal, error, warn, info, debug or trace",
	)

	// https://no-color.org/
	flags.Bool(
		"no-color",
		viper.IsSet("NO_COLOR"),
		"Disable ANSI color escape codes in log output")

	flags.StringP(
		"porcelain",
		"P",
		envString("GIFDECK_PORCELAIN"),
		`Write action results to stdout using a stable versioned format. Supported values: "v1"`)

	flags.Bool(
		"http-api",
		envBool("GIFDECK_HTTP_API"),
		"Serve the control API while watching")

	flags.String(
		"http-api-host",
		envString("GIFDECK_HTTP_API_HOST"),
		"Address to bind the control API to (default: all interfaces)")

	flags.String(
		"http-api-port",
		envString("GIFDECK_HTTP_API_PORT"),
		"Port to bind the control API to (default: 8080)")

	flags.String(
		"http-api-token",
		envString("GIFDECK_HTTP_API_TOKEN"),
		"Sets an authentication token to control API requests")
}

// RegisterNotificationFlags adds flags for configuring notifications to the root command.
func RegisterNotificationFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.String(
		"notifications-level",
		envString("GIFDECK_NOTIFICATIONS_LEVEL"),
		"The log level used for sending notifications. Possible values: panic, fatal, error, warn, info or debug",
	)

	flags.Int(
		"notifications-delay",
		envInt("GIFDECK_NOTIFICATIONS_DELAY"),
		"Delay before sending notifications, expressed in seconds")

	flags.String(
		"notifications-hostname",
		envString("GIFDECK_NOTIFICATIONS_HOSTNAME"),
		"Custom hostname for notification titles")

	flags.StringArray(
		"notification-url",
		envStringSlice("GIFDECK_NOTIFICATION_URL"),
		"The shoutrrr URL to send notifications to")

	flags.String(
		"notification-template",
		envString("GIFDECK_NOTIFICATION_TEMPLATE"),
		"The shoutrrr text/template for the messages")

	flags.Bool(
		"notification-report",
		envBool("GIFDECK_NOTIFICATION_REPORT"),
		"Use the action report as the notification template data")

	flags.String(
		"notification-title-tag",
		envString("GIFDECK_NOTIFICATION_TITLE_TAG"),
		"Title prefix tag for notifications")

	flags.Bool(
		"notification-skip-title",
		envBool("GIFDECK_NOTIFICATION_SKIP_TITLE"),
		"Do not pass the title param to notifications")

	flags.Bool(
		"notification-log-stdout",
		envBool("GIFDECK_NOTIFICATION_LOG_STDOUT"),
		"Write notification logs to stdout instead of logging (to stderr)")
}

// envString retrieves a string value from an environment variable via Viper.
func envString(key string) string {
	viper.MustBindEnv(key)

	return viper.GetString(key)
}

// envStringSlice retrieves a string slice from an environment variable via Viper.
func envStringSlice(key string) []string {
	viper.MustBindEnv(key)

	return viper.GetStringSlice(key)
}

// envInt retrieves an integer value from an environment variable via Viper.
func envInt(key string) int {
	viper.MustBindEnv(key)

	return viper.GetInt(key)
}

// envBool retrieves a boolean value from an environment variable via Viper.
func envBool(key string) bool {
	viper.MustBindEnv(key)

	return viper.GetBool(key)
}

// envDuration retrieves a duration value from an environment variable via Viper.
func envDuration(key string) time.Duration {
	viper.MustBindEnv(key)

	return viper.GetDuration(key)
}

// SetDefaults configures default values for environment variables.
func SetDefaults() {
	viper.AutomaticEnv()
	viper.SetDefault("GIFDECK_SERVER", DefaultServer)
	viper.SetDefault("GIFDECK_TIMEOUT", defaultTimeout)
	viper.SetDefault("GIFDECK_SESSION_STORE", StoreFile)
	viper.SetDefault("GIFDECK_REDIS_TTL", defaultRedisTTL)
	viper.SetDefault("GIFDECK_INTERVAL", defaultIntervalSeconds)
	viper.SetDefault("GIFDECK_HTTP_API_PORT", "8080")
	viper.SetDefault("GIFDECK_NOTIFICATIONS_LEVEL", "info")
	viper.SetDefault("GIFDECK_LOG_LEVEL", "info")
	viper.SetDefault("GIFDECK_LOG_FORMAT", "auto")
}

// ReadConfig collects the client settings from flags.
//
// Parameters:
//   - flags: Parsed flag set.
//
// Returns:
//   - Config: Client settings.
//   - error: Non-nil if a flag is missing or the session store is unknown.
func ReadConfig(flags *pflag.FlagSet) (Config, error) {
	var config Config

	var err error

	if config.Server, err = flags.GetString("server"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.Prefix, err = flags.GetString("api-prefix"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.Store, err = flags.GetString("session-store"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.SessionFile, err = flags.GetString("session-file"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.RedisURL, err = flags.GetString("redis-url"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.RedisTTL, err = flags.GetDuration("redis-ttl"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.Profile, err = flags.GetString("profile"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.ImagesOnly, err = flags.GetBool("images-only"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if config.StreamUploads, err = flags.GetBool("stream-uploads"); err != nil {
		return Config{}, fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	switch config.Store {
	case "":
		config.Store = StoreFile
	case StoreFile, StoreMemory, StoreRedis:
	default:
		return Config{}, fmt.Errorf("%w: %q", errInvalidStore, config.Store)
	}

	if config.Server == "" {
		config.Server = DefaultServer
	}

	return config, nil
}

// GetSecretsFromFiles replaces secret flag values with file contents if they reference files.
func GetSecretsFromFiles(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()

	secrets := []string{
		"notification-url",
		"http-api-token",
		"redis-url",
	}
	for _, secret := range secrets {
		if err := getSecretFromFile(flags, secret); err != nil {
			return fmt.Errorf("failed to get secret from flag %v: %w", secret, err)
		}
	}

	return nil
}

// getSecretFromFile updates a flag's value with file contents if it references a file.
// Slice flags read one value per non-empty line.
func getSecretFromFile(flags *pflag.FlagSet, secret string) error {
	flag := flags.Lookup(secret)
	if flag == nil {
		return fmt.Errorf("%w: %q", errInvalidFlagName, secret)
	}

	if sliceValue, ok := flag.Value.(pflag.SliceValue); ok {
		oldValues := sliceValue.GetSlice()
		values := make([]string, 0, len(oldValues))

		for _, value := range oldValues {
			if value == "" || !isFilePath(value) {
				values = append(values, value)

				continue
			}

			file, err := os.Open(value)
			if err != nil {
				return fmt.Errorf("%w: %w", errOpenFileFailed, err)
			}

			scanner := bufio.NewScanner(file)
			for scanner.Scan() {
				line := scanner.Text()
				if line == "" {
					continue
				}

				values = append(values, line)
			}

			if err := file.Close(); err != nil {
				return fmt.Errorf("%w: %w", errCloseFileFailed, err)
			}
		}

		if err := sliceValue.Replace(values); err != nil {
			return fmt.Errorf("%w: %w", errReplaceSliceFailed, err)
		}

		return nil
	}

	value := flag.Value.String()
	if value != "" && isFilePath(value) {
		content, err := os.ReadFile(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errReadFileFailed, err)
		}

		if err := flags.Set(secret, strings.TrimSpace(string(content))); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	return nil
}

// isFilePath reports whether path names an existing file. Values with a colon past the
// drive letter position, such as URLs, are never treated as paths.
func isFilePath(path string) bool {
	firstColon := strings.IndexRune(path, ':')
	if firstColon != 1 && firstColon != -1 {
		return false
	}

	_, err := os.Stat(path)

	return !errors.Is(err, os.ErrNotExist)
}

// ProcessFlagAliases expands helper flags into the flags they stand for: --porcelain into
// the logger notification settings, --interval into --schedule, --debug and --trace into
// --log-level.
func ProcessFlagAliases(flags *pflag.FlagSet) error {
	porcelain, err := flags.GetString("porcelain")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if porcelain != "" {
		if porcelain != "v1" {
			return fmt.Errorf("%w: %q", errUnknownPorcelain, porcelain)
		}

		if err = appendFlagValue(flags, "notification-url", "logger://"); err != nil {
			return err
		}

		setFlagIfDefault(flags, "notification-log-stdout", "true")
		setFlagIfDefault(flags, "notification-report", "true")

		tpl := fmt.Sprintf("porcelain.%s.summary-no-log", porcelain)
		setFlagIfDefault(flags, "notification-template", tpl)
	}

	scheduleChanged := flags.Changed("schedule")
	intervalChanged := flags.Changed("interval")

	if val, _ := flags.GetString("schedule"); val != "" {
		scheduleChanged = true
	}

	if val, _ := flags.GetInt("interval"); val != defaultIntervalSeconds {
		intervalChanged = true
	}

	if intervalChanged && scheduleChanged {
		return errScheduleConflict
	}

	if intervalChanged || !scheduleChanged {
		interval, _ := flags.GetInt("interval")
		if err := flags.Set("schedule", fmt.Sprintf("@every %ds", interval)); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	if flagIsEnabled(flags, "debug") {
		if err := flags.Set("log-level", "debug"); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	if flagIsEnabled(flags, "trace") {
		if err := flags.Set("log-level", "trace"); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	return nil
}

// SetupLogging configures the global logger based on log-related flags.
func SetupLogging(flags *pflag.FlagSet) error {
	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if err := configureLogFormat(logFormat, noColor); err != nil {
		return err
	}

	rawLogLevel, err := flags.GetString("log-level")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	logLevel, err := logrus.ParseLevel(rawLogLevel)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	logrus.SetLevel(logLevel)

	return nil
}

// configureLogFormat sets the logrus formatter for logFormat.
func configureLogFormat(logFormat string, noColor bool) error {
	switch strings.ToLower(logFormat) {
	case "auto":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors:             noColor,
			EnvironmentOverrideColors: true,
		})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "logfmt":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case "pretty":
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !noColor,
			FullTimestamp: false,
		})
	default:
		return fmt.Errorf("%w: %s", errInvalidLogFormat, logFormat)
	}

	return nil
}

// flagIsEnabled reports whether a boolean flag is set. Undefined flags count as disabled.
func flagIsEnabled(flags *pflag.FlagSet, name string) bool {
	value, err := flags.GetBool(name)
	if err != nil {
		logrus.WithField("flag", name).Debug("Flag is not defined")

		return false
	}

	return value
}

// appendFlagValue appends values to a slice-type flag.
func appendFlagValue(flags *pflag.FlagSet, name string, values ...string) error {
	flag := flags.Lookup(name)
	if flag == nil {
		return fmt.Errorf("%w: %q", errInvalidFlagName, name)
	}

	flagValues, ok := flag.Value.(pflag.SliceValue)
	if !ok {
		return fmt.Errorf("%w: %q", errNotSliceValue, name)
	}

	for _, value := range values {
		if err := flagValues.Append(value); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	return nil
}

// setFlagIfDefault sets a flag's value if it hasn't been explicitly changed.
func setFlagIfDefault(flags *pflag.FlagSet, name string, value string) {
	if flags.Changed(name) {
		return
	}

	if err := flags.Set(name, value); err != nil {
		logrus.WithError(err).WithField("flag", name).Error("Failed to set flag")
	}
}
