// Package flags manages command-line flags and environment variables for gifdeck.
// Every flag falls back to a GIFDECK_* environment variable bound through viper.
//
// Key components:
//   - RegisterClientFlags: Image service and session store settings.
//   - RegisterSystemFlags: Logging, scheduling and control API settings.
//   - RegisterNotificationFlags: Notification settings.
//   - ReadConfig: Collects the client settings.
//   - SetupLogging: Configures logrus based on flags.
//
// Usage example:
//
//	cmd := &cobra.Command{}
//	flags.SetDefaults()
//	flags.RegisterSystemFlags(cmd)
//	if err := flags.SetupLogging(cmd.PersistentFlags()); err != nil {
//	    logrus.WithError(err).Fatal("Logging setup failed")
//	}
package flags
