package notifications

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// errInvalidLevel indicates an unparsable notifications-level flag.
var errInvalidLevel = errors.New("invalid notifications log level")

// defaultTitle is used when neither tag nor hostname is available.
const defaultTitle = "gifdeck events"

// NewNotifier creates a notifier from the notification flags of c.
//
// Parameters:
//   - c: Command whose flags were parsed.
//
// Returns:
//   - types.Notifier: Configured notifier.
//   - error: Non-nil if the level flag cannot be parsed.
func NewNotifier(c *cobra.Command) (types.Notifier, error) {
	flag := c.Flags()

	level, _ := flag.GetString("notifications-level")
	clog := LocalLog.WithField("level", level)

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidLevel, err)
	}

	reportTemplate, _ := flag.GetBool("notification-report")
	stdout, _ := flag.GetBool("notification-log-stdout")
	tplString, _ := flag.GetString("notification-template")
	urls, _ := flag.GetStringArray("notification-url")

	data := GetTemplateData(c)
	delay := GetDelay(c)

	clog.WithFields(logrus.Fields{
		"services":    len(urls),
		"template":    tplString,
		"skip_report": !reportTemplate,
		"stdout":      stdout,
		"delay":       delay,
		"hostname":    data.Host,
		"title":       data.Title,
	}).Debug("Creating notifier with configuration")

	return createNotifier(urls, logLevel, tplString, !reportTemplate, data, stdout, delay), nil
}

// GetDelay returns the notifications-delay flag as a duration, or zero when unset.
func GetDelay(c *cobra.Command) time.Duration {
	delay, _ := c.Flags().GetInt("notifications-delay")
	if delay > 0 {
		return time.Duration(delay) * time.Second
	}

	return 0
}

// GetTitle formats the title from hostname and tag.
//
// Parameters:
//   - hostname: Host name, may be empty.
//   - tag: Title prefix, may be empty.
//
// Returns:
//   - string: e.g. "[tag] gifdeck events on host".
func GetTitle(hostname string, tag string) string {
	titleBuilder := strings.Builder{}
	if tag != "" {
		titleBuilder.WriteRune('[')
		titleBuilder.WriteString(tag)
		titleBuilder.WriteRune(']')
		titleBuilder.WriteRune(' ')
	}

	titleBuilder.WriteString(defaultTitle)

	if hostname != "" {
		titleBuilder.WriteString(" on ")
		titleBuilder.WriteString(hostname)
	}

	return titleBuilder.String()
}

// GetTemplateData populates the static notification data from flags and the environment.
func GetTemplateData(c *cobra.Command) StaticData {
	flag := c.Flags()

	hostname, _ := flag.GetString("notifications-hostname")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}

	title := ""

	if skip, _ := flag.GetBool("notification-skip-title"); !skip {
		tag, _ := flag.GetString("notification-title-tag")
		title = GetTitle(hostname, tag)
	}

	LocalLog.WithFields(logrus.Fields{
		"hostname": hostname,
		"title":    title,
	}).Debug("Populated template data")

	server, _ := flag.GetString("server")

	return StaticData{
		Host:   hostname,
		Title:  title,
		Server: server,
	}
}
