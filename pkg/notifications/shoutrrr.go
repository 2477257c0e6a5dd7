package notifications

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/sirupsen/logrus"

	shoutrrrTypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/nicholas-fedor/gifdeck/pkg/notifications/templates"
	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// LocalLog is a logrus logger that does not send entries as notifications.
var LocalLog = logrus.WithField("notify", "no")

// initialEntriesCapacity is the starting capacity of a notification batch.
const initialEntriesCapacity = 10

// router sends a rendered message to every configured service.
type router interface {
	Send(message string, params *shoutrrrTypes.Params) []error
}

// shoutrrrNotifier implements types.Notifier and logrus.Hook on top of a shoutrrr router.
type shoutrrrNotifier struct {
	Urls           []string
	Router         router
	logLevel       logrus.Level
	template       *template.Template
	legacyTemplate bool
	params         *shoutrrrTypes.Params
	data           StaticData
	delay          time.Duration
	messages       chan string
	done           chan struct{}

	mu        sync.Mutex
	entries   []*logrus.Entry
	receiving bool
	closed    bool
}

var _ types.Notifier = &shoutrrrNotifier{}

// GetScheme extracts the scheme part of a shoutrrr URL, or "invalid" when there is none.
func GetScheme(url string) string {
	schemeEnd := strings.Index(url, ":")
	if schemeEnd <= 0 {
		return "invalid"
	}

	return url[:schemeEnd]
}

// GetNames returns the service names derived from the URL schemes.
func (n *shoutrrrNotifier) GetNames() []string {
	names := make([]string, len(n.Urls))
	for i, u := range n.Urls {
		names[i] = GetScheme(u)
	}

	return names
}

// GetURLs returns the configured service URLs.
func (n *shoutrrrNotifier) GetURLs() []string {
	return n.Urls
}

// GetEntries returns a copy of the entries queued in the current batch.
func (n *shoutrrrNotifier) GetEntries() []*logrus.Entry {
	n.mu.Lock()
	defer n.mu.Unlock()

	entries := make([]*logrus.Entry, len(n.entries))
	copy(entries, n.entries)

	return entries
}

// AddLogHook registers the notifier as a logrus hook and starts the sending goroutine.
// Calling it again has no effect.
func (n *shoutrrrNotifier) AddLogHook() {
	n.mu.Lock()
	if n.receiving || n.closed {
		n.mu.Unlock()

		return
	}

	n.receiving = true
	n.mu.Unlock()

	logrus.AddHook(n)

	go sendNotifications(n)
}

// createNotifier builds a shoutrrr notifier for urls. An unusable template falls back to
// the default one for the selected mode. When stdout is set, shoutrrr's own log output goes
// to stdout instead of the logrus trace level.
func createNotifier(
	urls []string,
	level logrus.Level,
	tplString string,
	legacy bool,
	data StaticData,
	stdout bool,
	delay time.Duration,
) *shoutrrrNotifier {
	tpl, err := getShoutrrrTemplate(tplString, legacy)
	if err != nil {
		LocalLog.WithError(err).Error("Could not use configured notification template, using default template")

		tpl, _ = getShoutrrrTemplate("", legacy)
	}

	var logger shoutrrrTypes.StdLogger
	if stdout {
		logger = log.New(os.Stdout, ``, 0)
	} else {
		logger = log.New(logrus.StandardLogger().WriterLevel(logrus.TraceLevel), "Shoutrrr: ", 0)
	}

	router, err := shoutrrr.NewSender(logger, urls...)
	if err != nil {
		LocalLog.WithError(err).Fatal("Failed to initialize Shoutrrr notifications")
	}

	params := &shoutrrrTypes.Params{}
	if data.Title != "" {
		params.SetTitle(data.Title)
	}

	return &shoutrrrNotifier{
		Urls:           urls,
		Router:         router,
		messages:       make(chan string, 1),
		done:           make(chan struct{}),
		logLevel:       level,
		template:       tpl,
		legacyTemplate: legacy,
		data:           data,
		params:         params,
		delay:          delay,
	}
}

// sendNotifications delivers queued messages until the channel is closed.
func sendNotifications(notifier *shoutrrrNotifier) {
	defer close(notifier.done)

	for msg := range notifier.messages {
		time.Sleep(notifier.delay)

		errs := notifier.Router.Send(msg, notifier.params)
		for i, err := range errs {
			if err == nil {
				continue
			}

			scheme := "unknown"
			if i < len(notifier.Urls) {
				scheme = GetScheme(notifier.Urls[i])
			}

			LocalLog.WithFields(logrus.Fields{
				"service": scheme,
				"index":   i,
			}).WithError(err).Error("Failed to send shoutrrr notification")
		}
	}
}

// buildMessage renders data with the configured template. Legacy templates only see the entries.
func (n *shoutrrrNotifier) buildMessage(data Data) (string, error) {
	var body bytes.Buffer

	var templateData any = data
	if n.legacyTemplate {
		templateData = data.Entries
	}

	if err := n.template.Execute(&body, templateData); err != nil {
		return "", fmt.Errorf("failed to execute notification template: %w", err)
	}

	return body.String(), nil
}

// sendEntries renders and queues one message. Empty messages are skipped.
func (n *shoutrrrNotifier) sendEntries(entries []*logrus.Entry, report types.Report) {
	msg, err := n.buildMessage(Data{n.data, entries, report})
	if err != nil {
		LocalLog.WithError(err).Error("Notification template error")

		return
	}

	if msg == "" {
		LocalLog.Debug("Skipping notification due to empty message")

		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed || !n.receiving {
		LocalLog.Debug("Notifier is not running, dropping message")

		return
	}

	n.messages <- msg
}

// StartNotification begins collecting entries into a batch.
func (n *shoutrrrNotifier) StartNotification() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.entries == nil {
		n.entries = make([]*logrus.Entry, 0, initialEntriesCapacity)
	}
}

// SendNotification sends the batch together with report and ends the batch.
func (n *shoutrrrNotifier) SendNotification(report types.Report) {
	n.mu.Lock()
	entries := n.entries
	n.entries = nil
	n.mu.Unlock()

	n.sendEntries(entries, report)
}

// Close stops queuing and waits until every queued message has been handed to the router.
// It is safe to call more than once.
func (n *shoutrrrNotifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()

		return
	}

	n.closed = true
	receiving := n.receiving
	close(n.messages)
	n.mu.Unlock()

	if !receiving {
		return
	}

	LocalLog.Debug("Waiting for the notification goroutine to finish")

	<-n.done
}

// Levels returns the log levels that trigger notifications.
func (n *shoutrrrNotifier) Levels() []logrus.Level {
	return logrus.AllLevels[:n.logLevel+1]
}

// Fire adds entry to the running batch, or sends it on its own when no batch is open.
func (n *shoutrrrNotifier) Fire(entry *logrus.Entry) error {
	if entry.Data["notify"] == "no" {
		return nil
	}

	n.mu.Lock()
	if n.entries != nil {
		n.entries = append(n.entries, entry)
		n.mu.Unlock()

		return nil
	}
	n.mu.Unlock()

	n.sendEntries([]*logrus.Entry{entry}, nil)

	return nil
}

// getShoutrrrTemplate parses tplString, resolving built-in template names first. An empty
// string selects "default", or "default-legacy" in legacy mode.
func getShoutrrrTemplate(tplString string, legacy bool) (*template.Template, error) {
	tplBase := template.New("").Funcs(templates.Funcs)

	if builtin, found := commonTemplates[tplString]; found {
		LocalLog.WithField("template", tplString).Debug("Using common template")

		tplString = builtin
	}

	if tplString == "" {
		defaultKey := `default`
		if legacy {
			defaultKey = `default-legacy`
		}

		return template.Must(tplBase.Parse(commonTemplates[defaultKey])), nil
	}

	tpl, err := tplBase.Parse(tplString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification template string: %w", err)
	}

	return tpl, nil
}
