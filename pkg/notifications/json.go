package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

var _ json.Marshaler = Data{}

// errMarshalFailed indicates a failure to marshal notification data to JSON.
var errMarshalFailed = errors.New("failed to marshal notification data")

// jsonEntry is a logged entry in the json.v1 layout.
type jsonEntry struct {
	Level   logrus.Level  `json:"level"`
	Message string        `json:"message"`
	Data    logrus.Fields `json:"data"`
	Time    time.Time     `json:"time"`
}

// jsonAction is a finished action in the json.v1 layout.
type jsonAction struct {
	Kind       string `json:"kind"`
	Target     string `json:"target,omitempty"`
	State      string `json:"state"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

type jsonReport struct {
	All       []jsonAction `json:"all"`
	Succeeded []jsonAction `json:"succeeded"`
	Failed    []jsonAction `json:"failed"`
}

type jsonData struct {
	Title   string      `json:"title"`
	Host    string      `json:"host"`
	Server  string      `json:"server,omitempty"`
	Entries []jsonEntry `json:"entries"`
	Report  *jsonReport `json:"report"`
}

// MarshalJSON encodes the batch for the json.v1 template. A missing report is encoded as null.
//
// Returns:
//   - []byte: JSON-encoded data.
//   - error: Non-nil if an entry field cannot be encoded.
func (d Data) MarshalJSON() ([]byte, error) {
	out := jsonData{
		Title:   d.Title,
		Host:    d.Host,
		Server:  d.Server,
		Entries: make([]jsonEntry, 0, len(d.Entries)),
	}

	for _, entry := range d.Entries {
		out.Entries = append(out.Entries, jsonEntry{
			Level:   entry.Level,
			Message: entry.Message,
			Data:    entry.Data,
			Time:    entry.Time,
		})
	}

	if d.Report != nil {
		out.Report = &jsonReport{
			All:       toJSONActions(d.Report.All()),
			Succeeded: toJSONActions(d.Report.Succeeded()),
			Failed:    toJSONActions(d.Report.Failed()),
		}
	}

	bytes, err := json.Marshal(out)
	if err != nil {
		LocalLog.WithError(err).WithField("entries", len(d.Entries)).
			Error("Failed to marshal notification data to JSON")

		return nil, fmt.Errorf("%w: %w", errMarshalFailed, err)
	}

	return bytes, nil
}

func toJSONActions(reports []types.ActionReport) []jsonAction {
	actions := make([]jsonAction, 0, len(reports))

	for _, report := range reports {
		actions = append(actions, jsonAction{
			Kind:       report.Kind(),
			Target:     report.Target(),
			State:      report.State(),
			Error:      report.Error(),
			DurationMS: report.Duration().Milliseconds(),
		})
	}

	return actions
}
