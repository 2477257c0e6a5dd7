// Package templates provides the function map available to notification templates.
package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Funcs are the helpers usable in notification templates.
var Funcs = template.FuncMap{
	"ToUpper":  strings.ToUpper,
	"ToLower":  strings.ToLower,
	"Title":    cases.Title(language.AmericanEnglish).String,
	"ToJSON":   toJSON,
	"Duration": roundDuration,
}

// toJSON renders v as indented JSON. Failures end up in the message text.
func toJSON(v any) string {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"notify": "no",
			"type":   fmt.Sprintf("%T", v),
		}).Warn("Notification template could not encode value as JSON")

		return "JSON encoding failed: " + err.Error()
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

// roundDuration shortens action durations to milliseconds.
func roundDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
