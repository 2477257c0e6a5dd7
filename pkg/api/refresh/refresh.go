// Package refresh provides the control API handler that triggers a refresh cycle.
package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// apiVersion is reported in every response body.
const apiVersion = "v1"

// Func runs one refresh cycle and returns the number of rendered images.
type Func func(ctx context.Context) (int, error)

// Handler serves POST /v1/refresh. Refreshes share a lock with the scheduler so that at
// most one runs at a time.
type Handler struct {
	fn   Func
	Path string
	lock chan bool
}

// New creates a Handler.
//
// Parameters:
//   - refreshFn: Refresh cycle.
//   - lock: Lock shared with the scheduler; nil creates a private one.
//
// Returns:
//   - *Handler: Handler serving /v1/refresh.
func New(refreshFn Func, lock chan bool) *Handler {
	if lock == nil {
		lock = make(chan bool, 1)
		lock <- true
	}

	return &Handler{
		fn:   refreshFn,
		Path: "/v1/refresh",
		lock: lock,
	}
}

// Handle runs a refresh. It answers 405 for methods other than POST, 429 while another
// refresh holds the lock, 502 when the refresh fails and 200 with the image count otherwise.
func (handle *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clog := logrus.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	})
	clog.Info("Received control API refresh request")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error":       "method not allowed",
			"api_version": apiVersion,
		})

		return
	}

	if _, err := io.Copy(io.Discard, r.Body); err != nil {
		clog.WithError(err).Debug("Failed to read request body")
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)

		return
	}

	select {
	case token := <-handle.lock:
		defer func() { handle.lock <- token }()
	default:
		clog.Debug("Skipped refresh, another refresh already in progress")

		w.Header().Set("Retry-After", "30")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "another refresh is already running",
			"api_version": apiVersion,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})

		return
	}

	startTime := time.Now()
	images, err := handle.fn(r.Context())
	duration := time.Since(startTime)

	timing := map[string]any{
		"duration_ms": duration.Milliseconds(),
		"duration":    duration.String(),
	}

	if err != nil {
		clog.WithError(err).Debug("Refresh through control API failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":       err.Error(),
			"timing":      timing,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"api_version": apiVersion,
		})

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"images":      images,
		"timing":      timing,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"api_version": apiVersion,
	})
}

// writeJSON encodes body before writing the status so that encoding failures become 500.
func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if _, err := w.Write(buf.Bytes()); err != nil {
		logrus.WithError(err).Error("Failed to write response")
	}
}
