// Package metrics provides the control API handler serving Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nicholas-fedor/gifdeck/pkg/metrics"
)

// Handler serves GET /v1/metrics in the Prometheus exposition format.
type Handler struct {
	Path    string
	Handle  http.HandlerFunc
	Metrics *metrics.Metrics
}

// New creates a Handler over the default registry. It makes sure the default metrics exist.
func New() *Handler {
	return NewWithGatherer(prometheus.DefaultGatherer, metrics.Default())
}

// NewWithGatherer creates a Handler exposing gatherer.
func NewWithGatherer(gatherer prometheus.Gatherer, m *metrics.Metrics) *Handler {
	handler := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})

	return &Handler{
		Path:    "/v1/metrics",
		Handle:  handler.ServeHTTP,
		Metrics: m,
	}
}
