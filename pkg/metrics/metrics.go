package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// Outcome label values.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// refreshKind is the action kind whose metric carries the rendered list size.
const refreshKind = "refresh"

var metrics *Metrics

// Metric holds the data points of one finished action.
type Metric struct {
	Kind     string        // Action kind, e.g. "upload".
	Failed   bool          // Whether the action failed.
	Duration time.Duration // Time in flight.
	Images   int           // Rendered entries after the action.
}

// Metrics handles processing and exposing action metrics.
type Metrics struct {
	channel      chan *Metric             // Channel for queuing metrics.
	actions      *prometheus.CounterVec   // Actions by kind and outcome.
	durations    *prometheus.HistogramVec // Action durations by kind.
	images       prometheus.Gauge         // Rendered entries after the last refresh.
	skipped      prometheus.Counter       // Refresh cycles skipped while one was running.
	dropped      prometheus.Counter       // Metrics dropped due to full channel.
	stopCh       chan struct{}            // Channel for shutdown signaling.
	shutdownOnce sync.Once                // Ensures shutdown is called only once.
	//nolint:containedctx
	ctx    context.Context    // Context for cancellation.
	cancel context.CancelFunc // Cancel function for the context.
}

// NewWithRegistry creates a new Metrics handler with a custom Prometheus registry.
//
// Parameters:
//   - registry: Prometheus registerer to use for metric registration.
//
// Returns:
//   - (*Metrics, error): Metrics handler with its processing goroutine, or an error if a
//     collector is already registered.
func NewWithRegistry(registry prometheus.Registerer) (*Metrics, error) {
	metrics := newMetrics()

	collectors := []prometheus.Collector{
		metrics.actions,
		metrics.durations,
		metrics.images,
		metrics.skipped,
		metrics.dropped,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			alreadyRegisteredError := &prometheus.AlreadyRegisteredError{}
			if errors.As(err, &alreadyRegisteredError) {
				metrics.cancel()

				return nil, fmt.Errorf("failed to register metric: %w", err)
			}
		}
	}

	go metrics.HandleUpdate()

	return metrics, nil
}

// newMetrics builds the collectors without registering them or starting the goroutine.
func newMetrics() *Metrics {
	// channelBufferSize sets the metrics channel capacity.
	const channelBufferSize = 10

	ctx, cancel := context.WithCancel(context.Background())

	return &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gifdeck_actions_total",
			Help: "Number of finished actions by kind and outcome",
		}, []string{"kind", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gifdeck_action_duration_seconds",
			Help:    "Time actions spent in flight",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		images: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gifdeck_images",
			Help: "Number of images rendered after the last successful refresh",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gifdeck_refreshes_skipped_total",
			Help: "Number of refresh cycles skipped because one was already running",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gifdeck_metrics_dropped_total",
			Help: "Number of metrics dropped due to full channel",
		}),
		channel: make(chan *Metric, channelBufferSize),
		stopCh:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// NewMetric creates a Metric from a finished action.
//
// Parameters:
//   - action: Finished action.
//   - images: Rendered entries after the action.
//
// Returns:
//   - *Metric: New metric instance.
func NewMetric(action types.ActionReport, images int) *Metric {
	if action == nil {
		panic("NewMetric: action is nil")
	}

	return &Metric{
		Kind:     action.Kind(),
		Failed:   action.Error() != "",
		Duration: action.Duration(),
		Images:   images,
	}
}

// QueueIsEmpty checks if the metrics channel is empty.
//
// Returns:
//   - bool: True if empty, false otherwise.
func (m *Metrics) QueueIsEmpty() bool {
	return len(m.channel) == 0
}

// Register attempts to enqueue a metric for processing.
// If the channel is full, the metric is dropped and the dropped counter is incremented.
//
// Parameters:
//   - metric: Metric to register; nil records a skipped refresh cycle.
func (m *Metrics) Register(metric *Metric) {
	select {
	case m.channel <- metric:
	default:
		m.dropped.Inc()
	}
}

// Default initializes or returns the singleton Metrics handler. It panics on registration
// failure, such as duplicate registration against the default registry.
//
// Returns:
//   - *Metrics: Metrics handler with Prometheus metrics and goroutine.
func Default() *Metrics {
	if metrics != nil {
		return metrics
	}

	var err error

	metrics, err = NewWithRegistry(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}

	return metrics
}

// Shutdown stops the processing goroutine. It is safe to call more than once.
func (m *Metrics) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.stopCh)
		m.cancel()
	})
}

// HandleUpdate processes metrics from the channel until shutdown.
func (m *Metrics) HandleUpdate() {
	for {
		select {
		case change, ok := <-m.channel:
			if !ok {
				return
			}

			m.apply(change)
		case <-m.stopCh:
			return
		case <-m.ctx.Done():
			return
		}
	}
}

// apply updates the collectors with one metric.
func (m *Metrics) apply(change *Metric) {
	if change == nil {
		m.skipped.Inc()

		return
	}

	outcome := OutcomeSucceeded
	if change.Failed {
		outcome = OutcomeFailed
	}

	m.actions.WithLabelValues(change.Kind, outcome).Inc()
	m.durations.WithLabelValues(change.Kind).Observe(change.Duration.Seconds())

	if change.Kind == refreshKind && !change.Failed {
		m.images.Set(float64(change.Images))
	}
}
