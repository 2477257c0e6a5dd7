// Package metrics tracks and exposes gifdeck action metrics.
// It integrates with Prometheus to count actions by kind and outcome, time them, and
// report the size of the rendered image list.
//
// Key components:
//   - Metrics: Handles metric queuing and updates.
//   - NewMetric: Creates a metric from a finished action.
//
// Usage example:
//
//	m := metrics.Default()
//	m.Register(metrics.NewMetric(status, len(items)))
//	if !m.QueueIsEmpty() {
//	    logrus.Debug("Metrics queued")
//	}
//
// A nil metric records a skipped refresh cycle.
package metrics
