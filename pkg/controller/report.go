package controller

import (
	"sort"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// report implements types.Report.
type report struct {
	succeeded []types.ActionReport
	failed    []types.ActionReport
	all       []types.ActionReport
}

// Succeeded returns the successful actions.
func (r *report) Succeeded() []types.ActionReport {
	return r.succeeded
}

// Failed returns the failed actions.
func (r *report) Failed() []types.ActionReport {
	return r.failed
}

// All returns every finished action, oldest first.
func (r *report) All() []types.ActionReport {
	return r.all
}

// NewReport groups finished statuses by outcome. In-flight statuses are left out.
//
// Parameters:
//   - statuses: Statuses in any order.
//
// Returns:
//   - types.Report: Report ordered by start time.
func NewReport(statuses []*ActionStatus) types.Report {
	finished := make([]*ActionStatus, 0, len(statuses))
	for _, status := range statuses {
		if status.state == SucceededState || status.state == FailedState {
			finished = append(finished, status)
		}
	}

	sort.SliceStable(finished, func(i, j int) bool {
		return finished[i].started.Before(finished[j].started)
	})

	result := &report{
		succeeded: make([]types.ActionReport, 0),
		failed:    make([]types.ActionReport, 0),
		all:       make([]types.ActionReport, 0, len(finished)),
	}

	for _, status := range finished {
		result.all = append(result.all, status)

		if status.state == FailedState {
			result.failed = append(result.failed, status)

			continue
		}

		result.succeeded = append(result.succeeded, status)
	}

	return result
}
