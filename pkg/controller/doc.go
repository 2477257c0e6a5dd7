// Package controller turns user events into session-scoped calls against the image service
// and keeps the rendered list in step with the server.
//
// Every operation follows the same state machine: Idle, then InFlight, then Succeeded or
// Failed. Failures are shown on the view, logged and recorded in the report; a successful
// mutation is always followed by a refresh from the server.
//
// Key components:
//   - Controller: Upload, Remove, Reorder, Move, Reverse, Generate, NewSession and Refresh;
//     implements types.Handler.
//   - State, Kind: Action state machine values.
//   - ActionStatus: Outcome of one action, implementing types.ActionReport.
//   - NewReport: Groups statuses into a types.Report.
//
// Usage example:
//
//	ctrl := controller.New(apiClient, manager, synchronizer, controller.Options{ImagesOnly: true})
//	if err := ctrl.Upload(ctx, files); err != nil {
//	    logrus.WithError(err).Debug("Upload did not complete")
//	}
//
// Local edits made before confirmation are limited to Reorder, Reverse (no rollback on
// failure) and NewSession (the list is cleared before the server answers).
package controller
