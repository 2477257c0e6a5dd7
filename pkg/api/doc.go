// Package api provides the control server of watch mode.
// Every route requires an "Authorization: Bearer <token>" header.
//
// Key components:
//   - API: Route registration, token check and server lifecycle.
//   - refresh: POST /v1/refresh triggers a refresh cycle.
//   - images: GET /v1/images returns the rendered list.
//   - metrics: GET /v1/metrics serves the Prometheus exposition.
//
// Usage example:
//
//	server := api.New(token, ":8080")
//	handler := refresh.New(refreshFn, lock)
//	server.RegisterFunc(handler.Path, handler.Handle)
//	if err := server.Start(ctx, false); err != nil {
//	    logrus.WithError(err).Error("API start failed")
//	}
package api
