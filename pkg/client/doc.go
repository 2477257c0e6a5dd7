// Package client implements the wire client for the image uploader / GIF generator service.
// Every call is scoped to a session through the X-Session-ID header and carries an
// X-Request-ID for log correlation.
//
// Key components:
//   - APIClient: Blocking, context-aware calls for each service endpoint.
//   - Options: Base URL, path prefix, timeout and body streaming configuration.
//   - LocalFile, BytesFile: types.File implementations for disk and in-memory uploads.
//   - RejectedError: Server answered 2xx with success set to false.
//
// Usage example:
//
//	c := client.New(client.Options{BaseURL: "http://localhost:5000"})
//	id, err := c.IssueSession(ctx, "")
//	if err != nil {
//	    logrus.WithError(err).Fatal("No session")
//	}
//	names, err := c.ListImages(ctx, id)
//
// Errors are classified as ErrNetworkFailure (transport, status or decoding problems) or
// ErrServerRejected (explicit failure payload); no call is retried.
package client
