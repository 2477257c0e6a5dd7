// Package progress accounts for request body bytes as they are sent and turns them into the
// percentage shown by the upload and generation progress indicators.
//
// Key components:
//   - Reader: io.ReadCloser wrapper reporting loaded/total byte counts.
//   - Percent: Converts counts to a 0–100 value when the total is computable.
//   - Format: Renders a percentage with two decimals ("42.50%").
//   - ToView: Adapts a progress callback to a view's percentage display.
//
// Usage example:
//
//	body := progress.NewReader(payload, int64(payload.Len()), progress.ToView(view))
//	req.Body = body
//
// A total of zero or less means the length is not computable; no percentage is produced
// for such transfers.
package progress
