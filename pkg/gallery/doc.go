// Package gallery keeps the rendered image list consistent with the server.
//
// The Synchronizer fetches the authoritative list and renders it on a types.View. Each
// refresh takes a ticket; a response is applied only if no newer response, local edit or
// session reset happened since its request was issued, so a late answer never overwrites
// fresher state.
//
// Views:
//   - MemoryView: Thread-safe in-memory view used by watch mode and tests.
//   - TerminalView: Writes the list, errors and progress to an io.Writer.
package gallery
