// Package cmd contains the command-line interface of gifdeck.
//
// Commands:
//   - session, new-session: Print or replace the session id.
//   - upload, remove, reorder, move, reverse: Change the image list and print it.
//   - list: Print the image list, optionally as JSON.
//   - generate, fetch: Build the GIF and download files.
//   - watch: Refresh on a schedule and serve the control API.
//
// Usage examples:
//   - Run the CLI from main.go:
//     cmd.Execute()
//   - Upload two images and build a GIF with 200 ms frames:
//     gifdeck upload a.png b.png && gifdeck generate --duration 200 -o out.gif
package cmd
