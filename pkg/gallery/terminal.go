package gallery

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/nicholas-fedor/gifdeck/pkg/types"
)

// URLFunc maps an image name to the location shown next to it.
type URLFunc func(name string) string

// TerminalView prints the list to one writer and status lines (progress, errors, results)
// to another while keeping the list state of a MemoryView.
type TerminalView struct {
	*MemoryView

	out    io.Writer
	status io.Writer
	url    URLFunc
	quiet  atomic.Bool
	writes sync.Mutex
}

// NewTerminalView creates a TerminalView.
//
// Parameters:
//   - out: Destination for the list and, until SetStatusOutput is called, status lines.
//   - url: Location of each image; may be nil.
//   - quiet: Suppress list rendering, keeping progress, errors and results.
//
// Returns:
//   - *TerminalView: View writing to out.
func NewTerminalView(out io.Writer, url URLFunc, quiet bool) *TerminalView {
	view := &TerminalView{
		MemoryView: NewMemoryView(),
		out:        out,
		status:     out,
		url:        url,
	}
	view.quiet.Store(quiet)

	return view
}

// SetQuiet switches list rendering off or back on.
func (v *TerminalView) SetQuiet(quiet bool) {
	v.quiet.Store(quiet)
}

// SetStatusOutput sends progress, errors and results to w.
func (v *TerminalView) SetStatusOutput(w io.Writer) {
	v.writes.Lock()
	defer v.writes.Unlock()

	v.status = w
}

// Render stores and prints the list.
func (v *TerminalView) Render(list types.ImageList) {
	v.MemoryView.Render(list)

	if v.quiet.Load() {
		return
	}

	v.Print()
}

// Print writes the stored list, whether or not the view is quiet.
func (v *TerminalView) Print() {
	items := v.Items()

	v.writes.Lock()
	defer v.writes.Unlock()

	if len(items) == 0 {
		fmt.Fprintln(v.out, "No images in session.")

		return
	}

	for _, entry := range items {
		if v.url != nil {
			fmt.Fprintf(v.out, "%3d. %s\t%s\n", entry.Position, entry.Name, v.url(entry.Name))

			continue
		}

		fmt.Fprintf(v.out, "%3d. %s\n", entry.Position, entry.Name)
	}
}

// ShowError prints message.
func (v *TerminalView) ShowError(message string) {
	v.MemoryView.ShowError(message)

	v.writes.Lock()
	defer v.writes.Unlock()

	fmt.Fprintf(v.status, "Error: %s\n", message)
}

// ShowProgress prints the initial indicator.
func (v *TerminalView) ShowProgress() {
	v.MemoryView.ShowProgress()
	v.printProgress()
}

// SetProgress overwrites the indicator line.
func (v *TerminalView) SetProgress(percent string) {
	v.MemoryView.SetProgress(percent)
	v.printProgress()
}

// HideProgress ends the indicator line.
func (v *TerminalView) HideProgress() {
	_, visible := v.Progress()
	v.MemoryView.HideProgress()

	if !visible {
		return
	}

	v.writes.Lock()
	defer v.writes.Unlock()

	fmt.Fprintln(v.status)
}

// ShowResult prints the generated location.
func (v *TerminalView) ShowResult(location string) {
	v.MemoryView.ShowResult(location)

	v.writes.Lock()
	defer v.writes.Unlock()

	fmt.Fprintf(v.status, "GIF ready: %s\n", location)
}

func (v *TerminalView) printProgress() {
	percent, _ := v.Progress()

	v.writes.Lock()
	defer v.writes.Unlock()

	fmt.Fprintf(v.status, "\rProgress: %s", percent)
}
