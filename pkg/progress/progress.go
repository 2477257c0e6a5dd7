package progress

import (
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

// percentScale converts a loaded/total ratio into a percentage.
const percentScale = 100

// Initial is the text shown when an indicator is first displayed.
const Initial = "0%"

// Func receives the number of bytes sent so far and the total, or a total of -1
// when the length is not computable.
type Func func(loaded, total int64)

// Reader wraps a request body and reports every read through a Func.
type Reader struct {
	source io.Reader
	total  int64
	loaded int64
	report Func
}

// NewReader creates a Reader.
//
// Parameters:
//   - source: Underlying body.
//   - total: Body length in bytes, or -1 if unknown.
//   - report: Callback invoked after each successful read; may be nil.
//
// Returns:
//   - *Reader: Wrapped body.
func NewReader(source io.Reader, total int64, report Func) *Reader {
	return &Reader{
		source: source,
		total:  total,
		report: report,
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.source.Read(p)
	if n > 0 {
		r.loaded += int64(n)
		if r.report != nil {
			r.report(r.loaded, r.total)
		}
	}

	return n, err //nolint:wrapcheck // io.Reader contract requires io.EOF unwrapped.
}

// Close closes the underlying body if it is closable, so that a streaming producer
// blocked on a pipe is released when the transport gives up early.
func (r *Reader) Close() error {
	if closer, ok := r.source.(io.Closer); ok {
		return closer.Close() //nolint:wrapcheck
	}

	return nil
}

// Loaded returns the number of bytes read so far.
func (r *Reader) Loaded() int64 {
	return r.loaded
}

// Percent converts byte counts into a percentage.
//
// Parameters:
//   - loaded: Bytes sent so far.
//   - total: Total bytes, zero or negative when not computable.
//
// Returns:
//   - float64: Percentage clamped to 0–100.
//   - bool: False when the total is not computable; the percentage is then meaningless.
func Percent(loaded, total int64) (float64, bool) {
	if total <= 0 {
		return 0, false
	}

	percent := float64(loaded) / float64(total) * percentScale
	if math.IsNaN(percent) || percent < 0 {
		return 0, true
	}

	return math.Min(percent, percentScale), true
}

// Format renders a percentage with two decimals, e.g. "42.50%".
func Format(percent float64) string {
	return strconv.FormatFloat(percent, 'f', 2, 64) + "%"
}

// Display is the part of a view that shows a percentage.
type Display interface {
	SetProgress(percent string)
}

// ToView returns a Func that pushes computable percentages to a display.
// Non-computable totals leave the display untouched and are logged once.
//
// Parameters:
//   - display: Percentage sink.
//
// Returns:
//   - Func: Callback suitable for NewReader.
func ToView(display Display) Func {
	var once sync.Once

	return func(loaded, total int64) {
		percent, ok := Percent(loaded, total)
		if !ok {
			once.Do(func() {
				logrus.WithField("loaded", loaded).Debug("Upload length is not computable, progress not shown")
			})

			return
		}

		display.SetProgress(Format(percent))
	}
}
