// Package progress renders a transient stderr progress bar while the
// analyzer works through a file set.
package progress

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker drives a progress bar over a known number of files and counts
// ticks so callers can report how many files were actually processed.
type Tracker struct {
	bar     *progressbar.ProgressBar
	label   string
	started time.Time
	ticks   atomic.Int64
}

// NewTracker creates a tracker for total files under the given label.
func NewTracker(label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, label: label, started: time.Now()}
}

// Tick records one processed file. Safe for concurrent use.
func (t *Tracker) Tick() {
	t.ticks.Add(1)
	t.bar.Add(1)
}

// Count returns how many ticks have been recorded.
func (t *Tracker) Count() int {
	return int(t.ticks.Load())
}

// Elapsed returns the time since the tracker was created.
func (t *Tracker) Elapsed() time.Duration {
	return time.Since(t.started)
}

// FinishSuccess clears the bar without output.
func (t *Tracker) FinishSuccess() {
	t.bar.Finish()
	t.bar.Clear()
}

// FinishError clears the bar and prints the error to stderr.
func (t *Tracker) FinishError(err error) {
	t.bar.Finish()
	t.bar.Clear()
	fmt.Fprintf(os.Stderr, "  %s error: %v\n", t.label, err)
}
