package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress of a timed load run.
type ProgressReporter interface {
	Start(total time.Duration)
	Update(elapsed time.Duration, admitted int64)
	Finish()
	Error(err error)
}

// SimpleProgress implements a single-line text progress bar.
type SimpleProgress struct {
	mu       sync.Mutex
	total    time.Duration
	elapsed  time.Duration
	admitted int64
	writer   io.Writer
}

// NewProgressReporter creates a new progress reporter that writes to w.
// If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{
		writer: w,
	}
}

// Start begins a run that is expected to last total.
func (p *SimpleProgress) Start(total time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.elapsed = 0
	p.admitted = 0

	p.render()
}

// Update records elapsed run time and admissions so far.
func (p *SimpleProgress) Update(elapsed time.Duration, admitted int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.elapsed = min(elapsed, p.total)
	p.admitted = admitted
	p.render()
}

// Finish marks the run as complete.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.elapsed = p.total
	p.render()
	fmt.Fprintln(p.writer)
}

// Error reports an error during the run.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ Error: %v\n", err)
}

func (p *SimpleProgress) render() {
	if p.total <= 0 {
		return
	}

	percent := float64(p.elapsed) / float64(p.total) * 100
	barWidth := 40
	filled := int(float64(barWidth) * percent / 100)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var rate float64
	if p.elapsed > 0 {
		rate = float64(p.admitted) / p.elapsed.Seconds()
	}

	fmt.Fprintf(p.writer, "\rProgress: [%s] %.1f%% (%s/%s) %d admitted, %.1f/s",
		bar, percent, p.elapsed.Round(100*time.Millisecond), p.total, p.admitted, rate)
}
