// Package progress reports byte throughput of long-running backup and
// restore operations through structured logs.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// tick is how often the tracker samples the byte counter
const tick = 250 * time.Millisecond

// Tracker counts processed bytes and periodically logs progress
type Tracker struct {
	processed atomic.Uint64
	total     uint64

	logger   *slog.Logger
	label    string
	interval time.Duration

	mu      sync.Mutex
	running bool
	done    chan struct{}
	exited  chan struct{}
	started time.Time
}

// New creates a tracker for an operation expected to process total bytes.
// A zero total is reported without percentage or ETA.
func New(logger *slog.Logger, label string, total uint64) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		total:    total,
		logger:   logger,
		label:    label,
		interval: time.Second,
	}
}

// SetInterval changes how often progress lines are emitted. It has no
// effect once the tracker is running.
func (t *Tracker) SetInterval(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running && d > 0 {
		t.interval = d
	}
}

// Start launches the reporting goroutine. Calling Start twice is harmless.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return
	}
	t.processed.Store(0)
	t.done = make(chan struct{})
	t.exited = make(chan struct{})
	t.started = time.Now()
	t.running = true
	go t.report(t.done, t.exited)
}

// Stop ends reporting and logs a final summary. It blocks until the
// reporting goroutine has exited.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.done)
	exited := t.exited
	t.mu.Unlock()
	<-exited
}

// AddBytes adds processed bytes to the counter
func (t *Tracker) AddBytes(n uint64) {
	if n > 0 {
		t.processed.Add(n)
	}
}

// Processed returns the number of bytes counted so far
func (t *Tracker) Processed() uint64 {
	return t.processed.Load()
}

// Total returns the expected byte count
func (t *Tracker) Total() uint64 {
	return t.total
}

func (t *Tracker) report(done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var prevBytes uint64
	var prevPercentage float64
	lastSample := time.Now()
	lastOutput := time.Now()

	t.logger.Debug("progress started", "op", t.label, "total", humanize.IBytes(t.total))

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			current := t.processed.Load()
			elapsed := now.Sub(lastSample).Seconds()
			if elapsed < 0.001 {
				elapsed = 0.001
			}
			rate := uint64(float64(current-prevBytes) / elapsed)
			prevBytes = current
			lastSample = now

			percentage := t.percentage(current)
			if now.Sub(lastOutput) < t.interval && percentage-prevPercentage < 10 {
				continue
			}
			lastOutput = now
			prevPercentage = percentage

			if t.total > 0 {
				t.logger.Info("progress",
					"op", t.label,
					"processed", humanize.IBytes(current),
					"total", humanize.IBytes(t.total),
					"percent", fmt.Sprintf("%.1f", percentage),
					"rate", humanize.IBytes(rate)+"/s",
					"eta", eta(t.total-min(current, t.total), rate),
				)
			} else {
				t.logger.Info("progress",
					"op", t.label,
					"processed", humanize.IBytes(current),
					"rate", humanize.IBytes(rate)+"/s",
				)
			}

		case <-done:
			totalTime := time.Since(t.started).Seconds()
			if totalTime < 0.001 {
				totalTime = 0.001
			}
			processed := t.processed.Load()
			t.logger.Info("completed",
				"op", t.label,
				"processed", humanize.IBytes(processed),
				"seconds", fmt.Sprintf("%.1f", totalTime),
				"avg_rate", humanize.IBytes(uint64(float64(processed)/totalTime))+"/s",
			)
			return
		}
	}
}

func (t *Tracker) percentage(current uint64) float64 {
	if t.total == 0 {
		return 0
	}
	return float64(current) / float64(t.total) * 100
}

// eta formats the remaining time for the given remaining bytes and rate
func eta(remaining, rate uint64) string {
	if rate == 0 {
		return "calculating..."
	}
	seconds := float64(remaining) / float64(rate)
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.0f seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1f minutes", seconds/60)
	default:
		return fmt.Sprintf("%.1f hours", seconds/3600)
	}
}

// Writer is a writer that counts bytes written into a Tracker
type Writer struct {
	W io.Writer
	T *Tracker
}

// Write implements io.Writer and tracks bytes written
func (pw *Writer) Write(p []byte) (n int, err error) {
	n, err = pw.W.Write(p)
	if n > 0 && pw.T != nil {
		pw.T.AddBytes(uint64(n))
	}
	return
}
