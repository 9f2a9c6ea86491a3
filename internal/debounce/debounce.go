// Package debounce delays propagation of rapidly changing input until it has
// been stable for a fixed quiescence window.
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers into a single delayed execution.
// Each Trigger resets the window; only the function passed to the most
// recent Trigger ever runs.
type Debouncer struct {
	mu     sync.Mutex
	timer  *time.Timer
	window time.Duration
}

// New creates a debouncer with the given quiescence window.
func New(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Trigger schedules fn to run after the window elapses without further
// triggers. A pending earlier fn is discarded, never executed.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Stop cancels any pending execution.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
