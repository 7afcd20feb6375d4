package gesture

import "time"

// Window accumulates readings over a bounded wall-clock span and reduces
// them to one stabilized result. A window is created fresh per
// classification request, written by a single collector, and discarded after
// Finalize; there is no cross-window state.
type Window struct {
	duration     time.Duration
	minConfRatio float64
	start        time.Time
	readings     []Reading
	now          func() time.Time
}

// NewWindow creates a Window spanning the given duration from now.
// Non-positive duration or confidence ratio fall back to the defaults.
func NewWindow(duration time.Duration, minConfidenceRatio float64) *Window {
	if duration <= 0 {
		duration = DefaultWindowDuration
	}
	if minConfidenceRatio <= 0 {
		minConfidenceRatio = DefaultMinConfidenceRatio
	}

	w := &Window{
		duration:     duration,
		minConfRatio: minConfidenceRatio,
		now:          time.Now,
	}
	w.start = w.now()
	return w
}

// Add appends a reading to the window and reports whether the window is
// still open. Readings arriving after the window span has elapsed are
// dropped; stopping early is always safe, Finalize reduces whatever was
// collected.
func (w *Window) Add(r Reading) bool {
	if w.Done() {
		return false
	}

	if r.Timestamp.IsZero() {
		r.Timestamp = w.now()
	}
	w.readings = append(w.readings, r)
	return true
}

// Done reports whether the window's wall-clock span has elapsed.
func (w *Window) Done() bool {
	return w.now().Sub(w.start) > w.duration
}

// Len returns the number of collected readings.
func (w *Window) Len() int {
	return len(w.readings)
}

// Finalize reduces the collected readings to one stabilized result.
// An empty window reduces to the "none" result.
func (w *Window) Finalize() Result {
	return Stabilize(w.readings, w.minConfRatio)
}
