package transport

import "time"

// Callback is invoked when the timeline reaches the offset it was scheduled
// for. The argument is the scheduled offset, not the actual elapsed time,
// which can trail it by up to the dispatch resolution.
type Callback func(at time.Duration)

// Transport is the absolute-time scheduling capability that performances play
// against. Offsets are durations from the start of the timeline.
type Transport interface {
	// Schedule registers fn to fire once the elapsed time reaches at and
	// returns an id usable with Cancel. Scheduling is allowed while running;
	// an offset already in the past will not fire until the timeline is
	// reset behind it.
	Schedule(fn Callback, at time.Duration) int64

	// Cancel removes a single registration.
	Cancel(id int64)

	// CancelFrom removes every registration scheduled at or after the given
	// offset.
	CancelFrom(at time.Duration)

	// Start begins advancing the timeline after the lead-in elapses.
	Start(lead time.Duration)

	// Stop freezes the timeline at its current elapsed position.
	Stop()

	// Reset moves the elapsed position and re-arms every registration
	// scheduled at or after it.
	Reset(elapsed time.Duration)

	// Elapsed returns the current position of the timeline.
	Elapsed() time.Duration

	// Running reports whether the timeline is advancing.
	Running() bool

	// SetRate records the playback rate. The viewer always runs at the
	// nominal 1.0, so the rate is carried but not applied.
	SetRate(rate float64)

	// Rate returns the recorded playback rate.
	Rate() float64
}
