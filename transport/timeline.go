package transport

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"k8s.io/utils/clock"

	"github.com/joeberkovitz/gmnx-viewer/logger"
)

// DefaultTickInterval is the dispatch resolution used when none is given.
const DefaultTickInterval = 5 * time.Millisecond

type registration struct {
	id    int64
	at    time.Duration
	fn    Callback
	fired bool
}

// Timeline is the clock-driven Transport shared by every performance of a
// score. A single worker goroutine wakes at the tick interval and fires the
// registrations whose offsets have passed, in offset order.
type Timeline struct {
	clock clock.Clock
	tick  time.Duration

	mu      sync.Mutex
	regs    []*registration
	nextID  int64
	rate    float64
	running bool
	origin  time.Time
	base    time.Duration
	stopCh  chan struct{}
}

// NewTimeline creates a stopped timeline at position zero.
func NewTimeline(cl clock.Clock, tick time.Duration) *Timeline {
	if cl == nil {
		cl = clock.RealClock{}
	}
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	return &Timeline{
		clock:  cl,
		tick:   tick,
		nextID: 1,
		rate:   1.0,
	}
}

// Schedule registers fn to fire at the given offset.
func (tl *Timeline) Schedule(fn Callback, at time.Duration) int64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	id := tl.nextID
	tl.nextID++
	tl.regs = append(tl.regs, &registration{
		id: id,
		at: at,
		fn: fn,
		// an offset already behind the playhead stays quiet until a reset
		fired: at < tl.elapsedLocked(),
	})
	return id
}

// Cancel removes a single registration.
func (tl *Timeline) Cancel(id int64) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	for i, r := range tl.regs {
		if r.id == id {
			tl.regs = append(tl.regs[:i], tl.regs[i+1:]...)
			return
		}
	}
}

// CancelFrom removes every registration at or after the given offset.
func (tl *Timeline) CancelFrom(at time.Duration) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	kept := tl.regs[:0]
	for _, r := range tl.regs {
		if r.at < at {
			kept = append(kept, r)
		}
	}
	tl.regs = kept
}

// Start begins advancing the timeline once the lead-in elapses. Starting a
// running timeline has no effect.
func (tl *Timeline) Start(lead time.Duration) {
	tl.mu.Lock()
	if tl.running {
		tl.mu.Unlock()
		return
	}
	tl.running = true
	tl.origin = tl.clock.Now().Add(lead)
	stop := make(chan struct{})
	tl.stopCh = stop
	tl.mu.Unlock()

	logger.GetProjectLogger().WithFields(logrus.Fields{
		"lead": lead, "tick": tl.tick,
	}).Debug("timeline started")

	go tl.run(stop)
}

// Stop freezes the timeline at its current position and retires the worker.
func (tl *Timeline) Stop() {
	tl.mu.Lock()
	if !tl.running {
		tl.mu.Unlock()
		return
	}
	tl.base = tl.elapsedLocked()
	tl.running = false
	close(tl.stopCh)
	tl.stopCh = nil
	pos := tl.base
	tl.mu.Unlock()

	logger.GetProjectLogger().WithField("elapsed", pos).Debug("timeline stopped")
}

// Reset moves the playhead. Registrations at or after the new position are
// re-armed so a replay fires them again; earlier ones are treated as passed.
func (tl *Timeline) Reset(elapsed time.Duration) {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.base = elapsed
	if tl.running {
		tl.origin = tl.clock.Now()
	}
	for _, r := range tl.regs {
		r.fired = r.at < elapsed
	}
}

// Elapsed returns the current position of the timeline.
func (tl *Timeline) Elapsed() time.Duration {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.elapsedLocked()
}

// Running reports whether the timeline is advancing.
func (tl *Timeline) Running() bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.running
}

// SetRate records the playback rate. Rates must be positive.
func (tl *Timeline) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.rate = rate
}

// Rate returns the recorded playback rate.
func (tl *Timeline) Rate() float64 {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.rate
}

func (tl *Timeline) elapsedLocked() time.Duration {
	if !tl.running {
		return tl.base
	}
	d := tl.clock.Since(tl.origin)
	if d < 0 {
		// still inside the lead-in
		d = 0
	}
	return tl.base + d
}

func (tl *Timeline) run(stop chan struct{}) {
	t := tl.clock.NewTimer(tl.tick)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C():
			tl.pump()
			t.Reset(tl.tick)
		}
	}
}

// pump fires every registration that has come due since the last pass.
func (tl *Timeline) pump() {
	tl.mu.Lock()
	now := tl.elapsedLocked()
	var due []*registration
	for _, r := range tl.regs {
		if !r.fired && r.at <= now {
			r.fired = true
			due = append(due, r)
		}
	}
	tl.mu.Unlock()

	if len(due) == 0 {
		return
	}
	slices.SortStableFunc(due, func(a, b *registration) bool {
		if a.at != b.at {
			return a.at < b.at
		}
		return a.id < b.id
	})
	for _, r := range due {
		r.fn(r.at)
	}
}
