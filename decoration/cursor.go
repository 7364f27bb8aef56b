package decoration

import (
	"sync"
	"time"

	"github.com/fogleman/ease"
	"k8s.io/utils/clock"
)

// DefaultCursorPoll is the cursor poll period used when none is given.
const DefaultCursorPoll = 50 * time.Millisecond

// Easing maps normalized progress onto eased progress. Any function from
// fogleman/ease fits.
type Easing func(t float64) float64

// CursorConfig wires a cursor decoration to its time source.
type CursorConfig struct {
	// Clock schedules the polling loop.
	Clock clock.Clock

	// Poll is the repaint period.
	Poll time.Duration

	// Easing shapes the sweep inside the span. Linear when unset.
	Easing Easing

	// Position reports the current playback position in whole-note units.
	Position func() float64
}

func (c CursorConfig) withDefaults() CursorConfig {
	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}
	if c.Poll <= 0 {
		c.Poll = DefaultCursorPoll
	}
	if c.Easing == nil {
		c.Easing = ease.Linear
	}
	return c
}

// interpolator owns the polling goroutine of one displayed cursor. It lives
// from the first show to the next hide.
type interpolator struct {
	deco     *Decoration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newInterpolator(d *Decoration) *interpolator {
	return &interpolator{
		deco:   d,
		stopCh: make(chan struct{}),
	}
}

func (ip *interpolator) start() {
	// paint the current position before the first tick lands
	ip.deco.interpolate(ip.deco.cursor.Position())
	go ip.run()
}

func (ip *interpolator) run() {
	cfg := ip.deco.cursor
	t := cfg.Clock.NewTimer(cfg.Poll)
	defer t.Stop()

	for {
		select {
		case <-ip.stopCh:
			return
		case <-t.C():
			ip.deco.interpolate(cfg.Position())
			t.Reset(cfg.Poll)
		}
	}
}

func (ip *interpolator) stop() {
	ip.stopOnce.Do(func() {
		close(ip.stopCh)
	})
}
