package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
)

type recorder struct {
	mu sync.Mutex
	at []time.Duration
}

func (r *recorder) callback() Callback {
	return func(at time.Duration) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.at = append(r.at, at)
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.at)
}

func (r *recorder) times() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]time.Duration, len(r.at))
	copy(out, r.at)
	return out
}

// step advances the fake clock once the worker is parked on its timer, so no
// wakeup is lost.
func step(t *testing.T, fc *clock.FakeClock, d time.Duration) {
	t.Helper()
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)
	fc.Step(d)
}

func TestScheduleAssignsSequentialIDs(t *testing.T) {
	t.Parallel()

	tl := NewTimeline(clock.RealClock{}, time.Millisecond)
	rec := &recorder{}
	assert.Equal(t, int64(1), tl.Schedule(rec.callback(), 0))
	assert.Equal(t, int64(2), tl.Schedule(rec.callback(), time.Second))
	assert.Equal(t, int64(3), tl.Schedule(rec.callback(), time.Second))
}

func TestDispatchFiresInOffsetOrder(t *testing.T) {
	t.Parallel()

	fc := clock.NewFakeClock(time.Now())
	tl := NewTimeline(fc, 5*time.Millisecond)
	rec := &recorder{}
	tl.Schedule(rec.callback(), time.Second)
	tl.Schedule(rec.callback(), 0)
	tl.Schedule(rec.callback(), 500*time.Millisecond)

	tl.Start(0)
	defer tl.Stop()
	step(t, fc, 2*time.Second)

	require.Eventually(t, func() bool { return rec.count() == 3 }, time.Second, time.Millisecond)
	// callbacks see their scheduled offsets, not the actual elapsed time
	assert.Equal(t, []time.Duration{0, 500 * time.Millisecond, time.Second}, rec.times())
}

func TestElapsedFreezesWhileStopped(t *testing.T) {
	t.Parallel()

	fc := clock.NewFakeClock(time.Now())
	tl := NewTimeline(fc, 5*time.Millisecond)

	assert.Equal(t, time.Duration(0), tl.Elapsed())
	tl.Start(0)
	step(t, fc, 300*time.Millisecond)
	assert.Equal(t, 300*time.Millisecond, tl.Elapsed())

	tl.Stop()
	assert.False(t, tl.Running())
	fc.Step(5 * time.Second)
	assert.Equal(t, 300*time.Millisecond, tl.Elapsed())
}

func TestLeadInHoldsElapsedAtZero(t *testing.T) {
	t.Parallel()

	fc := clock.NewFakeClock(time.Now())
	tl := NewTimeline(fc, 5*time.Millisecond)
	tl.Start(500 * time.Millisecond)
	defer tl.Stop()

	assert.Equal(t, time.Duration(0), tl.Elapsed())
	step(t, fc, 200*time.Millisecond)
	assert.Equal(t, time.Duration(0), tl.Elapsed())
	step(t, fc, 400*time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, tl.Elapsed())
}

func TestResetRearmsRegistrations(t *testing.T) {
	t.Parallel()

	fc := clock.NewFakeClock(time.Now())
	tl := NewTimeline(fc, 5*time.Millisecond)
	rec := &recorder{}
	tl.Schedule(rec.callback(), 0)
	tl.Schedule(rec.callback(), time.Second)

	tl.Start(0)
	defer tl.Stop()
	step(t, fc, 2*time.Second)
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, time.Millisecond)

	// replay from the top fires everything again
	tl.Reset(0)
	assert.Equal(t, time.Duration(0), tl.Elapsed())
	step(t, fc, 2*time.Second)
	require.Eventually(t, func() bool { return rec.count() == 4 }, time.Second, time.Millisecond)
	assert.Equal(t, []time.Duration{0, time.Second, 0, time.Second}, rec.times())
}

func TestResetSkipsEarlierRegistrations(t *testing.T) {
	t.Parallel()

	fc := clock.NewFakeClock(time.Now())
	tl := NewTimeline(fc, 5*time.Millisecond)
	rec := &recorder{}
	tl.Schedule(rec.callback(), 0)
	tl.Schedule(rec.callback(), time.Second)

	// jumping to 600ms leaves the earlier registration behind
	tl.Reset(600 * time.Millisecond)
	tl.Start(0)
	defer tl.Stop()
	step(t, fc, time.Second)

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []time.Duration{time.Second}, rec.times())
}

func TestCancelRemovesSingleRegistration(t *testing.T) {
	t.Parallel()

	fc := clock.NewFakeClock(time.Now())
	tl := NewTimeline(fc, 5*time.Millisecond)
	rec := &recorder{}
	tl.Schedule(rec.callback(), 0)
	id := tl.Schedule(rec.callback(), 200*time.Millisecond)
	tl.Schedule(rec.callback(), 400*time.Millisecond)
	tl.Cancel(id)

	tl.Start(0)
	defer tl.Stop()
	step(t, fc, time.Second)

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []time.Duration{0, 400 * time.Millisecond}, rec.times())
}

func TestCancelFromRemovesTail(t *testing.T) {
	t.Parallel()

	fc := clock.NewFakeClock(time.Now())
	tl := NewTimeline(fc, 5*time.Millisecond)
	rec := &recorder{}
	tl.Schedule(rec.callback(), 0)
	tl.Schedule(rec.callback(), 500*time.Millisecond)
	tl.Schedule(rec.callback(), time.Second)
	// the boundary offset itself is removed
	tl.CancelFrom(500 * time.Millisecond)

	tl.Start(0)
	defer tl.Stop()
	step(t, fc, 2*time.Second)

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []time.Duration{0}, rec.times())
}

func TestScheduleBehindPlayheadStaysQuiet(t *testing.T) {
	t.Parallel()

	fc := clock.NewFakeClock(time.Now())
	tl := NewTimeline(fc, 5*time.Millisecond)
	rec := &recorder{}

	tl.Start(0)
	defer tl.Stop()
	step(t, fc, time.Second)
	tl.Schedule(rec.callback(), 200*time.Millisecond)
	step(t, fc, time.Second)

	require.Never(t, func() bool { return rec.count() > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestRateIsCarried(t *testing.T) {
	t.Parallel()

	tl := NewTimeline(clock.RealClock{}, time.Millisecond)
	assert.Equal(t, 1.0, tl.Rate())
	tl.SetRate(1.5)
	assert.Equal(t, 1.5, tl.Rate())
	tl.SetRate(0)
	assert.Equal(t, 1.5, tl.Rate())
}
