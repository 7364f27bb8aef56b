package performance

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/generators"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"github.com/joeberkovitz/gmnx-viewer/media"
	"github.com/joeberkovitz/gmnx-viewer/rhythm"
	"github.com/joeberkovitz/gmnx-viewer/surface"
	"github.com/joeberkovitz/gmnx-viewer/transport"
)

// fakeTransport lets tests drive dispatch by hand.
type fakeTransport struct {
	mu      sync.Mutex
	regs    []*fakeReg
	nextID  int64
	elapsed time.Duration
	running bool
	rate    float64
	resets  []time.Duration
	leads   []time.Duration
	cancels []int64
}

type fakeReg struct {
	id    int64
	at    time.Duration
	fn    transport.Callback
	fired bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{nextID: 1, rate: 1}
}

func (f *fakeTransport) Schedule(fn transport.Callback, at time.Duration) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.regs = append(f.regs, &fakeReg{id: id, at: at, fn: fn, fired: at < f.elapsed})
	return id
}

func (f *fakeTransport) Cancel(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels = append(f.cancels, id)
	for i, r := range f.regs {
		if r.id == id {
			f.regs = append(f.regs[:i], f.regs[i+1:]...)
			return
		}
	}
}

func (f *fakeTransport) CancelFrom(at time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.regs[:0]
	for _, r := range f.regs {
		if r.at < at {
			kept = append(kept, r)
		}
	}
	f.regs = kept
}

func (f *fakeTransport) Start(lead time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	f.leads = append(f.leads, lead)
}

func (f *fakeTransport) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

func (f *fakeTransport) Reset(elapsed time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elapsed = elapsed
	f.resets = append(f.resets, elapsed)
	for _, r := range f.regs {
		r.fired = r.at < elapsed
	}
}

func (f *fakeTransport) Elapsed() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.elapsed
}

func (f *fakeTransport) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeTransport) SetRate(rate float64) { f.rate = rate }
func (f *fakeTransport) Rate() float64        { return f.rate }

// advance moves the playhead and fires everything that came due, in order.
func (f *fakeTransport) advance(to time.Duration) {
	f.mu.Lock()
	f.elapsed = to
	var due []*fakeReg
	for _, r := range f.regs {
		if !r.fired && r.at <= to {
			r.fired = true
			due = append(due, r)
		}
	}
	f.mu.Unlock()

	slices.SortStableFunc(due, func(a, b *fakeReg) bool {
		if a.at != b.at {
			return a.at < b.at
		}
		return a.id < b.id
	})
	for _, r := range due {
		r.fn(r.at)
	}
}

func (f *fakeTransport) registrationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.regs)
}

type trigger struct {
	freq     float64
	duration time.Duration
	at       time.Duration
	velocity float64
}

type fakeSynth struct {
	mu       sync.Mutex
	triggers []trigger
	releases int
}

func (s *fakeSynth) Trigger(freq float64, duration, at time.Duration, velocity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, trigger{freq: freq, duration: duration, at: at, velocity: velocity})
}

func (s *fakeSynth) ReleaseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases++
}

func (s *fakeSynth) triggered() []trigger {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]trigger, len(s.triggers))
	copy(out, s.triggers)
	return out
}

type fakePlayer struct {
	mu      sync.Mutex
	plays   int
	stopped int
}

func (p *fakePlayer) Play(clip *media.Clip, at time.Duration) (media.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plays++
	return &fakeHandle{player: p}, nil
}

type fakeHandle struct {
	player *fakePlayer
}

func (h *fakeHandle) Stop() {
	h.player.mu.Lock()
	defer h.player.mu.Unlock()
	h.player.stopped++
}

func quarter() rhythm.Rational {
	return rhythm.Rational{Num: 1, Den: 4}
}

func newTestViews(t *testing.T) map[string]surface.Surface {
	t.Helper()

	m := surface.NewMemory("page1")
	_, err := m.AddElement("staff", surface.KindRect, surface.Rect{X: 40, Y: 40, Width: 560, Height: 120})
	require.NoError(t, err)
	_, err = m.AddElement("n1", surface.KindRect, surface.Rect{X: 60, Y: 80, Width: 24, Height: 24})
	require.NoError(t, err)
	_, err = m.AddElement("n2", surface.KindRect, surface.Rect{X: 130, Y: 80, Width: 24, Height: 24})
	require.NoError(t, err)
	return map[string]surface.Surface{"page1": m}
}

func newTestDeps(t *testing.T, tr transport.Transport, sy *fakeSynth) (Deps, *surface.Memory) {
	t.Helper()

	views := newTestViews(t)
	deps := Deps{
		Transport:   tr,
		Views:       views,
		Synth:       sy,
		CursorPoll:  time.Hour, // keep test cursors inert
		DefaultView: "page1",
	}
	return deps, views["page1"].(*surface.Memory)
}

func TestPrepareResolvesTempoAndSchedule(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	sy := &fakeSynth{}
	deps, _ := newTestDeps(t, tr, sy)

	p := NewData("main", deps,
		[]Tempo{{Start: 0, BPM: 60, Beat: quarter()}},
		[]Region{{Start: 0, End: 2, Element: "staff"}},
		[]Event{
			{Start: 0, Duration: 0.25, Frequency: 440, Graphics: []string{"n1"}},
			{Start: 0.25, Duration: 0.25, Frequency: 523.25, Dynamics: 96, Graphics: []string{"n2"}},
		})

	require.NoError(t, p.Prepare())
	require.True(t, p.Prepared())

	// 60 bpm counted in quarters puts four seconds on each whole note
	assert.Equal(t, 4.0, p.UnitSeconds())
	assert.Equal(t, 8*time.Second, p.Horizon())

	actions := p.Actions()
	// two tones, a show/hide per graphic and a show/hide for the region
	require.Len(t, actions, 8)
	assert.Equal(t, actions, p.Actions())
	for i := 1; i < len(actions); i++ {
		assert.LessOrEqual(t, actions[i-1].At, actions[i].At)
	}
	assert.Equal(t, len(actions), tr.registrationCount())

	// the second tone lands a quarter note in
	var tones []Action
	for _, a := range actions {
		if a.Kind == ActionTone {
			tones = append(tones, a)
		}
	}
	require.Len(t, tones, 2)
	assert.Equal(t, time.Duration(0), tones[0].At)
	assert.Equal(t, time.Second, tones[1].At)
}

func TestPrepareIsIdempotent(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	deps, _ := newTestDeps(t, tr, &fakeSynth{})
	p := NewData("main", deps, nil, nil, []Event{
		{Start: 0, Duration: 0.25, Frequency: 440},
	})

	require.NoError(t, p.Prepare())
	count := tr.registrationCount()
	require.NoError(t, p.Prepare())
	assert.Equal(t, count, tr.registrationCount())
}

func TestEarliestTempoGoverns(t *testing.T) {
	t.Parallel()

	deps, _ := newTestDeps(t, newFakeTransport(), &fakeSynth{})
	p := NewData("main", deps,
		[]Tempo{
			{Start: 1, BPM: 120, Beat: quarter()},
			{Start: 0, BPM: 60, Beat: quarter()},
		},
		nil,
		[]Event{{Start: 0, Duration: 0.25, Frequency: 440}})

	require.NoError(t, p.Prepare())
	assert.Equal(t, 4.0, p.UnitSeconds())
}

func TestNoTempoDefaultsToOneSecondPerUnit(t *testing.T) {
	t.Parallel()

	deps, _ := newTestDeps(t, newFakeTransport(), &fakeSynth{})
	p := NewData("main", deps, nil, nil, []Event{
		{Start: 0.5, Duration: 0.25, Frequency: 440},
	})

	require.NoError(t, p.Prepare())
	assert.Equal(t, 1.0, p.UnitSeconds())

	actions := p.Actions()
	require.Len(t, actions, 1)
	assert.Equal(t, 500*time.Millisecond, actions[0].At)
}

func TestPlaybackLifecycle(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	sy := &fakeSynth{}
	deps, mem := newTestDeps(t, tr, sy)
	deps.LeadIn = 200 * time.Millisecond

	p := NewData("main", deps,
		[]Tempo{{Start: 0, BPM: 60, Beat: quarter()}},
		[]Region{{Start: 0, End: 2, Element: "staff"}},
		[]Event{{Start: 0, Duration: 0.25, Frequency: 440, Dynamics: 96, Graphics: []string{"n1"}}})

	require.Error(t, p.Play(), "play before prepare must fail")
	require.NoError(t, p.Prepare())
	require.NoError(t, p.Play())
	assert.True(t, p.Playing())
	assert.True(t, tr.Running())
	assert.Equal(t, []time.Duration{0}, tr.resets)
	assert.Equal(t, []time.Duration{200 * time.Millisecond}, tr.leads)

	// at the top: tone, region shown, graphic shown
	tr.advance(0)
	trigs := sy.triggered()
	require.Len(t, trigs, 1)
	assert.Equal(t, 440.0, trigs[0].freq)
	assert.Equal(t, time.Second, trigs[0].duration)
	assert.InDelta(t, 96.0/127, trigs[0].velocity, 1e-12)
	assert.Equal(t, 2, p.ActiveCount())
	assert.Len(t, mem.AttachedIDs(), 2)

	// a quarter note later the graphic hides again
	tr.advance(time.Second)
	assert.Equal(t, 1, p.ActiveCount())
	assert.Len(t, mem.AttachedIDs(), 1)

	// the region hides at its end
	tr.advance(8 * time.Second)
	assert.Equal(t, 0, p.ActiveCount())
	assert.Empty(t, mem.AttachedIDs())

	p.Stop()
	assert.False(t, p.Playing())
	assert.False(t, tr.Running())
	assert.GreaterOrEqual(t, sy.releases, 1)
}

func TestStopHidesActiveDecorations(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	sy := &fakeSynth{}
	deps, mem := newTestDeps(t, tr, sy)

	p := NewData("main", deps,
		[]Tempo{{Start: 0, BPM: 60, Beat: quarter()}},
		[]Region{{Start: 0, End: 2, Element: "staff"}},
		nil)

	require.NoError(t, p.Prepare())
	require.NoError(t, p.Play())
	tr.advance(time.Second)
	require.Equal(t, 1, p.ActiveCount())
	require.Len(t, mem.AttachedIDs(), 1)

	p.Stop()
	assert.Equal(t, 0, p.ActiveCount())
	assert.Empty(t, mem.AttachedIDs())
}

func TestReplayFiresEverythingAgain(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	sy := &fakeSynth{}
	deps, _ := newTestDeps(t, tr, sy)

	p := NewData("main", deps,
		[]Tempo{{Start: 0, BPM: 60, Beat: quarter()}},
		nil,
		[]Event{{Start: 0, Duration: 0.25, Frequency: 440}})

	require.NoError(t, p.Prepare())
	require.NoError(t, p.Play())
	tr.advance(2 * time.Second)
	require.Len(t, sy.triggered(), 1)

	require.NoError(t, p.Play())
	tr.advance(2 * time.Second)
	assert.Len(t, sy.triggered(), 2)
}

func TestPrepareFailsFast(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	deps, _ := newTestDeps(t, tr, &fakeSynth{})

	// unknown view
	p := NewData("main", deps, nil,
		[]Region{{Start: 0, End: 1, View: "nope", Element: "staff"}}, nil)
	err := p.Prepare()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownView)
	assert.False(t, p.Prepared())
	assert.Equal(t, 0, tr.registrationCount())

	// unknown element
	p = NewData("main", deps, nil,
		[]Region{{Start: 0, End: 1, Element: "missing"}}, nil)
	err = p.Prepare()
	require.Error(t, err)
	assert.ErrorIs(t, err, surface.ErrUnknownElement)

	// unknown graphic element on an event
	p = NewData("main", deps, nil, nil,
		[]Event{{Start: 0, Duration: 0.25, Frequency: 440, Graphics: []string{"ghost"}}})
	err = p.Prepare()
	require.Error(t, err)
	assert.ErrorIs(t, err, surface.ErrUnknownElement)

	// one-sided cursor descriptor
	p = NewData("main", deps, nil,
		[]Region{{Start: 0, End: 1, Element: "staff", CursorStart: "left"}}, nil)
	require.Error(t, p.Prepare())

	// empty span
	p = NewData("main", deps, nil,
		[]Region{{Start: 1, End: 1, Element: "staff"}}, nil)
	require.Error(t, p.Prepare())

	// bad tempo
	p = NewData("main", deps,
		[]Tempo{{Start: 0, BPM: 0, Beat: quarter()}}, nil,
		[]Event{{Start: 0, Duration: 0.25, Frequency: 440}})
	require.Error(t, p.Prepare())
}

func TestCursorRegion(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	deps, mem := newTestDeps(t, tr, &fakeSynth{})

	p := NewData("main", deps,
		[]Tempo{{Start: 0, BPM: 60, Beat: quarter()}},
		[]Region{{Start: 0, End: 2, Element: "staff", CursorStart: "left", CursorEnd: "right"}},
		nil)

	require.NoError(t, p.Prepare())
	assert.Equal(t, 1, p.DecorationCount())

	require.NoError(t, p.Play())
	tr.advance(0)
	require.Len(t, mem.AttachedIDs(), 1)

	// the cursor element is a line starting on the left edge
	el, err := mem.ElementByID(mem.AttachedIDs()[0])
	require.NoError(t, err)
	assert.Equal(t, surface.KindLine, el.Kind())
	x1, ok := el.Num("x1")
	require.True(t, ok)
	assert.Equal(t, 40.0, x1)

	tr.advance(8 * time.Second)
	assert.Empty(t, mem.AttachedIDs())
}

func TestPositionConversion(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	deps, _ := newTestDeps(t, tr, &fakeSynth{})
	p := NewData("main", deps,
		[]Tempo{{Start: 0, BPM: 60, Beat: quarter()}},
		nil,
		[]Event{{Start: 0, Duration: 0.25, Frequency: 440}})

	require.NoError(t, p.Prepare())
	tr.Reset(2 * time.Second)
	assert.InDelta(t, 0.5, p.position(), 1e-12)
}

func writePerformanceWav(t *testing.T, path string) *media.Clip {
	t.Helper()

	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	osc, err := generators.SinTone(format.SampleRate, 440)
	require.NoError(t, err)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, wav.Encode(f, beep.Take(format.SampleRate.N(300*time.Millisecond), osc), format))

	clip, err := media.Decode(path)
	require.NoError(t, err)
	return clip
}

func TestAudioPerformance(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	pl := &fakePlayer{}
	deps, mem := newTestDeps(t, tr, &fakeSynth{})
	deps.Player = pl

	clip := writePerformanceWav(t, filepath.Join(t.TempDir(), "take1.wav"))
	p := NewAudio("recorded", deps,
		[]Tempo{{Start: 0, BPM: 60, Beat: quarter()}},
		[]Region{{Start: 0, End: 2, Element: "staff"}},
		clip)

	require.NoError(t, p.Prepare())
	assert.Equal(t, KindAudio, p.Kind())

	var kinds []ActionKind
	for _, a := range p.Actions() {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, ActionMedia)

	require.NoError(t, p.Play())
	tr.advance(0)
	require.Equal(t, 1, pl.plays)
	assert.Len(t, mem.AttachedIDs(), 1)

	p.Stop()
	assert.Equal(t, 1, pl.stopped)
	assert.Empty(t, mem.AttachedIDs())
}

func TestRelease(t *testing.T) {
	t.Parallel()

	tr := newFakeTransport()
	deps, _ := newTestDeps(t, tr, &fakeSynth{})
	p := NewData("main", deps, nil, nil,
		[]Event{{Start: 0, Duration: 0.25, Frequency: 440}})

	require.NoError(t, p.Prepare())
	require.Equal(t, 1, tr.registrationCount())

	p.Release()
	assert.False(t, p.Prepared())
	assert.Equal(t, 0, tr.registrationCount())

	// a released performance can be prepared again
	require.NoError(t, p.Prepare())
	assert.Equal(t, 1, tr.registrationCount())
}
