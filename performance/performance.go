package performance

import (
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/joeberkovitz/gmnx-viewer/decoration"
	"github.com/joeberkovitz/gmnx-viewer/logger"
	"github.com/joeberkovitz/gmnx-viewer/media"
	"github.com/joeberkovitz/gmnx-viewer/rhythm"
	"github.com/joeberkovitz/gmnx-viewer/surface"
	"github.com/joeberkovitz/gmnx-viewer/synth"
	"github.com/joeberkovitz/gmnx-viewer/transport"
)

// ErrUnknownView reports a reference to a view the score does not declare.
var ErrUnknownView = errors.New("performance: unknown view")

// Kind enumerates the performance kinds.
type Kind int

const (
	// KindData synthesizes the performance events.
	KindData Kind = iota
	// KindAudio plays a recorded media asset.
	KindAudio
)

func (k Kind) String() string {
	if k == KindAudio {
		return "audio"
	}
	return "data"
}

// DefaultDynamics is assumed for events that do not give a dynamics value.
const DefaultDynamics = 64

// Tempo is one tempo entry: bpm counts of the beat note value per minute,
// effective from Start (whole-note units).
type Tempo struct {
	Start float64
	BPM   float64
	Beat  rhythm.Rational
}

// UnitSeconds returns the wall-clock seconds of one whole-note unit at this
// tempo.
func (t Tempo) UnitSeconds() float64 {
	return (60 / t.BPM) / t.Beat.Float64()
}

// Region is a highlighted span over one score element. When both cursor
// edges are set the region sweeps a cursor instead of filling the box.
type Region struct {
	Start       float64
	End         float64
	View        string
	Element     string
	CursorStart string
	CursorEnd   string
}

// Event is one sounding note of a data performance.
type Event struct {
	Start     float64
	Duration  float64
	Frequency float64
	Dynamics  int
	View      string
	Graphics  []string
}

// ActionKind enumerates the discrete transitions a performance schedules.
type ActionKind int

const (
	ActionTone ActionKind = iota
	ActionShow
	ActionHide
	ActionMedia
)

func (k ActionKind) String() string {
	switch k {
	case ActionTone:
		return "tone"
	case ActionShow:
		return "show"
	case ActionHide:
		return "hide"
	case ActionMedia:
		return "media"
	}
	return "unknown"
}

// Action is one scheduled transition, kept for inspection after prepare.
type Action struct {
	At     time.Duration
	Kind   ActionKind
	Target string

	fire transport.Callback
}

// Deps carries the capabilities a performance plays against. Transport and
// Views must be set; the rest default sensibly.
type Deps struct {
	Transport   transport.Transport
	Views       map[string]surface.Surface
	Clock       clock.Clock
	Synth       synth.Synthesizer
	Player      media.Player
	Style       decoration.Style
	Easing      decoration.Easing
	LeadIn      time.Duration
	CursorPoll  time.Duration
	DefaultView string
}

// Performance is one playable rendering of a score. It resolves its tempo
// and schedule once, then supports any number of play/stop cycles.
type Performance struct {
	name string
	kind Kind
	deps Deps
	log  *logrus.Entry

	tempos  []Tempo
	regions []Region
	events  []Event
	clip    *media.Clip

	mu          sync.Mutex
	scheduled   bool
	unitSeconds float64
	actions     []Action
	decorations []*decoration.Decoration
	callbackIDs []int64
	active      map[int64]*decoration.Decoration
	nextDecoID  int64
	handle      media.Handle
	playing     bool
	horizon     time.Duration
}

// NewData creates a data performance over the given events and regions.
func NewData(name string, deps Deps, tempos []Tempo, regions []Region, events []Event) *Performance {
	p := newPerformance(name, KindData, deps)
	p.tempos = tempos
	p.regions = regions
	p.events = events
	return p
}

// NewAudio creates an audio performance over the given clip and regions.
func NewAudio(name string, deps Deps, tempos []Tempo, regions []Region, clip *media.Clip) *Performance {
	p := newPerformance(name, KindAudio, deps)
	p.tempos = tempos
	p.regions = regions
	p.clip = clip
	return p
}

func newPerformance(name string, kind Kind, deps Deps) *Performance {
	if deps.Clock == nil {
		deps.Clock = clock.RealClock{}
	}
	if deps.Style == (decoration.Style{}) {
		deps.Style = decoration.DefaultStyle()
	}
	return &Performance{
		name: name,
		kind: kind,
		deps: deps,
		log: logger.GetProjectLogger().WithFields(logrus.Fields{
			"performance": name,
			"kind":        kind.String(),
		}),
		active:     make(map[int64]*decoration.Decoration),
		nextDecoID: 1,
	}
}

// Name returns the performance name.
func (p *Performance) Name() string {
	return p.name
}

// Kind returns the performance kind.
func (p *Performance) Kind() Kind {
	return p.kind
}

// Prepared reports whether the schedule has been resolved and registered.
func (p *Performance) Prepared() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scheduled
}

// Playing reports whether the performance has been played and not stopped.
func (p *Performance) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// UnitSeconds returns the resolved seconds per whole-note unit, or zero
// before prepare.
func (p *Performance) UnitSeconds() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unitSeconds
}

// Horizon returns the scheduled length of the performance, or zero before
// prepare.
func (p *Performance) Horizon() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.horizon
}

// Actions returns the resolved schedule in firing order.
func (p *Performance) Actions() []Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Action, len(p.actions))
	copy(out, p.actions)
	for i := range out {
		out[i].fire = nil
	}
	return out
}

// Events returns the performance events.
func (p *Performance) Events() []Event {
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Tempos returns the tempo entries.
func (p *Performance) Tempos() []Tempo {
	out := make([]Tempo, len(p.tempos))
	copy(out, p.tempos)
	return out
}

// ActiveCount returns the number of currently displayed decorations.
func (p *Performance) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.active)
}

// DecorationCount returns the number of built decorations.
func (p *Performance) DecorationCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.decorations)
}

// Elapsed returns the transport position.
func (p *Performance) Elapsed() time.Duration {
	return p.deps.Transport.Elapsed()
}

// Progress returns the played fraction of the horizon, clamped to 0..1.
func (p *Performance) Progress() float64 {
	p.mu.Lock()
	horizon := p.horizon
	p.mu.Unlock()
	if horizon <= 0 {
		return 0
	}
	f := float64(p.deps.Transport.Elapsed()) / float64(horizon)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
