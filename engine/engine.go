// Package engine turns a parsed score into live state: one surface per view
// and a prepared performance per declaration, all sharing a single transport.
package engine

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/joeberkovitz/gmnx-viewer/config"
	"github.com/joeberkovitz/gmnx-viewer/decoration"
	"github.com/joeberkovitz/gmnx-viewer/logger"
	"github.com/joeberkovitz/gmnx-viewer/media"
	"github.com/joeberkovitz/gmnx-viewer/performance"
	"github.com/joeberkovitz/gmnx-viewer/score"
	"github.com/joeberkovitz/gmnx-viewer/surface"
	"github.com/joeberkovitz/gmnx-viewer/synth"
	"github.com/joeberkovitz/gmnx-viewer/transport"
)

// Engine owns the current score build and plays it. Because every
// performance schedules on the same transport, at most one plays at a time.
type Engine struct {
	cfg       config.ViewerConfig
	transport transport.Transport
	synth     synth.Synthesizer
	player    media.Player
	clock     clock.Clock
	style     decoration.Style
	log       *logrus.Entry

	mu      sync.Mutex
	buildID string
	path    string
	baseDir string
	doc     *score.Document
	views   map[string]surface.Surface
	perfs   []*performance.Performance
}

// NewEngine creates a new Engine object with reasonable defaults for real
// usage. Pass nil for the synthesizer or player to run silent.
func NewEngine(cfg config.ViewerConfig, tr transport.Transport, sy synth.Synthesizer, pl media.Player, cl clock.Clock) *Engine {
	log := logger.GetProjectLogger()
	if sy == nil {
		sy = synth.Nop{}
	}
	if pl == nil {
		pl = media.NopPlayer{}
	}
	if cl == nil {
		cl = clock.RealClock{}
	}
	style, err := decoration.StyleFromConfig(cfg.Styles)
	if err != nil {
		log.Warnf("bad style configuration, using defaults: %v", err)
		style = decoration.DefaultStyle()
	}
	return &Engine{
		cfg:       cfg,
		transport: tr,
		synth:     sy,
		player:    pl,
		clock:     cl,
		style:     style,
		log:       log,
	}
}

// BuildID identifies the current build. It changes on every successful
// Build, so clients can tell a reload happened.
func (e *Engine) BuildID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildID
}

// Document returns the score behind the current build, or nil before the
// first build.
func (e *Engine) Document() *score.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// Path returns the score file the engine last loaded, if any.
func (e *Engine) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// Performances returns the prepared performances in declaration order.
func (e *Engine) Performances() []*performance.Performance {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*performance.Performance, len(e.perfs))
	copy(out, e.perfs)
	return out
}

// Performance returns the prepared performance at index.
func (e *Engine) Performance(index int) (*performance.Performance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.perfs) {
		return nil, fmt.Errorf("no performance %d, the score has %d", index, len(e.perfs))
	}
	return e.perfs[index], nil
}

// View returns the named surface from the current build.
func (e *Engine) View(name string) (surface.Surface, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.views[name]
	if !ok {
		return nil, fmt.Errorf("no view %q in the current build", name)
	}
	return s, nil
}

// Views returns every surface of the current build keyed by view name.
func (e *Engine) Views() map[string]surface.Surface {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]surface.Surface, len(e.views))
	for name, s := range e.views {
		out[name] = s
	}
	return out
}

// Play starts the performance at index from the top. Anything else playing
// stops first.
func (e *Engine) Play(index int) error {
	p, err := e.Performance(index)
	if err != nil {
		return err
	}
	e.StopAll()
	return p.Play()
}

// Stop stops the performance at index.
func (e *Engine) Stop(index int) error {
	p, err := e.Performance(index)
	if err != nil {
		return err
	}
	p.Stop()
	return nil
}

// StopAll stops every performance.
func (e *Engine) StopAll() {
	for _, p := range e.Performances() {
		p.Stop()
	}
}

// Active returns the performance that is playing right now, or nil.
func (e *Engine) Active() *performance.Performance {
	for _, p := range e.Performances() {
		if p.Playing() {
			return p
		}
	}
	return nil
}

// Close stops playback and cancels everything the engine has scheduled.
func (e *Engine) Close() {
	e.StopAll()
	e.mu.Lock()
	perfs := e.perfs
	e.perfs = nil
	e.views = nil
	e.mu.Unlock()
	for _, p := range perfs {
		p.Release()
	}
}
